package tui

import (
	"context"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/kv"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newModel(t *testing.T) (Model, *todos.Todos, kv.Store) {
	t.Helper()
	store := kv.NewMemory()
	app, err := todos.New(jsonstore.New(store, jsonstore.Options{}), nil)
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	m := New(context.Background(), app, ui.NewTheme("mono", lipgloss.NewRenderer(io.Discard)))
	t.Cleanup(m.Stop)
	return m, app, store
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to m and, when a command comes back, runs it once and
// feeds its message too.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd != nil {
		if out := cmd(); out != nil {
			next, _ = m.Update(out)
			m = next.(Model)
		}
	}
	return m
}

func loaded(t *testing.T, m Model) Model {
	t.Helper()
	return step(t, m, m.fetch()())
}

func TestView_LoadingThenList(t *testing.T) {
	m, _, _ := newModel(t)
	assert.Contains(t, m.View(), "Loading todos...")

	m = loaded(t, m)
	v := m.View()
	assert.NotContains(t, v, "Loading todos...")
	assert.Contains(t, v, "Total 0")
}

func TestView_ErrorState(t *testing.T) {
	m, _, store := newModel(t)
	require.NoError(t, store.Write(context.Background(), jsonstore.StorageKey, []byte("{oops")))

	m = loaded(t, m)
	assert.Contains(t, m.View(), "Error loading todos:")
}

func TestAddToggleDelete(t *testing.T) {
	m, app, _ := newModel(t)
	m = loaded(t, m)

	m = step(t, m, keys("a"))
	require.Equal(t, adding, m.mode)
	m.ti.SetValue("  Buy milk  ")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, browsing, m.mode)
	data := app.State().Data
	require.Len(t, data, 1)
	assert.Equal(t, "Buy milk", data[0].Title)
	assert.Contains(t, m.View(), "Buy milk")

	m = step(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	assert.True(t, app.State().Data[0].Completed)
	assert.Contains(t, m.View(), "[x] Buy milk")

	m = step(t, m, keys("e"))
	require.Equal(t, editing, m.mode)
	assert.Equal(t, "Buy milk", m.ti.Value())
	m.ti.SetValue("Buy oat milk")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "Buy oat milk", app.State().Data[0].Title)
	assert.True(t, app.State().Data[0].Completed)

	m = step(t, m, keys("d"))
	assert.Empty(t, app.State().Data)
	assert.Empty(t, m.lastErr)
}

func TestAdd_BlankTitleStaysOpen(t *testing.T) {
	m, app, _ := newModel(t)
	m = loaded(t, m)

	m = step(t, m, keys("a"))
	m.ti.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, adding, m.mode)
	assert.Contains(t, m.View(), "Title cannot be empty")
	assert.Empty(t, app.State().Data)

	m = step(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, browsing, m.mode)
}

func TestMutationFailureShown(t *testing.T) {
	m, _, store := newModel(t)
	m = loaded(t, m)
	require.NoError(t, store.Write(context.Background(), jsonstore.StorageKey, []byte("{oops")))

	m = step(t, m, keys("a"))
	m.ti.SetValue("Walk dog")
	m = step(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, m.lastErr, "add:")
	assert.Contains(t, m.View(), "error: add:")
}

func TestQuitKeys(t *testing.T) {
	m, _, _ := newModel(t)
	m = loaded(t, m)

	_, cmd := m.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSubscriptionRefreshes(t *testing.T) {
	m, app, _ := newModel(t)
	wait := m.wait()

	require.NoError(t, app.Fetch(context.Background()))
	msg := wait()
	require.IsType(t, changedMsg{}, msg)
	assert.Equal(t, todos.QueryKey, msg.(changedMsg).key)

	next, cmd := m.Update(msg)
	assert.NotNil(t, cmd)
	assert.IsType(t, Model{}, next)
}
