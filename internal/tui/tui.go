// Package tui is the interactive list. Every change goes through the
// todos orchestrator; the list re-renders whenever its query refreshes.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

type mode int

const (
	browsing mode = iota
	adding
	editing
)

// listItem adapts model.Todo to bubbles/list.Item.
type listItem struct {
	todo model.Todo
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Title }

// itemDelegate renders items on a single line.
type itemDelegate struct {
	theme ui.Theme
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	t := d.theme
	box := t.Muted.Render(t.BoxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = t.Success.Render(t.BoxChecked)
		text = t.Done.Render(text)
	}
	prefix := "  "
	if index == m.Index() {
		prefix = t.Accent.Render("> ")
	}
	fmt.Fprintln(w, prefix+box+" "+text)
}

// Messages produced by commands.
type (
	fetchedMsg struct{ err error }
	changedMsg struct{ key string }
	doneMsg    struct {
		verb string
		err  error
	}
)

// Model is the bubbletea model of the interactive list.
type Model struct {
	ctx   context.Context
	app   *todos.Todos
	theme ui.Theme

	events <-chan string
	cancel func()

	list list.Model
	ti   textinput.Model
	spin spinner.Model
	mode mode

	editID   string
	inputErr string
	// lastErr is the last failed mutation, shown under the list.
	lastErr string

	width, height int
}

// New builds the model and subscribes to app. Call Stop when finished.
func New(ctx context.Context, app *todos.Todos, theme ui.Theme) Model {
	l := list.New(nil, itemDelegate{theme: theme}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = theme.Title
	l.Styles.HelpStyle = theme.Muted
	l.Styles.PaginationStyle = theme.Muted
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("item", "items")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	delBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, toggleBind, delBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	events, cancel := app.Subscribe()
	m := Model{
		ctx:    ctx,
		app:    app,
		theme:  theme,
		events: events,
		cancel: cancel,
		list:   l,
		ti:     ti,
		spin:   spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(theme.Accent)),
		width:  80,
		height: 24,
	}
	m.refresh()
	return m
}

// Stop ends the subscription.
func (m Model) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, app *todos.Todos, theme ui.Theme) error {
	m := New(ctx, app, theme)
	defer m.Stop()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.wait(), m.spin.Tick)
}

func (m Model) fetch() tea.Cmd {
	return func() tea.Msg {
		return fetchedMsg{err: m.app.Fetch(m.ctx)}
	}
}

// wait delivers the next client notification.
func (m Model) wait() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		k, ok := <-events
		if !ok {
			return nil
		}
		return changedMsg{key: k}
	}
}

func (m Model) dispatch(verb string, cmd todos.Command) tea.Cmd {
	fut := m.app.Dispatch(m.ctx, cmd)
	return func() tea.Msg {
		_, err := fut.Wait(m.ctx)
		return doneMsg{verb: verb, err: err}
	}
}

// refresh copies the cached list into the view.
func (m *Model) refresh() {
	st := m.app.State()
	items := make([]list.Item, len(st.Data))
	for i, td := range st.Data {
		items[i] = listItem{todo: td}
	}
	m.list.SetItems(items)

	t := m.theme
	s := model.Count(st.Data)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), s.Completed,
		t.Pending.Render(t.SymPending), s.Active,
		t.Accent.Render("Total"), s.Total,
	)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	return it.todo, ok
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case fetchedMsg:
		m.refresh()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, m.wait()

	case doneMsg:
		if msg.err != nil {
			m.lastErr = msg.verb + ": " + msg.err.Error()
		} else {
			m.lastErr = ""
		}
		m.refresh()
		return m, nil
	}

	if m.mode != browsing {
		return m.updateInput(msg)
	}

	if k, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch k.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, m.fetch()
		case " ":
			if td, ok := m.selected(); ok {
				return m, m.dispatch("toggle", todos.UpdateCmd{ID: td.ID, Patch: model.SetCompleted(!td.Completed)})
			}
			return m, nil
		case "d":
			if td, ok := m.selected(); ok {
				return m, m.dispatch("delete", todos.DeleteCmd{ID: td.ID})
			}
			return m, nil
		case "a":
			m.mode = adding
			m.inputErr = ""
			m.ti.SetValue("")
			m.ti.Placeholder = "New item title..."
			return m, m.ti.Focus()
		case "e":
			if td, ok := m.selected(); ok {
				m.mode = editing
				m.editID = td.ID
				m.inputErr = ""
				m.ti.SetValue(td.Title)
				m.ti.CursorEnd()
				m.ti.Placeholder = "Edit item title..."
				return m, m.ti.Focus()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			title, err := todos.NormalizeTitle(m.ti.Value())
			if err != nil {
				m.inputErr = "Title cannot be empty"
				return m, nil
			}
			var cmd tea.Cmd
			if m.mode == adding {
				cmd = m.dispatch("add", todos.CreateCmd{Title: title})
			} else {
				cmd = m.dispatch("edit", todos.UpdateCmd{ID: m.editID, Patch: model.SetTitle(title)})
			}
			m.closeInput()
			return m, cmd
		case "esc":
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.mode = browsing
	m.editID = ""
	m.inputErr = ""
	m.ti.SetValue("")
	m.ti.Blur()
}

func (m Model) View() string {
	t := m.theme
	st := m.app.State()

	var content string
	switch {
	case st.IsLoading:
		content = m.spin.View() + " " + t.Muted.Render("Loading todos...")
	case st.Err != nil:
		content = t.Error.Render("Error loading todos: "+st.Err.Error()) + "\n" +
			t.Muted.Render("r retry • q quit")
	default:
		listHeight := m.height - 4
		if m.mode != browsing {
			listHeight -= 3
		}
		m.list.SetSize(m.width-4, listHeight)
		content = m.list.View()
	}

	if m.app.Pending() {
		content += "\n" + m.spin.View() + " " + t.Pending.Render("saving...")
	}
	if m.lastErr != "" {
		content += "\n" + t.Error.Render(t.SymFail+" "+m.lastErr)
	}
	if m.mode != browsing {
		bar := lipgloss.NewStyle().Border(t.Border).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add new item"
		if m.mode == editing {
			title = "Edit item"
		}
		if m.inputErr != "" {
			title += " - " + t.Error.Render(m.inputErr)
		}
		content += "\n" + bar.Render(title+"\n"+m.ti.View())
	}
	return ui.PanelString(t, content)
}
