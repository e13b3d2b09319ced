package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPatchApply(t *testing.T) {
	orig := Todo{ID: "1", Title: "Buy milk", Completed: false, CreatedAt: "2024-01-01T00:00:00.000Z"}

	got := SetCompleted(true).Apply(orig)
	assert.Equal(t, Todo{ID: "1", Title: "Buy milk", Completed: true, CreatedAt: orig.CreatedAt}, got)

	got = SetTitle("Buy oat milk").Apply(orig)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.False(t, got.Completed)

	assert.Equal(t, orig, Patch{}.Apply(orig))
	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, SetTitle("").IsEmpty())
}

func TestCount(t *testing.T) {
	s := Count([]Todo{{Completed: true}, {}, {}})
	assert.Equal(t, Stats{Total: 3, Completed: 1, Active: 2}, s)
	assert.Equal(t, Stats{}, Count(nil))
}

func TestCreated(t *testing.T) {
	td := Todo{CreatedAt: "2024-03-05T10:20:30.123Z"}
	assert.Equal(t, time.Date(2024, 3, 5, 10, 20, 30, 123_000_000, time.UTC), td.Created())
	assert.True(t, Todo{CreatedAt: "yesterday"}.Created().IsZero())
}
