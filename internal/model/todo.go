package model

import "time"

// CreatedAtLayout is the timestamp format stored in Todo.CreatedAt.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z"

// Todo is the domain model for a todo entry.
type Todo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// Created parses CreatedAt. The zero time is returned for malformed values.
func (t Todo) Created() time.Time {
	ts, err := time.Parse(CreatedAtLayout, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// Apply shallow-merges p into t. ID and CreatedAt never change.
func (p Patch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool { return p.Title == nil && p.Completed == nil }

// SetTitle and SetCompleted build single-field patches.
func SetTitle(title string) Patch { return Patch{Title: &title} }

func SetCompleted(done bool) Patch { return Patch{Completed: &done} }

// Stats are the header counters shown above a list.
type Stats struct {
	Total     int
	Completed int
	Active    int
}

// Count tallies completed and active todos.
func Count(todos []Todo) Stats {
	s := Stats{Total: len(todos)}
	for _, t := range todos {
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s
}
