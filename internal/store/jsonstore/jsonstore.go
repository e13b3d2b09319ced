// Package jsonstore keeps the todo collection as a single JSON array under
// one key of a kv.Store. Every write re-reads the whole array, changes it,
// and writes it back inside one atomic kv update.
package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/kv"
)

// StorageKey is the kv key the collection lives under.
const StorageKey = "todos"

// DefaultLatency is the artificial delay the interactive app runs with.
const DefaultLatency = 300 * time.Millisecond

// ParseError reports a stored value that is not a valid serialized
// collection.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Options tune a Service. The zero value means no latency, the wall clock
// and a discarding logger.
type Options struct {
	Latency time.Duration
	Now     func() time.Time
	Logger  *log.Logger
}

// Service is CRUD over the todo collection.
type Service struct {
	store   kv.Store
	latency time.Duration
	now     func() time.Time
	log     *log.Logger
}

func New(store kv.Store, opt Options) *Service {
	s := &Service{
		store:   store,
		latency: opt.Latency,
		now:     opt.Now,
		log:     opt.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = log.New(io.Discard)
	}
	return s
}

// List returns the whole collection in insertion order. An absent key
// yields an empty, non-nil slice.
func (s *Service) List(ctx context.Context) ([]model.Todo, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	b, err := s.store.Read(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	todos, err := Decode(b)
	if err != nil {
		return nil, &ParseError{Key: StorageKey, Err: err}
	}
	s.log.Debug("listed todos", "count", len(todos))
	return todos, nil
}

// Create appends a new todo. The title is stored as given.
func (s *Service) Create(ctx context.Context, title string) (model.Todo, error) {
	var created model.Todo
	err := s.modify(ctx, func(todos []model.Todo) ([]model.Todo, error) {
		now := s.now().UTC()
		created = model.Todo{
			ID:        nextID(todos, now),
			Title:     title,
			Completed: false,
			CreatedAt: now.Format(model.CreatedAtLayout),
		}
		return append(todos, created), nil
	})
	if err != nil {
		return model.Todo{}, err
	}
	s.log.Debug("created todo", "id", created.ID)
	return created, nil
}

// Update merges patch into the todo with the given id. It returns nil, nil
// when no todo matched.
func (s *Service) Update(ctx context.Context, id string, patch model.Patch) (*model.Todo, error) {
	var updated *model.Todo
	err := s.modify(ctx, func(todos []model.Todo) ([]model.Todo, error) {
		for i := range todos {
			if todos[i].ID == id {
				todos[i] = patch.Apply(todos[i])
				t := todos[i]
				updated = &t
			}
		}
		return todos, nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		s.log.Debug("update matched nothing", "id", id)
	}
	return updated, nil
}

// Delete removes the todo with the given id, if any, and returns id.
func (s *Service) Delete(ctx context.Context, id string) (string, error) {
	err := s.modify(ctx, func(todos []model.Todo) ([]model.Todo, error) {
		kept := todos[:0]
		for _, t := range todos {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		return kept, nil
	})
	if err != nil {
		return "", err
	}
	s.log.Debug("deleted todo", "id", id)
	return id, nil
}

// Raw returns the stored bytes untouched.
func (s *Service) Raw(ctx context.Context) ([]byte, error) {
	b, err := s.store.Read(ctx, StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return b, nil
}

// modify runs fn over the decoded collection and persists the result, all
// inside one kv update.
func (s *Service) modify(ctx context.Context, fn func([]model.Todo) ([]model.Todo, error)) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	err := s.store.Update(ctx, StorageKey, func(cur []byte) ([]byte, error) {
		todos, err := Decode(cur)
		if err != nil {
			return nil, &ParseError{Key: StorageKey, Err: err}
		}
		todos, err = fn(todos)
		if err != nil {
			return nil, err
		}
		return Encode(todos)
	})
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return err
		}
		return fmt.Errorf("update: %w", err)
	}
	return nil
}

func (s *Service) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// nextID derives an id from now in Unix milliseconds, stepping forward past
// ids already taken.
func nextID(todos []model.Todo, now time.Time) string {
	taken := make(map[string]struct{}, len(todos))
	for _, t := range todos {
		taken[t.ID] = struct{}{}
	}
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		n++
	}
}

// Decode parses a stored collection. Empty input is an empty collection.
func Decode(b []byte) ([]model.Todo, error) {
	todos := []model.Todo{}
	if len(bytes.TrimSpace(b)) == 0 {
		return todos, nil
	}
	if err := json.Unmarshal(b, &todos); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if todos == nil {
		// literal null
		todos = []model.Todo{}
	}
	return todos, nil
}

// Encode serializes a collection the way it is stored.
func Encode(todos []model.Todo) ([]byte, error) {
	if todos == nil {
		todos = []model.Todo{}
	}
	b, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json marshal: %w", err)
	}
	return b, nil
}
