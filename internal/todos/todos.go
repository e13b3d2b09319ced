// Package todos presents the todo store to user interfaces as one cached
// "todos" query plus create, update and delete mutations that refresh it.
// UIs never call the store directly.
package todos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
)

// QueryKey identifies the cached list.
const QueryKey = "todos"

// Mutation names as seen by query.Client subscribers.
const (
	CreateMutation = "todos.create"
	UpdateMutation = "todos.update"
	DeleteMutation = "todos.delete"
)

// ErrEmptyTitle is returned when a title is blank after trimming.
var ErrEmptyTitle = errors.New("title cannot be empty")

// Service is the persistence layer the orchestrator wraps.
type Service interface {
	List(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, title string) (model.Todo, error)
	Update(ctx context.Context, id string, patch model.Patch) (*model.Todo, error)
	Delete(ctx context.Context, id string) (string, error)
}

// UpdateArgs are the arguments of the update mutation.
type UpdateArgs struct {
	ID    string
	Patch model.Patch
}

// State is what a list view renders.
type State struct {
	Data      []model.Todo
	IsLoading bool
	Err       error
}

// Todos is the orchestrator. Create one per UI session.
type Todos struct {
	client *query.Client
	list   *query.Query[[]model.Todo]
	log    *log.Logger

	Create *query.Mutation[string, model.Todo]
	Update *query.Mutation[UpdateArgs, *model.Todo]
	Delete *query.Mutation[string, string]
}

// New wires a fresh query client around svc. A nil logger discards.
func New(svc Service, logger *log.Logger) (*Todos, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	client := query.NewClient(query.Options{Logger: logger})
	list, err := query.Register(client, QueryKey, svc.List)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("register todos query: %w", err)
	}
	return &Todos{
		client: client,
		list:   list,
		log:    logger,
		Create: query.NewMutation(client, CreateMutation, svc.Create, QueryKey),
		Update: query.NewMutation(client, UpdateMutation, func(ctx context.Context, a UpdateArgs) (*model.Todo, error) {
			return svc.Update(ctx, a.ID, a.Patch)
		}, QueryKey),
		Delete: query.NewMutation(client, DeleteMutation, svc.Delete, QueryKey),
	}, nil
}

// State returns the cached list. Data is never nil.
func (t *Todos) State() State {
	s := t.list.State()
	data := s.Data
	if data == nil {
		data = []model.Todo{}
	}
	return State{Data: data, IsLoading: s.IsLoading, Err: s.Err}
}

// Fetch loads the list into the cache.
func (t *Todos) Fetch(ctx context.Context) error {
	return t.list.Fetch(ctx)
}

// Pending reports whether any mutation is in flight.
func (t *Todos) Pending() bool {
	return t.Create.Pending() || t.Update.Pending() || t.Delete.Pending()
}

// Subscribe forwards query.Client notifications.
func (t *Todos) Subscribe() (<-chan string, func()) {
	return t.client.Subscribe()
}

// Close discards the cache.
func (t *Todos) Close() error {
	return t.client.Close()
}

// NormalizeTitle trims surrounding whitespace and rejects blank titles.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}
