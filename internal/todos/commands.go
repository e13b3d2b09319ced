package todos

import (
	"context"
	"fmt"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
)

// Command is a user intent emitted by a UI.
type Command interface {
	command()
}

type CreateCmd struct {
	Title string
}

type UpdateCmd struct {
	ID    string
	Patch model.Patch
}

type DeleteCmd struct {
	ID string
}

func (CreateCmd) command() {}
func (UpdateCmd) command() {}
func (DeleteCmd) command() {}

// Result is what a dispatched command produced. Todo is nil for deletes and
// for updates that matched nothing.
type Result struct {
	Todo *model.Todo
	ID   string
}

// Dispatch validates cmd at the UI boundary and runs the matching
// mutation. Invalid commands resolve immediately without touching storage.
func (t *Todos) Dispatch(ctx context.Context, cmd Command) *query.Future[Result] {
	switch c := cmd.(type) {
	case CreateCmd:
		title, err := NormalizeTitle(c.Title)
		if err != nil {
			return query.Failed[Result](err)
		}
		return query.Go(ctx, func(ctx context.Context) (Result, error) {
			td, err := t.Create.Invoke(ctx, title)
			if err != nil {
				return Result{}, err
			}
			return Result{Todo: &td, ID: td.ID}, nil
		})

	case UpdateCmd:
		patch := c.Patch
		if patch.Title != nil {
			title, err := NormalizeTitle(*patch.Title)
			if err != nil {
				return query.Failed[Result](err)
			}
			patch.Title = &title
		}
		return query.Go(ctx, func(ctx context.Context) (Result, error) {
			td, err := t.Update.Invoke(ctx, UpdateArgs{ID: c.ID, Patch: patch})
			if err != nil {
				return Result{}, err
			}
			return Result{Todo: td, ID: c.ID}, nil
		})

	case DeleteCmd:
		return query.Go(ctx, func(ctx context.Context) (Result, error) {
			id, err := t.Delete.Invoke(ctx, c.ID)
			if err != nil {
				return Result{}, err
			}
			return Result{ID: id}, nil
		})
	}
	return query.Failed[Result](fmt.Errorf("unknown command %T", cmd))
}
