package query

import (
	"context"
	"sync"
)

// MutateFunc performs a write.
type MutateFunc[A, R any] func(ctx context.Context, arg A) (R, error)

// Mutation wraps a write so that a success invalidates and refetches the
// queries it touches. It does not retry, dedupe or apply optimistic
// updates.
type Mutation[A, R any] struct {
	c           *Client
	name        string
	fn          MutateFunc[A, R]
	invalidates []string

	mu      sync.Mutex
	pending int
	err     error
}

// NewMutation binds fn to c. name identifies the mutation in subscriber
// notifications.
func NewMutation[A, R any](c *Client, name string, fn MutateFunc[A, R], invalidates ...string) *Mutation[A, R] {
	return &Mutation[A, R]{c: c, name: name, fn: fn, invalidates: invalidates}
}

func (m *Mutation[A, R]) Name() string { return m.name }

// Pending reports whether any invocation is in flight.
func (m *Mutation[A, R]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Err is the error of the last finished invocation, nil after a success.
func (m *Mutation[A, R]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Invoke runs the mutation. On success the invalidated queries have been
// refetched by the time it returns; a failing refetch is recorded on the
// query, not returned here. On failure cached data is left as is.
func (m *Mutation[A, R]) Invoke(ctx context.Context, arg A) (R, error) {
	var zero R
	if m.c.isClosed() {
		return zero, ErrClosed
	}
	m.setPending(1)

	r, err := m.fn(ctx, arg)
	if err != nil {
		m.finish(err)
		m.c.log.Warn("mutation failed", "mutation", m.name, "err", err)
		return zero, err
	}
	if len(m.invalidates) > 0 {
		if ierr := m.c.Invalidate(ctx, m.invalidates...); ierr != nil {
			m.c.log.Debug("refetch after mutation failed", "mutation", m.name, "err", ierr)
		}
	}
	m.finish(nil)
	return r, nil
}

// Go runs Invoke in its own goroutine.
func (m *Mutation[A, R]) Go(ctx context.Context, arg A) *Future[R] {
	return Go(ctx, func(ctx context.Context) (R, error) { return m.Invoke(ctx, arg) })
}

func (m *Mutation[A, R]) setPending(delta int) {
	m.mu.Lock()
	m.pending += delta
	m.mu.Unlock()
	m.c.notify(m.name)
}

func (m *Mutation[A, R]) finish(err error) {
	m.mu.Lock()
	m.pending--
	m.err = err
	m.mu.Unlock()
	m.c.notify(m.name)
}
