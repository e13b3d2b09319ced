// Package query is a small cached-fetch layer: named queries whose results
// are memoized until a mutation invalidates them.
//
// A Client is the cache. Create one per UI session with NewClient and tear
// it down with Close; nothing here is package-global.
package query

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrClosed is returned by every operation on a closed Client.
var ErrClosed = errors.New("query client closed")

// FetchFunc loads the value of a query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options tune a Client.
type Options struct {
	Logger *log.Logger
	Now    func() time.Time
}

// Client holds cached query entries and notifies subscribers when any
// entry or mutation changes.
type Client struct {
	log *log.Logger
	now func() time.Time

	mu      sync.Mutex
	closed  bool
	entries map[string]*entry
	subs    map[int]chan string
	nextSub int
}

type entry struct {
	fetch func(ctx context.Context) (any, error)

	data      any
	err       error
	resolved  bool
	stale     bool
	fetching  int
	issued    uint64
	applied   uint64
	updatedAt time.Time
}

// NewClient returns an empty cache.
func NewClient(opt Options) *Client {
	c := &Client{
		log:     opt.Logger,
		now:     opt.Now,
		entries: make(map[string]*entry),
		subs:    make(map[int]chan string),
	}
	if c.log == nil {
		c.log = log.New(io.Discard)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Query is a typed handle on a registered entry.
type Query[T any] struct {
	c   *Client
	key string
}

// Register adds a query under key. Nothing is fetched until Fetch or
// Invalidate is called.
func Register[T any](c *Client, key string, fetch FetchFunc[T]) (*Query[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	if _, ok := c.entries[key]; ok {
		return nil, fmt.Errorf("query %q already registered", key)
	}
	c.entries[key] = &entry{
		fetch: func(ctx context.Context) (any, error) { return fetch(ctx) },
	}
	return &Query[T]{c: c, key: key}, nil
}

// State is a snapshot of a query.
type State[T any] struct {
	Data T
	// IsLoading is true until the first fetch resolves, successfully or not.
	IsLoading bool
	// IsFetching is true while any fetch is in flight.
	IsFetching bool
	// Err is the error of the latest resolved fetch. Data keeps its
	// previous value when it is set.
	Err       error
	Stale     bool
	UpdatedAt time.Time
}

func (q *Query[T]) Key() string { return q.key }

// State returns the current snapshot. After Close it reports ErrClosed.
func (q *Query[T]) State() State[T] {
	q.c.mu.Lock()
	defer q.c.mu.Unlock()
	var s State[T]
	e, ok := q.c.entries[q.key]
	if !ok {
		s.Err = ErrClosed
		return s
	}
	if v, ok := e.data.(T); ok {
		s.Data = v
	}
	s.IsLoading = !e.resolved
	s.IsFetching = e.fetching > 0
	s.Err = e.err
	s.Stale = e.stale
	s.UpdatedAt = e.updatedAt
	return s
}

// Fetch runs the query and stores its outcome. The returned error is the
// fetch error, if any.
func (q *Query[T]) Fetch(ctx context.Context) error {
	return q.c.fetch(ctx, q.key)
}

func (c *Client) fetch(ctx context.Context, key string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown query %q", key)
	}
	e.issued++
	seq := e.issued
	e.fetching++
	fetch := e.fetch
	c.mu.Unlock()
	c.notify(key)

	v, err := fetch(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	e.fetching--
	// An older fetch finishing late must not overwrite a newer result.
	if seq > e.applied {
		e.applied = seq
		e.resolved = true
		if err != nil {
			e.err = err
		} else {
			e.data = v
			e.err = nil
			e.stale = false
			e.updatedAt = c.now()
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("query fetch failed", "key", key, "err", err)
	} else {
		c.log.Debug("query fetched", "key", key)
	}
	c.notify(key)
	return err
}

// Invalidate marks the given queries stale and refetches them. Fetch
// errors are recorded on the entries and joined into the returned error.
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	for _, k := range keys {
		if e, ok := c.entries[k]; ok {
			e.stale = true
		}
	}
	c.mu.Unlock()

	var errs []error
	for _, k := range keys {
		if err := c.fetch(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe returns a channel receiving the key of every query or mutation
// that changed. Bursts may be coalesced when the subscriber falls behind.
// The channel is closed by cancel or by Close.
func (c *Client) Subscribe() (<-chan string, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan string, 16)
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Client) notify(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- key:
		default:
		}
	}
}

// Close discards every entry and releases subscribers.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.entries = map[string]*entry{}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
