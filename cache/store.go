// Package cache provides the deduplicated item store backing paged views.
// A Store maps item keys to items (first write wins, no eviction) and holds
// any number of independent views, each an ordered and possibly sparse
// sequence of items identified by a Handle.
//
// Each Store is owned by a single goroutine that applies every operation in
// arrival order. Public methods submit work to that goroutine and wait for
// the result, so a Store may be shared freely between buffers and goroutines.
//
//	store := cache.New[Record](ctx, cache.DefaultConfig())
//	defer store.Close()
//	store.Merge(handle, page.Data, page.From)
package cache

import (
	"context"
	"sync"

	"github.com/tailored-agentic-units/pager/page"
)

// Store is a deduplicated key to item map plus the views laid over it.
type Store[T page.Item] struct {
	items map[string]T
	views map[Handle]*sequence[T]

	ops *queue[func()]

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Store and starts its owner goroutine. The goroutine stops
// when ctx is cancelled or Close is called.
func New[T page.Item](ctx context.Context, cfg Config) *Store[T] {
	defaults := DefaultConfig()
	defaults.Merge(&cfg)

	storeCtx, cancel := context.WithCancel(ctx)

	s := &Store[T]{
		items:  make(map[string]T),
		views:  make(map[Handle]*sequence[T]),
		ops:    newQueue[func()](storeCtx, defaults.QueueSize),
		ctx:    storeCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.loop()

	return s
}

// Close stops the owner goroutine and waits for it to exit. Reads after Close
// return zero values; Merge returns ErrClosed. Close is idempotent.
func (s *Store[T]) Close() {
	s.closeOnce.Do(s.cancel)
	<-s.done
}

// Get returns the item stored under key.
func (s *Store[T]) Get(key string) (T, bool) {
	var (
		item T
		ok   bool
	)
	s.do(func() {
		item, ok = s.items[key]
	})
	return item, ok
}

// Len returns the number of distinct items held.
func (s *Store[T]) Len() int {
	var n int
	s.do(func() {
		n = len(s.items)
	})
	return n
}

// Views returns the number of bound views.
func (s *Store[T]) Views() int {
	var n int
	s.do(func() {
		n = len(s.views)
	})
	return n
}

// View returns a snapshot of the view bound to h, or an empty view when h is
// unknown.
func (s *Store[T]) View(h Handle) View[T] {
	var v View[T]
	s.do(func() {
		if seq, ok := s.views[h]; ok {
			v = seq.snapshot()
		}
	})
	return v
}

// ClearView drops the view bound to h. Stored items are untouched.
func (s *Store[T]) ClearView(h Handle) {
	s.do(func() {
		delete(s.views, h)
	})
}

// Merge records items in the store and lays them into the view bound to h.
//
// Items are stored under their key only when the key is absent. When the view
// already exists, a non-nil from places items at from, from+1, ... without
// overwriting populated positions, and a nil from appends them. When the view
// does not exist yet, items become the view as given and from is ignored.
// Offsets beyond the end of the view leave gaps.
func (s *Store[T]) Merge(h Handle, items []T, from *int) error {
	if !s.do(func() { s.merge(h, items, from) }) {
		return ErrClosed
	}
	return nil
}

func (s *Store[T]) merge(h Handle, items []T, from *int) {
	for _, item := range items {
		key := item.Key()
		if _, exists := s.items[key]; !exists {
			s.items[key] = item
		}
	}

	seq, exists := s.views[h]
	switch {
	case !exists:
		s.views[h] = newSequence(items)
	case from != nil:
		seq.place(*from, items)
	default:
		seq.append(items)
	}
}

// do runs fn on the owner goroutine and reports whether it ran.
func (s *Store[T]) do(fn func()) bool {
	reply := make(chan struct{})
	err := s.ops.send(func() {
		fn()
		close(reply)
	})
	if err != nil {
		return false
	}

	select {
	case <-reply:
		return true
	case <-s.done:
		select {
		case <-reply:
			return true
		default:
			return false
		}
	}
}

func (s *Store[T]) loop() {
	defer close(s.done)

	for {
		op, ok := s.ops.receive()
		if !ok {
			return
		}
		op()
	}
}
