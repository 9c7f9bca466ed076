package cache

import "context"

// queue carries operations to the owner goroutine. Sends and receives give up
// once the owner's context is done.
type queue[T any] struct {
	channel chan T
	owner   context.Context
}

func newQueue[T any](owner context.Context, size int) *queue[T] {
	return &queue[T]{
		channel: make(chan T, size),
		owner:   owner,
	}
}

func (q *queue[T]) send(op T) error {
	select {
	case q.channel <- op:
		return nil
	case <-q.owner.Done():
		return ErrClosed
	}
}

func (q *queue[T]) receive() (T, bool) {
	select {
	case op := <-q.channel:
		return op, true
	case <-q.owner.Done():
		var zero T
		return zero, false
	}
}
