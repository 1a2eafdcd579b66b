package effects

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Send after Close, and by Receive once a closed
// queue has been drained.
var ErrClosed = errors.New("effects: queue closed")

// Sender is the producer side of the queue.
type Sender interface {
	Send(Envelope) error
}

// Queue is an unbounded multi-producer queue of envelopes with a single
// consumer. Send never blocks; Receive blocks until an envelope arrives,
// the context ends, or the queue is closed and empty.
type Queue struct {
	mu     sync.Mutex
	items  []Envelope
	head   int
	closed bool
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items:  make([]Envelope, 0, 256),
		notify: make(chan struct{}, 1),
	}
}

// Send appends env. It is safe for concurrent use.
func (q *Queue) Send(env Envelope) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, env)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Receive pops the oldest envelope.
func (q *Queue) Receive(ctx context.Context) (Envelope, error) {
	for {
		env, ok, err := q.pop()
		if ok || err != nil {
			return env, err
		}
		select {
		case <-ctx.Done():
			return Envelope{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// TryReceive pops the oldest envelope without blocking.
func (q *Queue) TryReceive() (Envelope, bool) {
	env, ok, _ := q.pop()
	return env, ok
}

func (q *Queue) pop() (Envelope, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head == len(q.items) {
		if q.closed {
			return Envelope{}, false, ErrClosed
		}
		return Envelope{}, false, nil
	}

	env := q.items[q.head]
	q.items[q.head] = Envelope{}
	q.head++

	// Compact once the consumed prefix dominates the backing array.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 1024 && q.head*2 > len(q.items) {
		old := len(q.items)
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:old])
		q.items = q.items[:n]
		q.head = 0
	}
	return env, true, nil
}

// Len returns the number of queued envelopes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.head
}

// Close stops accepting envelopes. Envelopes already queued can still be
// received. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}
