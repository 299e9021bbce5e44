package importqueue

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is an unbounded FIFO of task ids with a blocking Pop. Push never
// blocks the caller. Duplicate ids are allowed; consumers must tolerate
// seeing the same id more than once.
type Queue struct {
	mu     sync.Mutex
	ready  chan struct{}
	ids    []string
	closed bool

	busy atomic.Bool
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends a task id. It returns false after Close.
func (q *Queue) Push(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.ids = append(q.ids, id)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Pop blocks until a task id is available, the context is canceled, or the
// queue is closed. It returns false when no id will ever be produced.
func (q *Queue) Pop(ctx context.Context) (string, bool) {
	for {
		q.mu.Lock()
		if len(q.ids) > 0 {
			id := q.ids[0]
			q.ids = q.ids[1:]
			if len(q.ids) > 0 && !q.closed {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return id, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return "", false
		}

		select {
		case <-ctx.Done():
			return "", false
		case <-q.ready:
		}
	}
}

// Len reports the number of queued ids.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Close stops the queue. Queued ids remain poppable; once drained, Pop
// returns false.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}

// SetBusy marks whether the worker is actively processing a task. Sweepers
// that must not race an import consult this flag.
func (q *Queue) SetBusy(busy bool) {
	q.busy.Store(busy)
}

// Busy reports whether an import is currently being processed.
func (q *Queue) Busy() bool {
	return q.busy.Load()
}
