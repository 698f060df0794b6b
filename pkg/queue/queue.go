package queue

import (
	"sync"

	"hugbridge/pkg/metrics"
)

// Request is one accepted prompt awaiting service. Immutable once enqueued;
// discarded after the worker finishes it.
type Request struct {
	ChatID               int64
	Prompt               string
	OriginMessageID      int
	PlaceholderMessageID int
}

// Queue is an unbounded FIFO of generation requests. Enqueue is safe for
// concurrent producers; the single worker is the only consumer. Strict
// arrival order is preserved across all chats, no priorities.
type Queue struct {
	mu    sync.Mutex
	items []Request
	wake  chan struct{}
}

func New() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends to the tail and signals the worker. Never fails.
func (q *Queue) Enqueue(request Request) {
	q.mu.Lock()
	q.items = append(q.items, request)
	depth := len(q.items)
	q.mu.Unlock()

	metrics.RequestEnqueued()
	metrics.SetQueueDepth(depth)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the head, or reports false when empty.
func (q *Queue) Dequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Request{}, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	metrics.SetQueueDepth(len(q.items))
	return item, true
}

// Depth returns the number of waiting requests.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Wake signals when new work arrives. The channel is buffered with size one;
// a pending signal covers any number of enqueues.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}
