package engine

import (
	"sync"

	"github.com/roach88/mnemo/internal/ir"
	"github.com/roach88/mnemo/internal/trie"
)

// EventType distinguishes host requests.
type EventType int

const (
	// EventTypeKey delivers a key to the session.
	EventTypeKey EventType = iota + 1
	// EventTypeSelect selects a candidate by absolute index.
	EventTypeSelect
	// EventTypeDeactivate force-resets the composition.
	EventTypeDeactivate
	// EventTypeSwap replaces the dictionary.
	EventTypeSwap
)

// Event is one host request for the Engine loop. Reply, when non-nil,
// receives exactly one Result; it should be buffered.
type Event struct {
	Type  EventType
	Key   ir.Key
	Index int
	Root  *trie.Node
	Reply chan<- Result
}

// Result is what the loop produced for an event.
type Result struct {
	Intents []ir.Intent
	State   State
	Changed bool // selection moved, or the swap applied at once
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}
	e := q.events[0]
	// Drop the slot's pointers (trie roots, reply channels) for the GC.
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return e, true
}

// Wait returns a channel that signals when events may be available. It is
// closed once the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further enqueues and wakes the waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
