package engine

import (
	"context"
	"log/slog"
)

// Engine is a single-writer loop in front of a Session.
//
// Hosts with more than one source of work (a key reader and a dictionary
// watcher, say) enqueue events from any goroutine; Run applies them one at
// a time in arrival order, which is the ordering guarantee the composition
// needs.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	session *Session
	queue   *eventQueue
	logger  *slog.Logger
}

// New creates an Engine over session.
func New(session *Session) *Engine {
	return &Engine{
		session: session,
		queue:   newEventQueue(),
		logger:  session.logger,
	}
}

// Session returns the session the loop drives.
func (e *Engine) Session() *Session {
	return e.session
}

// Enqueue submits an event. Returns false once the engine has stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// Submit enqueues an event and waits for its result. It returns false if the
// engine stopped or ctx ended first.
func (e *Engine) Submit(ctx context.Context, ev Event) (Result, bool) {
	reply := make(chan Result, 1)
	ev.Reply = reply
	if !e.Enqueue(ev) {
		return Result{}, false
	}
	select {
	case r := <-reply:
		return r, true
	case <-ctx.Done():
		return Result{}, false
	}
}

// Run processes events until ctx is cancelled or Stop is called. Events
// still queued at Stop are processed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Debug("engine starting")

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, ev)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Debug("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes with the queue; an empty closed
			// queue means we are done.
			if e.queue.Len() == 0 && e.closed() {
				e.logger.Debug("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue; Run drains it and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) closed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

func (e *Engine) process(ctx context.Context, ev Event) {
	var r Result
	switch ev.Type {
	case EventTypeKey:
		r.Intents = e.session.Step(ctx, ev.Key)
	case EventTypeSelect:
		r.Changed = e.session.SelectCandidateByIndex(ev.Index)
	case EventTypeDeactivate:
		e.session.Deactivate()
	case EventTypeSwap:
		r.Changed = e.session.SwapDictionary(ev.Root)
	default:
		e.logger.Error("event processing failed", "event_type", ev.Type, "error", "unknown event type")
	}
	r.State = e.session.CurrentState()

	if ev.Reply != nil {
		select {
		case ev.Reply <- r:
		default:
			e.logger.Warn("event reply dropped: channel full", "event_type", ev.Type)
		}
	}
}
