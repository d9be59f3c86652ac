package session

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind names what part of the session state changed.
type EventKind int

const (
	// EventLines fires after the scrollback changed.
	EventLines EventKind = iota
	// EventPrompt fires after the prompt identity or directory changed.
	EventPrompt
	// EventState fires on dispatch state transitions.
	EventState
)

// Event is a change notification delivered to subscribers.
type Event struct {
	Kind EventKind
}

// Handle identifies one subscription; it is returned at subscribe time and
// used for removal.
type Handle string

// Emitter fans change notifications out to subscribers. Handlers run
// synchronously on the mutating goroutine and must not block.
type Emitter struct {
	mu   sync.Mutex
	subs map[Handle]func(Event)
}

// Subscribe registers fn and returns its removal handle.
func (e *Emitter) Subscribe(fn func(Event)) Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[Handle]func(Event))
	}
	h := Handle(uuid.NewString())
	e.subs[h] = fn
	return h
}

// Unsubscribe removes the subscription for h. Unknown handles are ignored.
func (e *Emitter) Unsubscribe(h Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.subs, h)
}

func (e *Emitter) emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
