// Package notify delivers transient toast notifications. A Center is an
// explicit value handed to the components that publish or display toasts;
// there is no package-level registry.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDuration applies when a toast does not set its own.
const DefaultDuration = 3 * time.Second

// Toast is one transient message.
type Toast struct {
	Message  string
	IsError  bool
	Duration time.Duration
}

// Handle identifies a subscription for removal.
type Handle string

// Center fans toasts out to subscribers. Handlers run synchronously on the
// publishing goroutine and must not block.
type Center struct {
	mu   sync.Mutex
	subs map[Handle]func(Toast)
}

// NewCenter returns an empty toast center.
func NewCenter() *Center {
	return &Center{subs: make(map[Handle]func(Toast))}
}

// Subscribe registers fn and returns its removal handle.
func (c *Center) Subscribe(fn func(Toast)) Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := Handle(uuid.NewString())
	c.subs[h] = fn
	return h
}

// Unsubscribe removes the subscription for h. Unknown handles are ignored.
func (c *Center) Unsubscribe(h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, h)
}

// Publish delivers the toast to every subscriber, filling in the default
// duration when unset.
func (c *Center) Publish(t Toast) {
	if t.Duration <= 0 {
		t.Duration = DefaultDuration
	}
	c.mu.Lock()
	fns := make([]func(Toast), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(t)
	}
}

// Success publishes a plain informational toast.
func (c *Center) Success(message string) {
	c.Publish(Toast{Message: message})
}

// Error publishes an error-styled toast.
func (c *Center) Error(message string) {
	c.Publish(Toast{Message: message, IsError: true})
}
