// Package relay delivers navigation events to a single subscriber.
package relay

import (
	"sync/atomic"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/domain/navigation"
	"go.uber.org/zap"
)

// Listener receives relayed events. OnEvent must not block and must not call
// back into the navigation controller.
type Listener interface {
	OnEvent(evt navigation.Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(evt navigation.Event)

// OnEvent calls f(evt).
func (f ListenerFunc) OnEvent(evt navigation.Event) { f(evt) }

// Detacher is implemented by listeners that need to know when another
// listener takes their slot or the relay is cancelled.
type Detacher interface {
	OnDetach()
}

// slot wraps a listener so each registration has its own identity, even when
// the same listener value is registered twice.
type slot struct {
	listener Listener
}

// Relay holds at most one listener. Registering a listener replaces the
// previous one; emitting with no listener drops the event.
type Relay struct {
	current atomic.Pointer[slot]
	dropped atomic.Uint64
	logger  *zap.Logger
}

// New creates an empty Relay.
func New(logger *zap.Logger) *Relay {
	return &Relay{logger: logger}
}

// Listen makes l the active listener and returns a function that removes it
// again. The returned function is a no-op once another listener has taken
// the slot.
func (r *Relay) Listen(l Listener) (unregister func()) {
	s := &slot{listener: l}
	if prev := r.current.Swap(s); prev != nil {
		r.logger.Debug("event listener replaced")
		detach(prev)
	}
	return func() {
		r.current.CompareAndSwap(s, nil)
	}
}

// Cancel removes whichever listener is active.
func (r *Relay) Cancel() {
	if prev := r.current.Swap(nil); prev != nil {
		detach(prev)
	}
}

// HasListener reports whether a listener is registered.
func (r *Relay) HasListener() bool {
	return r.current.Load() != nil
}

// Emit delivers evt to the active listener, if any. The slot is read once,
// so a concurrent replacement sees the event delivered to exactly one of the
// old or new listener.
func (r *Relay) Emit(evt navigation.Event) {
	s := r.current.Load()
	if s == nil {
		r.dropped.Add(1)
		return
	}
	s.listener.OnEvent(evt)
}

// Dropped returns how many events were emitted with no listener.
func (r *Relay) Dropped() uint64 {
	return r.dropped.Load()
}

func detach(s *slot) {
	if d, ok := s.listener.(Detacher); ok {
		d.OnDetach()
	}
}
