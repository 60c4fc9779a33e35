package modkit

import "sync"

// Listener receives the positional arguments passed to Emit.
type Listener func(args ...any)

// Emitter is a named-event publish/subscribe primitive.
// Listeners are called synchronously in subscription order.
// The zero value is ready to use.
type Emitter struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[string][]Listener)}
}

// On subscribes fn to event. A nil listener is ignored.
func (e *Emitter) On(event string, fn Listener) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listeners == nil {
		e.listeners = make(map[string][]Listener)
	}
	e.listeners[event] = append(e.listeners[event], fn)
}

// Emit fans args out to every listener of event and reports whether any listener was called.
func (e *Emitter) Emit(event string, args ...any) bool {
	e.mu.RLock()
	// listeners may subscribe or emit re-entrantly, so call a snapshot outside the lock
	snapshot := append([]Listener(nil), e.listeners[event]...)
	e.mu.RUnlock()

	for _, fn := range snapshot {
		fn(args...)
	}
	return len(snapshot) > 0
}

// RemoveAllListeners drops the listeners of the given events, or of every event when none are given.
func (e *Emitter) RemoveAllListeners(events ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(events) == 0 {
		e.listeners = make(map[string][]Listener)
		return
	}
	for _, event := range events {
		delete(e.listeners, event)
	}
}

// ListenerCount returns the number of listeners subscribed to event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}
