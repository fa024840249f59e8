package events

import (
	"sync"

	"github.com/google/uuid"
)

// Emitter fans a value out to registered listeners. Listeners are invoked
// synchronously, in registration order, after the state change that produced
// the event has completed.
type Emitter[T any] struct {
	mu       sync.RWMutex
	subs     []*Subscription[T] // Registration order significant
	disposed bool
}

// Subscription is a handle to a registered listener.
type Subscription[T any] struct {
	id      string
	handler func(T)
	emitter *Emitter[T]
}

// NewEmitter creates an empty emitter.
func NewEmitter[T any]() *Emitter[T] {
	return &Emitter[T]{}
}

// Subscribe registers a listener and returns its subscription handle.
// Subscribing to a disposed emitter returns a handle that never fires.
func (e *Emitter[T]) Subscribe(handler func(T)) *Subscription[T] {
	sub := &Subscription[T]{
		id:      uuid.New().String(),
		handler: handler,
		emitter: e,
	}

	e.mu.Lock()
	if !e.disposed {
		e.subs = append(e.subs, sub)
	}
	e.mu.Unlock()

	return sub
}

// Emit invokes every registered listener with v.
func (e *Emitter[T]) Emit(v T) {
	e.mu.RLock()
	subs := make([]*Subscription[T], len(e.subs))
	copy(subs, e.subs)
	e.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(v)
	}
}

// Len returns the number of registered listeners.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Dispose detaches all listeners. Subsequent subscriptions never fire.
func (e *Emitter[T]) Dispose() {
	e.mu.Lock()
	e.subs = nil
	e.disposed = true
	e.mu.Unlock()
}

// ID returns the subscription's unique identifier.
func (s *Subscription[T]) ID() string {
	return s.id
}

// Dispose unregisters the listener. Safe to call more than once.
func (s *Subscription[T]) Dispose() {
	e := s.emitter
	e.mu.Lock()
	for i, sub := range e.subs {
		if sub == s {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			break
		}
	}
	e.mu.Unlock()
}
