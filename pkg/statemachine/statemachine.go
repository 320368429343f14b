package statemachine

import "sync"

// StateFn is a state in Rob Pike's state-function pattern: the states are
// functions, and executing one returns the next state.
type StateFn[T any] func(*T) StateFn[T]

// Machine is a small thread-safe wrapper holding the current state function
// for an entity.
type Machine[T any] struct {
	entity  *T
	current StateFn[T]
	mu      sync.RWMutex
}

// New creates a machine for the given entity starting in initial.
func New[T any](entity *T, initial StateFn[T]) *Machine[T] {
	return &Machine[T]{entity: entity, current: initial}
}

// Current returns the current state function. A nil state means the machine
// has terminated.
func (m *Machine[T]) Current() StateFn[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Dispatch sets fn as the current state, executes it once and adopts the
// state it returns.
func (m *Machine[T]) Dispatch(fn StateFn[T]) {
	m.mu.Lock()
	m.current = fn
	m.mu.Unlock()

	if fn == nil {
		return
	}
	next := fn(m.entity)

	m.mu.Lock()
	m.current = next
	m.mu.Unlock()
}
