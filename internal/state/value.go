// Package state holds small observable values shared between the
// delivery engine and whatever renders it (CLI, TUI, notifications).
package state

import "sync"

type listener[T any] struct {
	id int
	fn func(T)
}

// Value is an observable value. Every Set notifies all current
// subscribers synchronously, in subscription order.
type Value[T any] struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	value     T
	nextID    int
	listeners []listener[T]
}

func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{value: initial}
}

func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores val and notifies subscribers. Listeners run outside the
// value lock so they may call Get, but they must not call Set on the
// same value.
func (v *Value[T]) Set(val T) {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	v.value = val
	ls := make([]listener[T], len(v.listeners))
	copy(ls, v.listeners)
	v.mu.Unlock()

	for _, l := range ls {
		l.fn(val)
	}
}

// Subscribe registers fn and calls it immediately with the current value.
// The returned func removes the subscription.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners = append(v.listeners, listener[T]{id: id, fn: fn})
	current := v.value
	v.mu.Unlock()

	fn(current)

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		for i, l := range v.listeners {
			if l.id == id {
				v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
				return
			}
		}
	}
}
