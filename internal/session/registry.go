package session

import (
	"context"
	"sync"
)

// Registry assigns States to execution contexts.
type Registry interface {
	// Set returns a context carrying st.
	Set(ctx context.Context, st *State) context.Context
	// Get returns the State carried by ctx, or nil.
	Get(ctx context.Context) *State
}

type stateKey struct{}

// Inheritable is the default Registry. States are stored as context values,
// so contexts derived from an assigned one inherit its State.
type Inheritable struct{}

func (Inheritable) Set(ctx context.Context, st *State) context.Context {
	return context.WithValue(ctx, stateKey{}, st)
}

func (Inheritable) Get(ctx context.Context) *State {
	st, _ := ctx.Value(stateKey{}).(*State)
	return st
}

var (
	mu        sync.RWMutex
	current   Registry = Inheritable{}
	installed bool
)

// Current returns the process-wide registry.
func Current() Registry {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Install replaces the process-wide registry. Installing again replaces the
// previous one; a nil registry restores the default.
func Install(r Registry) {
	mu.Lock()
	defer mu.Unlock()
	if r == nil {
		current, installed = Inheritable{}, false
		return
	}
	current, installed = r, true
}

// Reset restores the default registry.
func Reset() {
	Install(nil)
}

// Installed reports whether a non-default registry is in effect.
func Installed() bool {
	mu.RLock()
	defer mu.RUnlock()
	return installed
}

// FromContext returns the State carried by ctx under the current registry.
func FromContext(ctx context.Context) *State {
	return Current().Get(ctx)
}
