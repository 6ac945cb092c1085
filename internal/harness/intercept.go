package harness

import (
	"context"
	"sync/atomic"

	"github.com/roach88/sqlharness/internal/session"
)

// Interceptor is a session registry that strips engine-bundled jars from
// every State before it is assigned. Bundled jars point at engine install
// paths that do not exist inside a test process.
type Interceptor struct {
	base     session.Registry
	stripped atomic.Int64
}

// NewInterceptor wraps base, or the default inheritable registry if base is nil.
func NewInterceptor(base session.Registry) *Interceptor {
	if base == nil {
		base = session.Inheritable{}
	}
	return &Interceptor{base: base}
}

// Set strips jar resources from st, then stores it through the wrapped registry.
func (i *Interceptor) Set(ctx context.Context, st *session.State) context.Context {
	if st != nil {
		i.stripped.Add(int64(st.DeleteResources(session.ResourceJar)))
	}
	return i.base.Set(ctx, st)
}

// Get returns the state stored in ctx by the wrapped registry.
func (i *Interceptor) Get(ctx context.Context) *session.State {
	return i.base.Get(ctx)
}

// Install makes i the process-wide registry. Installing again is harmless.
func (i *Interceptor) Install() {
	session.Install(i)
}

// Reset restores the default process-wide registry.
func (i *Interceptor) Reset() {
	session.Reset()
}

// Stripped returns how many jar resources i has removed so far.
func (i *Interceptor) Stripped() int64 {
	return i.stripped.Load()
}
