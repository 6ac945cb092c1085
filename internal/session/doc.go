// Package session tracks per-execution engine state.
//
// A State carries the resources (jars, files, archives) and configuration an
// execution runs with. States travel on contexts: a Registry attaches a State
// to a context, and every goroutine started from that context inherits it,
// which is how derived tasks see their parent's resources.
//
// The registry in effect is process-wide. The engine resolves it through
// Current on every assignment, so a harness can swap it with Install and
// restore the default with Reset. Install and Reset are lifecycle calls; they
// are not meant to race with running executions.
package session
