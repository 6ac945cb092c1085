// Package conf holds the embedded engine's configuration object.
//
// A Configuration is a mutable string-to-string map layered over the engine
// defaults shipped in engine-defaults.yaml. The defaults describe a
// distributed deployment (remote filesystem, job tracker, shared warehouse);
// the harness rewrites the keys that matter before the engine ever sees them.
//
// # Public surface vs. low-level hook
//
// Set and Unset are the public accessors. Unset never makes a defaulted key
// disappear: it reverts the key to its default, the same way a reloaded
// configuration would. Some engine decisions depend on a key being absent
// rather than set to any particular value, so Properties exposes the live
// backing map as an explicit low-level override hook. Code that deletes
// through Properties owns the consequences.
//
// A Configuration is not safe for concurrent use.
package conf
