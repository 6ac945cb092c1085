// Package vfs selects the filesystem implementation the engine and harness
// work against. Implementations are afero filesystems registered by name and
// chosen with the fs.file.impl configuration key.
package vfs

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/roach88/sqlharness/internal/conf"
)

// Implementation names understood out of the box.
const (
	ImplLocal  = "local"
	ImplCompat = "compat"
	ImplMem    = "mem"
)

// ErrRemoteFS is returned when the default filesystem is not file-based.
var ErrRemoteFS = errors.New("default filesystem is not local")

// Factory builds a filesystem from the active configuration.
type Factory func(c *conf.Configuration) (afero.Fs, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		ImplLocal:  func(*conf.Configuration) (afero.Fs, error) { return afero.NewOsFs(), nil },
		ImplCompat: func(*conf.Configuration) (afero.Fs, error) { return NewCompat(afero.NewOsFs()), nil },
		ImplMem:    newSharedMem,
	}

	memOnce sync.Once
	memFs   afero.Fs
)

// Register adds or replaces a named implementation.
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Names returns the registered implementation names.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open resolves the filesystem for c. An empty fs.file.impl means local.
func Open(c *conf.Configuration) (afero.Fs, error) {
	if err := CheckLocal(c); err != nil {
		return nil, err
	}
	name := c.Get(conf.KeyFileImpl)
	if name == "" {
		name = ImplLocal
	}
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown filesystem implementation %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return f(c)
}

// CheckLocal fails unless fs.default.name is absent or uses the file scheme.
func CheckLocal(c *conf.Configuration) error {
	raw, ok := c.Lookup(conf.KeyDefaultFS)
	if !ok || raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrRemoteFS, raw, err)
	}
	if u.Scheme != "file" {
		return fmt.Errorf("%w: %s", ErrRemoteFS, raw)
	}
	return nil
}

// newSharedMem returns one in-memory filesystem per process so that the
// harness and the engine observe the same tree.
func newSharedMem(*conf.Configuration) (afero.Fs, error) {
	memOnce.Do(func() { memFs = afero.NewMemMapFs() })
	return memFs, nil
}
