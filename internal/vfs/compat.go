package vfs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Compat adapts a filesystem without POSIX permission semantics. Paths are
// converted to the platform form and permission or ownership changes that
// the underlying filesystem refuses are ignored.
type Compat struct {
	afero.Fs
}

// NewCompat wraps base.
func NewCompat(base afero.Fs) *Compat {
	return &Compat{Fs: base}
}

func (c *Compat) Name() string { return "compat(" + c.Fs.Name() + ")" }

func (c *Compat) Create(name string) (afero.File, error) {
	return c.Fs.Create(filepath.FromSlash(name))
}

func (c *Compat) Mkdir(name string, perm os.FileMode) error {
	return c.Fs.Mkdir(filepath.FromSlash(name), perm)
}

func (c *Compat) MkdirAll(path string, perm os.FileMode) error {
	return c.Fs.MkdirAll(filepath.FromSlash(path), perm)
}

func (c *Compat) Open(name string) (afero.File, error) {
	return c.Fs.Open(filepath.FromSlash(name))
}

func (c *Compat) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	return c.Fs.OpenFile(filepath.FromSlash(name), flag, perm)
}

func (c *Compat) Remove(name string) error {
	return c.Fs.Remove(filepath.FromSlash(name))
}

func (c *Compat) RemoveAll(path string) error {
	return c.Fs.RemoveAll(filepath.FromSlash(path))
}

func (c *Compat) Rename(oldname, newname string) error {
	return c.Fs.Rename(filepath.FromSlash(oldname), filepath.FromSlash(newname))
}

func (c *Compat) Stat(name string) (os.FileInfo, error) {
	return c.Fs.Stat(filepath.FromSlash(name))
}

func (c *Compat) Chmod(name string, mode os.FileMode) error {
	err := c.Fs.Chmod(filepath.FromSlash(name), mode)
	if err != nil && !os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *Compat) Chown(name string, uid, gid int) error {
	err := c.Fs.Chown(filepath.FromSlash(name), uid, gid)
	if err != nil && !os.IsNotExist(err) {
		return nil
	}
	return err
}

func (c *Compat) Chtimes(name string, atime, mtime time.Time) error {
	return c.Fs.Chtimes(filepath.FromSlash(name), atime, mtime)
}
