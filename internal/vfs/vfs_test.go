package vfs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlharness/internal/conf"
)

func TestOpen_SelectsImplementation(t *testing.T) {
	tests := []struct {
		impl string
		want any
	}{
		{"", &afero.OsFs{}},
		{ImplLocal, &afero.OsFs{}},
		{ImplCompat, &Compat{}},
		{ImplMem, &afero.MemMapFs{}},
	}
	for _, tt := range tests {
		t.Run(tt.impl, func(t *testing.T) {
			c := conf.NewFrom(map[string]string{conf.KeyFileImpl: tt.impl, conf.KeyDefaultFS: conf.LocalFS})
			fs, err := Open(c)
			require.NoError(t, err)
			assert.IsType(t, tt.want, fs)
		})
	}
}

func TestOpen_UnknownImplementation(t *testing.T) {
	c := conf.NewFrom(map[string]string{conf.KeyFileImpl: "ntfs"})
	_, err := Open(c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ntfs")
}

func TestOpen_RejectsRemoteDefaultFS(t *testing.T) {
	c := conf.NewFrom(map[string]string{conf.KeyDefaultFS: "hdfs://localhost:8020"})
	_, err := Open(c)
	assert.ErrorIs(t, err, ErrRemoteFS)
}

func TestCheckLocal(t *testing.T) {
	assert.NoError(t, CheckLocal(conf.NewFrom(nil)))
	assert.NoError(t, CheckLocal(conf.NewFrom(map[string]string{conf.KeyDefaultFS: "file:///"})))
	assert.ErrorIs(t, CheckLocal(conf.NewFrom(map[string]string{conf.KeyDefaultFS: "s3://bucket"})), ErrRemoteFS)
}

func TestRegister(t *testing.T) {
	called := false
	Register("test-fs", func(*conf.Configuration) (afero.Fs, error) {
		called = true
		return afero.NewMemMapFs(), nil
	})
	t.Cleanup(func() {
		mu.Lock()
		delete(factories, "test-fs")
		mu.Unlock()
	})

	assert.Contains(t, Names(), "test-fs")
	_, err := Open(conf.NewFrom(map[string]string{conf.KeyFileImpl: "test-fs"}))
	require.NoError(t, err)
	assert.True(t, called)
}

func TestMem_IsSharedAcrossOpens(t *testing.T) {
	c := conf.NewFrom(map[string]string{conf.KeyFileImpl: ImplMem})
	a, err := Open(c)
	require.NoError(t, err)
	b, err := Open(c)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(a, "/shared/x", []byte("x"), 0o644))
	ok, err := afero.Exists(b, "/shared/x")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, a.RemoveAll("/shared"))
}

type refusingChmod struct {
	afero.Fs
}

func (refusingChmod) Chmod(string, os.FileMode) error {
	return &os.PathError{Op: "chmod", Err: errors.New("operation not supported")}
}

func TestCompat_IgnoresPermissionFailures(t *testing.T) {
	fs := NewCompat(refusingChmod{afero.NewMemMapFs()})
	require.NoError(t, afero.WriteFile(fs, "/dir/f", []byte("data"), 0o644))

	assert.NoError(t, fs.Chmod("/dir/f", 0o650))
	assert.Contains(t, fs.Name(), "compat")
}

func TestCompat_RoundTripsOnDisk(t *testing.T) {
	root := filepath.ToSlash(t.TempDir())
	fs := NewCompat(afero.NewOsFs())

	require.NoError(t, fs.MkdirAll(root+"/a/b", 0o755))
	require.NoError(t, afero.WriteFile(fs, root+"/a/b/c.txt", []byte("hi"), 0o644))
	require.NoError(t, fs.Rename(root+"/a/b/c.txt", root+"/a/c.txt"))

	data, err := afero.ReadFile(fs, root+"/a/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	require.NoError(t, fs.RemoveAll(root+"/a"))
	_, err = fs.Stat(root + "/a")
	assert.True(t, os.IsNotExist(err))
}
