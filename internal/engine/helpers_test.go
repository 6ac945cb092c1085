package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/session"
)

// testConfig returns a local-execution configuration rooted in a temp dir.
func testConfig(t *testing.T) *conf.Configuration {
	t.Helper()
	root := t.TempDir()
	return conf.NewFrom(map[string]string{
		conf.KeyScratchDir:     root,
		conf.KeyScratchDirPerm: "650",
		conf.KeyWarehouseDir:   filepath.Join(root, "warehouse"),
		conf.KeyMetastoreDir:   filepath.Join(root, "metastore_db"),
		conf.KeyConnectionURL:  "sqlite3:" + filepath.Join(root, "metastore_db", "metastore.db"),
		conf.KeyDefaultFS:      conf.LocalFS,
		conf.KeyFileImpl:       "local",
		conf.KeyPathSeparator:  ":",
		conf.KeyFieldDelimiter: "\t",
	})
}

// createTestHandler opens a handler and shuts it down at cleanup.
func createTestHandler(t *testing.T, c *conf.Configuration) *Handler {
	t.Helper()
	h, err := New(c)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Shutdown() })
	return h
}

// mustExec executes stmt and returns the fetched rows.
func mustExec(t *testing.T, h *Handler, stmt string) []string {
	t.Helper()
	require.NoError(t, h.Execute(context.Background(), stmt))
	rows, err := h.FetchAll()
	require.NoError(t, err)
	return rows
}

// jarStripper removes jars on assignment, like the harness interceptor.
type jarStripper struct {
	session.Inheritable
}

func (j jarStripper) Set(ctx context.Context, st *session.State) context.Context {
	st.DeleteResources(session.ResourceJar)
	return j.Inheritable.Set(ctx, st)
}
