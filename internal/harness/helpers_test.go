package harness

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/session"
	"github.com/roach88/sqlharness/internal/testutil"
)

// fakeHandler records calls made by a Server.
type fakeHandler struct {
	conf       *conf.Configuration
	statements []string
	rows       []string
	execErr    error
	cleanErr   error
	shutErr    error
	cleaned    int
	shutdown   int
}

func (f *fakeHandler) Execute(_ context.Context, stmt string) error {
	f.statements = append(f.statements, stmt)
	return f.execErr
}

func (f *fakeHandler) FetchAll() ([]string, error) {
	rows := f.rows
	if rows == nil {
		rows = []string{}
	}
	return rows, nil
}

func (f *fakeHandler) Clean() error {
	f.cleaned++
	return f.cleanErr
}

func (f *fakeHandler) Shutdown() error {
	f.shutdown++
	return f.shutErr
}

// fakeFactory hands out fakeHandlers and keeps every one it creates.
type fakeFactory struct {
	handlers []*fakeHandler
	rows     []string
	err      error
}

func (f *fakeFactory) New(c *conf.Configuration) (Handler, error) {
	if f.err != nil {
		return nil, f.err
	}
	h := &fakeHandler{conf: c, rows: f.rows}
	f.handlers = append(f.handlers, h)
	return h, nil
}

func (f *fakeFactory) last() *fakeHandler {
	if len(f.handlers) == 0 {
		return nil
	}
	return f.handlers[len(f.handlers)-1]
}

var errBoom = errors.New("boom")

// scratchRoot returns a scratch directory under the test's temp dir.
func scratchRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "hive")
}

// resetRegistry restores the default session registry when the test ends.
func resetRegistry(t *testing.T) {
	t.Helper()
	t.Cleanup(session.Reset)
}

// quietLogger discards harness log output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testutil.NullSink{}, nil))
}
