package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/session"
	"github.com/roach88/sqlharness/internal/vfs"
)

const defaultScratchPerm = 0o700

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithFs overrides the filesystem otherwise resolved from fs.file.impl.
func WithFs(fs afero.Fs) Option {
	return func(h *Handler) { h.fs = fs }
}

// Handler executes statements against an embedded metastore.
// It is not safe for concurrent use.
type Handler struct {
	conf   *conf.Configuration
	fs     afero.Fs
	db     *sql.DB
	driver string
	log    *zap.Logger

	sess        *session.State
	sessCtx     context.Context
	sessScratch string

	columns []string
	results []string
	closed  bool
}

// New creates a handler bound to c. The handler keeps a reference to c and
// observes later changes to it.
func New(c *conf.Configuration, opts ...Option) (*Handler, error) {
	h := &Handler{conf: c, log: Logger()}
	for _, opt := range opts {
		opt(h)
	}

	if h.fs == nil {
		fs, err := vfs.Open(c)
		if err != nil {
			return nil, &Error{Code: CodeRemoteFS, Message: "cannot resolve filesystem", Err: err}
		}
		h.fs = fs
	}

	perm := scratchPerm(c)
	scratch := c.Get(conf.KeyScratchDir)
	if scratch == "" {
		return nil, fmt.Errorf("%s is not set", conf.KeyScratchDir)
	}
	if err := h.fs.MkdirAll(scratch, perm); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	if wh := c.Get(conf.KeyWarehouseDir); wh != "" {
		if err := h.fs.MkdirAll(wh, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create warehouse directory: %w", err)
		}
	}

	ctx := context.Background()
	db, driver, err := openMetastore(ctx, c.Get(conf.KeyConnectionURL), scratch)
	if err != nil {
		return nil, err
	}
	h.db, h.driver = db, driver

	st := session.New(c)
	sep := c.Get(conf.KeyPathSeparator)
	for _, jar := range c.GetList(conf.KeyBuiltinJars, sep) {
		st.AddResource(session.ResourceJar, jar)
	}
	for _, jar := range c.GetList(conf.KeyAuxJarsPath, sep) {
		st.AddResource(session.ResourceJar, jar)
	}
	for _, jar := range c.GetList(conf.KeyAddedJarsPath, sep) {
		st.AddResource(session.ResourceJar, jar)
	}
	for _, f := range c.GetList(conf.KeyAddedFilesPath, sep) {
		st.AddResource(session.ResourceFile, f)
	}
	for _, a := range c.GetList(conf.KeyAddedArchivesPath, sep) {
		st.AddResource(session.ResourceArchive, a)
	}
	h.sessCtx = session.Current().Set(ctx, st)
	h.sess = st

	h.sessScratch = path.Join(scratch, st.ID)
	if err := h.fs.MkdirAll(h.sessScratch, perm); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create session scratch directory: %w", err)
	}

	h.log.Info("engine handler started",
		zap.String("session", st.ID),
		zap.String("driver", driver),
		zap.Int("resources", st.ResourceCount()))
	return h, nil
}

// Session returns the handler's root session.
func (h *Handler) Session() *session.State {
	return h.sess
}

// Driver returns the metastore driver name.
func (h *Handler) Driver() string {
	return h.driver
}

// Execute runs one statement and buffers its result rows. Any rows left from
// the previous statement are discarded.
func (h *Handler) Execute(ctx context.Context, text string) error {
	if h.closed {
		return ErrClosed
	}
	h.columns, h.results = nil, nil

	if v, ok := h.conf.Lookup(conf.KeyJobTracker); ok {
		return newError(CodeChildExecution, text,
			"%s=%q requests execution in a child process", conf.KeyJobTracker, v)
	}
	if err := vfs.CheckLocal(h.conf); err != nil {
		return &Error{Code: CodeRemoteFS, Message: "cannot execute against a remote filesystem", Statement: text, Err: err}
	}

	stmt, err := parseStatement(text)
	if err != nil {
		return err
	}

	task := h.sess.Derive()
	taskCtx := session.Current().Set(ctx, task)

	type outcome struct {
		columns []string
		rows    []string
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		if err := h.checkResources(taskCtx, text); err != nil {
			done <- outcome{err: err}
			return
		}
		cols, rows, err := h.dispatch(taskCtx, stmt)
		done <- outcome{cols, rows, err}
	}()
	out := <-done
	if out.err != nil {
		h.log.Debug("statement failed", zap.String("statement", stmt.text), zap.Error(out.err))
		return out.err
	}
	h.columns, h.results = out.columns, out.rows
	h.log.Debug("statement executed", zap.String("statement", stmt.text), zap.Int("rows", len(out.rows)))
	return nil
}

// FetchAll returns and clears every buffered row.
func (h *Handler) FetchAll() ([]string, error) {
	if h.closed {
		return nil, ErrClosed
	}
	rows := h.results
	h.results = nil
	if rows == nil {
		rows = []string{}
	}
	return rows, nil
}

// FetchN returns and removes up to n buffered rows.
func (h *Handler) FetchN(n int) ([]string, error) {
	if h.closed {
		return nil, ErrClosed
	}
	if n > len(h.results) {
		n = len(h.results)
	}
	rows := append([]string{}, h.results[:n]...)
	h.results = h.results[n:]
	return rows, nil
}

// Schema returns the column names of the last result.
func (h *Handler) Schema() []string {
	return append([]string(nil), h.columns...)
}

// Clean drops session resources, buffered rows and the session scratch directory.
func (h *Handler) Clean() error {
	if h.closed {
		return ErrClosed
	}
	for _, kind := range []session.ResourceKind{session.ResourceJar, session.ResourceFile, session.ResourceArchive} {
		h.sess.DeleteResources(kind)
	}
	h.columns, h.results = nil, nil
	if err := h.fs.RemoveAll(h.sessScratch); err != nil {
		return fmt.Errorf("failed to remove session scratch directory: %w", err)
	}
	return nil
}

// Shutdown closes the metastore. The handler is unusable afterwards.
func (h *Handler) Shutdown() error {
	if h.closed {
		return ErrClosed
	}
	h.closed = true
	err := h.db.Close()
	h.log.Info("engine handler stopped", zap.String("session", h.sess.ID))
	_ = h.log.Sync()
	if err != nil {
		return fmt.Errorf("failed to close metastore: %w", err)
	}
	return nil
}

func (h *Handler) checkResources(ctx context.Context, text string) error {
	st := session.FromContext(ctx)
	if st == nil {
		return nil
	}
	for _, kind := range []session.ResourceKind{session.ResourceJar, session.ResourceFile, session.ResourceArchive} {
		for _, r := range st.Resources(kind) {
			if _, err := h.fs.Stat(r); err != nil {
				return &Error{Code: CodeMissingResource, Message: fmt.Sprintf("%s resource %s", kind, r), Statement: text, Err: err}
			}
		}
	}
	return nil
}

func (h *Handler) dispatch(ctx context.Context, stmt statement) ([]string, []string, error) {
	switch stmt.kind {
	case stmtSet:
		return h.execSet(stmt)
	case stmtAddResource:
		if _, err := h.fs.Stat(stmt.path); err != nil {
			return nil, nil, &Error{Code: CodeMissingResource, Message: fmt.Sprintf("%s resource %s", stmt.resource, stmt.path), Statement: stmt.text, Err: err}
		}
		h.sess.AddResource(stmt.resource, stmt.path)
		return nil, nil, nil
	case stmtListResources:
		return []string{"resource"}, h.sess.Resources(stmt.resource), nil
	case stmtLoadData:
		return nil, nil, h.loadData(ctx, stmt)
	case stmtShowTables:
		if h.driver == DriverDuckDB {
			return h.query(ctx, stmt.text, stmt.text)
		}
		return h.query(ctx, stmt.text, "SELECT name AS tab_name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	case stmtQuery:
		return h.query(ctx, stmt.text, stmt.text)
	default:
		if _, err := h.db.ExecContext(ctx, stmt.text); err != nil {
			return nil, nil, wrapDriver(stmt.text, err)
		}
		return nil, nil, nil
	}
}

func (h *Handler) execSet(stmt statement) ([]string, []string, error) {
	cols := []string{"set"}
	switch {
	case stmt.key == "":
		var rows []string
		h.conf.Range(func(k, v string) bool {
			rows = append(rows, k+"="+v)
			return true
		})
		return cols, rows, nil
	case stmt.hasValue:
		if err := h.conf.Set(stmt.key, stmt.value); err != nil {
			return nil, nil, &Error{Code: CodeBadStatement, Message: "cannot set key", Statement: stmt.text, Err: err}
		}
		return nil, nil, nil
	default:
		if v, ok := h.conf.Lookup(stmt.key); ok {
			return cols, []string{stmt.key + "=" + v}, nil
		}
		return cols, []string{stmt.key + " is undefined"}, nil
	}
}

func (h *Handler) query(ctx context.Context, original, text string) ([]string, []string, error) {
	rows, err := h.db.QueryContext(ctx, text)
	if err != nil {
		return nil, nil, wrapDriver(original, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, wrapDriver(original, err)
	}
	var out []string
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, wrapDriver(original, err)
		}
		out = append(out, renderRow(values))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, wrapDriver(original, err)
	}
	return cols, out, nil
}

// renderRow joins column values with tabs.
func renderRow(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = renderValue(v)
	}
	return strings.Join(parts, "\t")
}

func renderValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(tv)
	case time.Time:
		if tv.Hour() == 0 && tv.Minute() == 0 && tv.Second() == 0 && tv.Nanosecond() == 0 {
			return tv.Format("2006-01-02")
		}
		return tv.Format("2006-01-02 15:04:05")
	case map[string]any:
		keys := make([]string, 0, len(tv))
		for k := range tv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ":" + renderValue(tv[k])
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []any:
		parts := make([]string, len(tv))
		for i, e := range tv {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func scratchPerm(c *conf.Configuration) os.FileMode {
	v := c.Get(conf.KeyScratchDirPerm)
	if v == "" {
		return defaultScratchPerm
	}
	p, err := strconv.ParseUint(v, 8, 32)
	if err != nil {
		return defaultScratchPerm
	}
	// Owner bits are always set so the engine can populate the directory.
	return os.FileMode(p) | 0o700
}
