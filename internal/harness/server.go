package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/engine"
	"github.com/roach88/sqlharness/internal/testutil"
	"github.com/roach88/sqlharness/internal/vfs"
)

// State is the lifecycle state of a Server.
type State int

const (
	Unconfigured State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Handler is the engine-side command handler a Server drives.
type Handler interface {
	Execute(ctx context.Context, statement string) error
	FetchAll() ([]string, error)
	Clean() error
	Shutdown() error
}

// HandlerFactory constructs a Handler bound to a configuration.
type HandlerFactory func(c *conf.Configuration) (Handler, error)

// Option configures a Server.
type Option func(*Server)

// WithScratchDir sets the scratch root. Defaults to DefaultScratchDir.
func WithScratchDir(dir string) Option {
	return func(s *Server) { s.builder.ScratchDir = dir }
}

// WithTestPrefix sets the key namespace purged on every configuration pass.
func WithTestPrefix(prefix string) Option {
	return func(s *Server) { s.builder.TestPrefix = prefix }
}

// WithPlatform overrides the GOOS value used for platform quirks.
func WithPlatform(goos string) Option {
	return func(s *Server) { s.builder.Platform = goos }
}

// WithDriver selects the metastore driver forced into the connection URL.
func WithDriver(driver string) Option {
	return func(s *Server) { s.builder.Driver = driver }
}

// WithLogger sets the harness logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithEngineLogger sets the logger handed to the default engine handler.
func WithEngineLogger(l *zap.Logger) Option {
	return func(s *Server) { s.engineLog = l }
}

// WithQuietEngine routes engine logging into a NullSink.
func WithQuietEngine() Option {
	return WithEngineLogger(engine.NewWriterLogger(testutil.NullSink{}, zapcore.DebugLevel))
}

// WithHandlerFactory replaces the engine handler constructor.
func WithHandlerFactory(f HandlerFactory) Option {
	return func(s *Server) { s.factory = f }
}

// WithBaseConfig replaces the source of fresh engine configurations.
// Defaults to conf.New.
func WithBaseConfig(f func() *conf.Configuration) Option {
	return func(s *Server) { s.newBase = f }
}

// WithFs sets the filesystem the scratch directory is reset on. Without it
// the filesystem is resolved from fs.file.impl, the same way the engine does.
func WithFs(fs afero.Fs) Option {
	return func(s *Server) { s.fs = fs }
}

// Server runs an embedded engine for the lifetime of a test.
// It is driven from one goroutine; methods are not safe for concurrent use.
type Server struct {
	settings    map[string]string
	builder     *OverrideBuilder
	interceptor *Interceptor
	newBase     func() *conf.Configuration
	factory     HandlerFactory
	fs          afero.Fs
	resetFs     afero.Fs
	log         *slog.Logger
	engineLog   *zap.Logger

	state   State
	config  *conf.Configuration
	handler Handler
}

// New creates an unconfigured Server. settings is kept by reference: changes
// made to it later are picked up by RefreshConfig and by the next Start.
func New(settings map[string]string, opts ...Option) *Server {
	if settings == nil {
		settings = make(map[string]string)
	}
	s := &Server{
		settings:    settings,
		builder:     NewOverrideBuilder(),
		interceptor: NewInterceptor(nil),
		newBase:     conf.New,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.factory == nil {
		s.factory = s.newEngineHandler
	}
	return s
}

// Start configures and starts the engine. It is a no-op while running.
func (s *Server) Start() error {
	if s.state == Running {
		s.log.Debug("embedded engine already running")
		return nil
	}

	scratch := s.builder.scratchDir()
	s.log.Info("starting embedded engine", "scratch", scratch, "state", s.state)

	c, err := s.builder.Build(s.newBase(), s.settings)
	if err != nil {
		return &ConfigError{Op: "build", Err: err}
	}
	fs, err := s.scratchFs(c)
	if err != nil {
		return &ConfigError{Op: "filesystem", Err: err}
	}
	if err := ResetScratch(fs, scratch); err != nil {
		return err
	}
	s.resetFs = fs
	if err := conf.Validate(c); err != nil {
		return &ConfigError{Op: "validate", Err: err}
	}

	s.interceptor.Install()

	h, err := s.factory(c)
	if err != nil {
		return fmt.Errorf("failed to start engine handler: %w", err)
	}

	s.config, s.handler, s.state = c, h, Running
	return nil
}

// Execute runs one statement and returns its rows. ADD JAR statements are
// skipped and yield no rows. Engine errors are returned unmodified.
func (s *Server) Execute(ctx context.Context, statement string) ([]string, error) {
	if s.state != Running {
		return nil, ErrNotRunning
	}
	if IsAddJar(statement) {
		s.log.Info("skipping ADD JAR in local/embedded mode", "statement", statement)
		return []string{}, nil
	}
	if err := s.handler.Execute(ctx, statement); err != nil {
		return nil, err
	}
	return s.handler.FetchAll()
}

// RefreshConfig purges test-namespace keys from the running configuration
// and reapplies the current settings.
func (s *Server) RefreshConfig() error {
	if s.state != Running {
		return ErrNotRunning
	}
	if err := s.builder.Refresh(s.config, s.settings); err != nil {
		return &ConfigError{Op: "refresh", Err: err}
	}
	return nil
}

// Stop shuts the engine down and removes the scratch directory. It is a
// no-op unless running. The scratch directory is removed even when shutdown
// fails. Only a failed shutdown is reported; cleanup failures are logged.
func (s *Server) Stop() error {
	if s.state != Running {
		return nil
	}
	s.log.Info("stopping embedded engine")

	if err := s.handler.Clean(); err != nil {
		s.log.Warn("engine cleanup failed", "error", err)
	}
	shutErr := s.handler.Shutdown()
	s.handler, s.config, s.state = nil, nil, Stopped

	if err := ResetScratch(s.resetFs, s.builder.scratchDir()); err != nil {
		s.log.Warn("scratch cleanup after shutdown failed", "error", err)
	}
	if shutErr != nil {
		return fmt.Errorf("failed to shut down engine handler: %w", shutErr)
	}
	return nil
}

// State returns the lifecycle state.
func (s *Server) State() State {
	return s.state
}

// Config returns the active configuration, or nil unless running.
func (s *Server) Config() *conf.Configuration {
	return s.config
}

// Settings returns the caller settings map the server was created with.
func (s *Server) Settings() map[string]string {
	return s.settings
}

// ScratchDir returns the scratch root.
func (s *Server) ScratchDir() string {
	return s.builder.scratchDir()
}

// Interceptor returns the session interceptor the server installs.
func (s *Server) Interceptor() *Interceptor {
	return s.interceptor
}

// scratchFs returns the filesystem the scratch tree lives on for c.
func (s *Server) scratchFs(c *conf.Configuration) (afero.Fs, error) {
	if s.fs != nil {
		return s.fs, nil
	}
	return vfs.Open(c)
}

func (s *Server) newEngineHandler(c *conf.Configuration) (Handler, error) {
	var opts []engine.Option
	if s.engineLog != nil {
		opts = append(opts, engine.WithLogger(s.engineLog))
	}
	h, err := engine.New(c, opts...)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// IsAddJar reports whether statement is an ADD JAR directive, ignoring case
// and surrounding or repeated whitespace.
func IsAddJar(statement string) bool {
	s := strings.ToUpper(strings.Join(strings.Fields(engine.Normalize(statement)), " "))
	return strings.HasPrefix(s, "ADD JAR")
}
