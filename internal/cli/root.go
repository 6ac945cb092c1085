package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/engine"
	"github.com/roach88/sqlharness/internal/harness"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ScratchDir string
	Settings   string            // YAML settings file
	Set        map[string]string // --set key=value overrides
	Driver     string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidDrivers defines the allowed metastore drivers.
var ValidDrivers = []string{engine.DriverSQLite3, engine.DriverSQLite, engine.DriverDuckDB}

// NewRootCommand creates the root command for the sqlharness CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqlharness",
		Short: "Embedded SQL engine test harness",
		Long: `Run SQL statements and scripted scenarios against an in-process engine.

Every run forces a local configuration: a scratch directory that is wiped
before and after, an embedded metastore and no child processes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !slices.Contains(ValidDrivers, opts.Driver) {
				return fmt.Errorf("invalid driver %q: must be one of %v", opts.Driver, ValidDrivers)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ScratchDir, "scratch-dir", harness.DefaultScratchDir, "scratch root, wiped on start and stop")
	cmd.PersistentFlags().StringVar(&opts.Settings, "settings", "", "YAML file of engine settings")
	cmd.PersistentFlags().StringToStringVar(&opts.Set, "set", nil, "engine setting key=value (repeatable)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", engine.DriverSQLite3, "metastore driver (sqlite3|sqlite|duckdb)")

	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// loadSettings merges the settings file with --set overrides.
func (o *RootOptions) loadSettings() (map[string]string, error) {
	base := map[string]string{}
	if o.Settings != "" {
		s, err := conf.LoadSettings(o.Settings)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load settings", err)
		}
		base = s
	}
	return conf.MergeSettings(base, o.Set), nil
}

// logger returns the harness logger; --verbose lowers the level to debug.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// harnessOptions translates global flags into harness options.
func (o *RootOptions) harnessOptions(errOut io.Writer) []harness.Option {
	opts := []harness.Option{
		harness.WithScratchDir(o.ScratchDir),
		harness.WithDriver(o.Driver),
		harness.WithLogger(o.logger(errOut)),
	}
	if o.Verbose {
		opts = append(opts, harness.WithEngineLogger(engine.NewWriterLogger(errOut, zapcore.DebugLevel)))
	} else {
		opts = append(opts, harness.WithQuietEngine())
	}
	return opts
}
