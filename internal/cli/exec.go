package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sqlharness/internal/harness"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	File string // script file, split on ';'
}

// StatementOutput is the JSON form of one executed statement.
type StatementOutput struct {
	SQL  string   `json:"sql"`
	Rows []string `json:"rows"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec [statement...]",
		Short: "Execute statements against a fresh embedded engine",
		Long: `Start the embedded engine, execute statements and stop it again.

Each argument is one statement. A script given with -f is split on ';'
outside quotes and runs after the arguments. Execution stops at the first
failing statement.

Exit codes:
  0 - All statements succeeded
  1 - A statement failed
  2 - Command error (no statements, unreadable script, harness cannot start)

Examples:
  sqlharness exec "CREATE TABLE t (a INT)" "SELECT * FROM t"
  sqlharness exec -f ./script.sql --set es.resource=artists/data
  sqlharness exec -f ./script.sql --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "script file to execute")

	return cmd
}

func runExec(opts *ExecOptions, args []string, cmd *cobra.Command) error {
	statements := append([]string{}, args...)
	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read script", err)
		}
		statements = append(statements, SplitStatements(string(data))...)
	}
	if len(statements) == 0 {
		return NewExitError(ExitCommandError, "no statements given")
	}

	settings, err := opts.loadSettings()
	if err != nil {
		return err
	}

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	srv := harness.New(settings, opts.harnessOptions(cmd.ErrOrStderr())...)
	if err := srv.Start(); err != nil {
		_ = out.Error(errorCode(err), "failed to start embedded engine", err.Error())
		return WrapExitError(ExitCommandError, "failed to start embedded engine", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			out.VerboseLog("stop failed: %v", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]StatementOutput, 0, len(statements))
	for i, stmt := range statements {
		out.VerboseLog("[%d] %s", i+1, stmt)
		rows, err := srv.Execute(ctx, stmt)
		if err != nil {
			_ = out.Error(errorCode(err), err.Error(), map[string]any{"statement": stmt, "index": i + 1})
			return WrapExitError(ExitFailure, fmt.Sprintf("statement %d failed", i+1), err)
		}
		if opts.Format == "json" {
			results = append(results, StatementOutput{SQL: stmt, Rows: rows})
			continue
		}
		out.Rows(rows)
	}

	if opts.Format == "json" {
		return out.Success(results)
	}
	return nil
}

// SplitStatements splits a script on ';' outside single quotes, double
// quotes, backticks and "--" comments. Comments run to end of line and are
// dropped along with blank statements.
func SplitStatements(script string) []string {
	var (
		stmts   []string
		cur     strings.Builder
		quote   rune
		comment bool
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case comment:
			if r != '\n' {
				continue
			}
			comment = false
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '-' && i+1 < len(runes) && runes[i+1] == '-':
			comment = true
			i++
			continue
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == ';':
			flush()
			continue
		}
		cur.WriteRune(r)
	}
	flush()
	return stmts
}
