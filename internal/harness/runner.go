package harness

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/engine"
)

var variableRe = regexp.MustCompile(`\$\{([A-Za-z0-9_.\-]+)\}`)

// RunScenario starts a fresh server with the scenario's settings, runs every
// step and stops the server. Expectation failures are reported in the
// Result; the returned error is reserved for harness failures.
func RunScenario(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	srv := New(copySettings(scenario.Settings), opts...)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("failed to start harness: %w", err)
	}
	defer func() {
		if err := srv.Stop(); err != nil {
			srv.log.Warn("failed to stop harness", "scenario", scenario.Name, "error", err)
		}
	}()

	result := NewResult()
	for i, step := range scenario.Steps {
		text := Expand(step.SQL, Variables(srv.Config(), scenario.Dir))
		rows, err := srv.Execute(ctx, text)
		result.AddStatement(step.SQL, rows, errorLabel(err))
		for _, msg := range checkStep(step, rows, err) {
			result.AddError(fmt.Sprintf("step %d (%s): %s", i+1, abbreviate(step.SQL), msg))
		}
	}
	return result, nil
}

// Variables returns the values ${name} references expand to: scratch,
// warehouse, metastore, scenario_dir, plus every configuration key.
func Variables(c *conf.Configuration, scenarioDir string) map[string]string {
	vars := make(map[string]string)
	if c != nil {
		c.Range(func(k, v string) bool {
			vars[k] = v
			return true
		})
		vars["scratch"] = c.Get(conf.KeyScratchDir)
		vars["warehouse"] = c.Get(conf.KeyWarehouseDir)
		vars["metastore"] = c.Get(conf.KeyMetastoreDir)
	}
	vars["scenario_dir"] = scenarioDir
	return vars
}

// Expand replaces ${name} references found in vars. Unknown references are
// left as written.
func Expand(text string, vars map[string]string) string {
	return variableRe.ReplaceAllStringFunc(text, func(ref string) string {
		name := ref[2 : len(ref)-1]
		if v, ok := vars[name]; ok {
			return v
		}
		return ref
	})
}

func checkStep(step Step, rows []string, err error) []string {
	exp := step.Expect
	if exp == nil {
		if err != nil {
			return []string{fmt.Sprintf("unexpected error: %v", err)}
		}
		return nil
	}

	if exp.Error != "" {
		if err == nil {
			return []string{fmt.Sprintf("expected error containing %q, got %d rows", exp.Error, len(rows))}
		}
		if !strings.Contains(err.Error(), exp.Error) {
			return []string{fmt.Sprintf("expected error containing %q, got: %v", exp.Error, err)}
		}
		return nil
	}
	if err != nil {
		return []string{fmt.Sprintf("unexpected error: %v", err)}
	}

	var msgs []string
	if exp.RowCount != nil && len(rows) != *exp.RowCount {
		msgs = append(msgs, fmt.Sprintf("expected %d rows, got %d", *exp.RowCount, len(rows)))
	}
	if exp.Rows != nil && !slices.Equal(exp.Rows, rows) {
		msgs = append(msgs, fmt.Sprintf("rows mismatch:\n  want %q\n  got  %q", exp.Rows, rows))
	}
	return msgs
}

// errorLabel renders err without run-specific detail such as paths.
func errorLabel(err error) string {
	if err == nil {
		return ""
	}
	var ee *engine.Error
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return "ERROR"
}

func abbreviate(sql string) string {
	s := strings.Join(strings.Fields(sql), " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}

func copySettings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
