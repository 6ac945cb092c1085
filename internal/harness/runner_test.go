package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlharness/internal/conf"
	"github.com/roach88/sqlharness/internal/engine"
)

func intPtr(n int) *int { return &n }

func TestExpand(t *testing.T) {
	vars := map[string]string{"scratch": "/tmp/hive", "es.nodes": "localhost"}

	assert.Equal(t, "/tmp/hive/x", Expand("${scratch}/x", vars))
	assert.Equal(t, "host=localhost", Expand("host=${es.nodes}", vars))
	assert.Equal(t, "${unknown}", Expand("${unknown}", vars))
	assert.Equal(t, "no refs", Expand("no refs", vars))
}

func TestVariables(t *testing.T) {
	c, err := NewOverrideBuilder().Build(conf.New(), map[string]string{"es.nodes": "n1"})
	require.NoError(t, err)

	vars := Variables(c, "/scenarios")

	assert.Equal(t, "/tmp/hive", vars["scratch"])
	assert.Equal(t, "/tmp/hive/warehouse", vars["warehouse"])
	assert.Equal(t, "/tmp/hive/metastore_db", vars["metastore"])
	assert.Equal(t, "/scenarios", vars["scenario_dir"])
	assert.Equal(t, "n1", vars["es.nodes"])
}

func TestVariables_NilConfig(t *testing.T) {
	vars := Variables(nil, "/d")
	assert.Equal(t, map[string]string{"scenario_dir": "/d"}, vars)
}

func TestCheckStep(t *testing.T) {
	driverErr := &engine.Error{Code: engine.CodeDriver, Message: "no such table: t"}

	tests := []struct {
		name string
		step Step
		rows []string
		err  error
		want int
	}{
		{"no expect ok", Step{SQL: "x"}, nil, nil, 0},
		{"no expect error", Step{SQL: "x"}, nil, driverErr, 1},
		{"error matched", Step{Expect: &Expect{Error: "no such table"}}, nil, driverErr, 0},
		{"error by code", Step{Expect: &Expect{Error: "DRIVER"}}, nil, driverErr, 0},
		{"error mismatch", Step{Expect: &Expect{Error: "syntax"}}, nil, driverErr, 1},
		{"error missing", Step{Expect: &Expect{Error: "boom"}}, []string{"1"}, nil, 1},
		{"rows match", Step{Expect: &Expect{Rows: []string{"a", "b"}}}, []string{"a", "b"}, nil, 0},
		{"rows order", Step{Expect: &Expect{Rows: []string{"a", "b"}}}, []string{"b", "a"}, nil, 1},
		{"empty rows", Step{Expect: &Expect{Rows: []string{}}}, []string{}, nil, 0},
		{"row count", Step{Expect: &Expect{RowCount: intPtr(2)}}, []string{"a", "b"}, nil, 0},
		{"row count and rows wrong", Step{Expect: &Expect{RowCount: intPtr(1), Rows: []string{"a"}}}, []string{"b", "c"}, nil, 2},
		{"unexpected error", Step{Expect: &Expect{RowCount: intPtr(0)}}, nil, driverErr, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, checkStep(tt.step, tt.rows, tt.err), tt.want)
		})
	}
}

func TestErrorLabel(t *testing.T) {
	assert.Empty(t, errorLabel(nil))
	assert.Equal(t, "CHILD_EXECUTION", errorLabel(fmt.Errorf("wrapped: %w", &engine.Error{Code: engine.CodeChildExecution})))
	assert.Equal(t, "ERROR", errorLabel(errBoom))
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "SELECT 1", abbreviate("  SELECT\n  1 "))
	long := "SELECT a, b, c, d, e, f, g FROM some_rather_long_table_name"
	got := abbreviate(long)
	assert.Len(t, got, 40)
	assert.Equal(t, "...", got[37:])

	multi := strings.Repeat("é", 50)
	got = abbreviate(multi)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 37)+"...", got)
}

func TestRunScenario_FakeEngine(t *testing.T) {
	resetRegistry(t)
	f := &fakeFactory{rows: []string{"1"}}

	sc := &Scenario{
		Name:     "fake",
		Settings: map[string]string{"es.nodes": "n1"},
		Steps: []Step{
			{SQL: "ADD JAR ${scratch}/x.jar"},
			{SQL: "SELECT '${es.nodes}'", Expect: &Expect{Rows: []string{"1"}}},
			{SQL: "SELECT 2", Expect: &Expect{Rows: []string{"2"}}},
		},
	}

	result, err := RunScenario(context.Background(), sc,
		WithHandlerFactory(f.New),
		WithScratchDir(scratchRoot(t)),
	)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 3 (SELECT 2)")

	require.Len(t, result.Trace, 3)
	assert.Equal(t, "ADD JAR ${scratch}/x.jar", result.Trace[0].SQL)
	assert.Equal(t, []string{}, result.Trace[0].Rows)
	assert.Equal(t, 3, result.Trace[2].Seq)

	h := f.last()
	require.NotNil(t, h)
	assert.Equal(t, []string{"SELECT 'n1'", "SELECT 2"}, h.statements)
	assert.Equal(t, 1, h.shutdown)
}

func TestRunScenario_DoesNotMutateSettings(t *testing.T) {
	resetRegistry(t)
	f := &fakeFactory{}
	settings := map[string]string{"es.nodes": "n1"}
	sc := &Scenario{Name: "s", Settings: settings, Steps: []Step{{SQL: "SELECT 1"}}}

	_, err := RunScenario(context.Background(), sc, WithHandlerFactory(f.New), WithScratchDir(scratchRoot(t)))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"es.nodes": "n1"}, settings)
}

func TestRunScenario_StartFailure(t *testing.T) {
	resetRegistry(t)
	f := &fakeFactory{err: errBoom}
	sc := &Scenario{Name: "s", Steps: []Step{{SQL: "SELECT 1"}}}

	_, err := RunScenario(context.Background(), sc, WithHandlerFactory(f.New), WithScratchDir(scratchRoot(t)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}

func TestResult(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddStatement("SELECT 1", nil, "")
	r.AddStatement("SELECT 2", []string{"2"}, "DRIVER")
	r.AddError("step 2: nope")

	assert.False(t, r.Pass)
	assert.Equal(t, []StatementTrace{
		{Seq: 1, SQL: "SELECT 1", Rows: []string{}},
		{Seq: 2, SQL: "SELECT 2", Rows: []string{"2"}, Error: "DRIVER"},
	}, r.Trace)
}
