package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExecCommand_Statements(t *testing.T) {
	out, _, err := runRoot(t, "exec",
		"CREATE TABLE t (a INTEGER, b TEXT)",
		"INSERT INTO t VALUES (1, 'x'), (2, 'y')",
		"SELECT a, b FROM t ORDER BY a",
	)
	require.NoError(t, err)
	assert.Equal(t, "1\tx\n2\ty\n", out)
}

func TestExecCommand_File(t *testing.T) {
	script := writeFile(t, "script.sql", `
-- setup
CREATE TABLE t (a TEXT);
INSERT INTO t VALUES ('semi;colon');
ADD JAR /opt/es-hadoop.jar;
SELECT a FROM t;
`)
	out, _, err := runRoot(t, "exec", "-f", script)
	require.NoError(t, err)
	assert.Equal(t, "semi;colon\n", out)
}

func TestExecCommand_Settings(t *testing.T) {
	out, _, err := runRoot(t, "--set", "es.resource=artists/data", "exec", "SET es.resource")
	require.NoError(t, err)
	assert.Equal(t, "es.resource=artists/data\n", out)
}

func TestExecCommand_JSON(t *testing.T) {
	out, _, err := runRoot(t, "--format", "json", "exec", "SELECT 1", "ADD JAR /x.jar")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   []StatementOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []StatementOutput{
		{SQL: "SELECT 1", Rows: []string{"1"}},
		{SQL: "ADD JAR /x.jar", Rows: []string{}},
	}, resp.Data)
}

func TestExecCommand_StatementFailure(t *testing.T) {
	out, _, err := runRoot(t, "exec", "SELECT * FROM missing", "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "statement 1 failed")
	assert.Contains(t, out, "Error [DRIVER]")
	assert.NotContains(t, out, "\n1\n")
}

func TestExecCommand_NoStatements(t *testing.T) {
	_, _, err := runRoot(t, "exec")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecCommand_MissingFile(t *testing.T) {
	_, _, err := runRoot(t, "exec", "-f", filepath.Join(t.TempDir(), "nope.sql"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecCommand_RemovesScratch(t *testing.T) {
	scratch := filepath.Join(t.TempDir(), "scratch")
	_, _, err := runRoot(t, "--scratch-dir", scratch, "exec", "CREATE TABLE t (a INTEGER)")
	require.NoError(t, err)

	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err))
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{"single", "SELECT 1", []string{"SELECT 1"}},
		{"trailing semicolon", "SELECT 1;", []string{"SELECT 1"}},
		{"several", "SELECT 1; SELECT 2;\nSELECT 3", []string{"SELECT 1", "SELECT 2", "SELECT 3"}},
		{"quoted semicolons", `SELECT 'a;b'; SELECT "c;d"; SELECT ` + "`e;f`", []string{"SELECT 'a;b'", `SELECT "c;d"`, "SELECT `e;f`"}},
		{"comments", "-- header\nSELECT 1;\n-- footer\n", []string{"SELECT 1"}},
		{"blank", " ; ;\n", nil},
		{"semicolon in comment", "-- create the table; then load it\nCREATE TABLE t (a INT);\nSELECT * FROM t;", []string{"CREATE TABLE t (a INT)", "SELECT * FROM t"}},
		{"trailing comment", "SELECT 1; -- one; two\nSELECT 2", []string{"SELECT 1", "SELECT 2"}},
		{"dashes in quotes", "SELECT '--;x'; SELECT 2", []string{"SELECT '--;x'", "SELECT 2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitStatements(tt.script))
		})
	}
}
