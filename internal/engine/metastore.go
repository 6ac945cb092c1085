package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Metastore drivers, keyed by the scheme of the connection URL.
const (
	DriverSQLite3 = "sqlite3" // cgo SQLite
	DriverSQLite  = "sqlite"  // pure-Go SQLite
	DriverDuckDB  = "duckdb"
)

// ParseConnectionURL splits "<driver>:<dsn>" and checks the driver is known.
func ParseConnectionURL(raw string) (driver, dsn string, err error) {
	driver, dsn, ok := strings.Cut(raw, ":")
	if !ok || dsn == "" {
		return "", "", fmt.Errorf("connection URL %q: want <driver>:<dsn>", raw)
	}
	switch driver {
	case DriverSQLite3, DriverSQLite, DriverDuckDB:
		return driver, dsn, nil
	}
	return "", "", fmt.Errorf("connection URL %q: unsupported driver %q", raw, driver)
}

// openMetastore opens the database behind the connection URL and applies the
// per-driver session settings. scratchDir is handed to drivers that spill to
// disk.
func openMetastore(ctx context.Context, rawURL, scratchDir string) (*sql.DB, string, error) {
	driver, dsn, err := ParseConnectionURL(rawURL)
	if err != nil {
		return nil, "", err
	}

	if path := dsnPath(dsn); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, "", fmt.Errorf("failed to create metastore directory: %w", err)
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open metastore: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to connect to metastore: %w", err)
	}

	// One connection: statements run one at a time and in-memory databases
	// must not be split across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applySettings(ctx, db, driver, scratchDir); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to apply metastore settings: %w", err)
	}
	return db, driver, nil
}

func applySettings(ctx context.Context, db *sql.DB, driver, scratchDir string) error {
	var stmts []string
	switch driver {
	case DriverSQLite3, DriverSQLite:
		stmts = []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		}
	case DriverDuckDB:
		if scratchDir != "" {
			stmts = append(stmts, fmt.Sprintf("SET temp_directory = '%s'", strings.ReplaceAll(scratchDir, "'", "''")))
		}
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("failed to execute %q: %w", s, err)
		}
	}
	return nil
}

// dsnPath extracts the on-disk path of a DSN, or "" for in-memory databases.
func dsnPath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" || strings.HasPrefix(p, ":memory:") {
		return ""
	}
	return p
}
