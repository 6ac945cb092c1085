package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/roach88/sqlharness/internal/conf"
)

// nullMarker is the text form of NULL in delimited data files.
const nullMarker = `\N`

// loadData copies the input file into the table's warehouse directory and
// inserts its delimited records into the table.
func (h *Handler) loadData(ctx context.Context, stmt statement) error {
	src := h.fs
	if stmt.local {
		src = afero.NewOsFs()
	}
	inPath := strings.TrimPrefix(stmt.path, "file://")

	info, err := src.Stat(inPath)
	if err != nil {
		return &Error{Code: CodeBadStatement, Message: "input path not found", Statement: stmt.text, Err: err}
	}
	if info.IsDir() {
		return newError(CodeBadStatement, stmt.text, "input path %s is a directory", inPath)
	}

	// The input is read before the table directory is touched; it may live there.
	data, err := afero.ReadFile(src, inPath)
	if err != nil {
		return &Error{Code: CodeBadStatement, Message: "cannot read input", Statement: stmt.text, Err: err}
	}
	records, err := h.parseRecords(data)
	if err != nil {
		return &Error{Code: CodeBadStatement, Message: "cannot read input", Statement: stmt.text, Err: err}
	}

	tableDir := path.Join(h.conf.Get(conf.KeyWarehouseDir), strings.ToLower(stmt.table))
	if stmt.overwrite {
		if err := h.fs.RemoveAll(tableDir); err != nil {
			return fmt.Errorf("failed to clear table directory: %w", err)
		}
	}
	if err := h.fs.MkdirAll(tableDir, 0o755); err != nil {
		return fmt.Errorf("failed to create table directory: %w", err)
	}
	dest := path.Join(tableDir, path.Base(inPath))
	if stmt.local || stmt.overwrite || path.Clean(inPath) != dest {
		if err := afero.WriteFile(h.fs, dest, data, 0o644); err != nil {
			return fmt.Errorf("failed to stage input: %w", err)
		}
	}

	width, err := h.tableWidth(ctx, stmt.table)
	if err != nil {
		return wrapDriver(stmt.text, err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapDriver(stmt.text, err)
	}
	defer tx.Rollback()

	if stmt.overwrite {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+stmt.table); err != nil {
			return wrapDriver(stmt.text, err)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", width), ", ")
	ins, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", stmt.table, placeholders))
	if err != nil {
		return wrapDriver(stmt.text, err)
	}
	defer ins.Close()

	args := make([]any, width)
	for _, rec := range records {
		for i := range args {
			args[i] = nil
			if i < len(rec) && rec[i] != nullMarker {
				args[i] = rec[i]
			}
		}
		if _, err := ins.ExecContext(ctx, args...); err != nil {
			return wrapDriver(stmt.text, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return wrapDriver(stmt.text, err)
	}
	return nil
}

func (h *Handler) parseRecords(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = fieldDelimiter(h.conf)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = false

	var out [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func (h *Handler) tableWidth(ctx context.Context, table string) (int, error) {
	rows, err := h.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT 0", table))
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("table %s has no columns", table)
	}
	return len(cols), nil
}

func fieldDelimiter(c *conf.Configuration) rune {
	d := c.Get(conf.KeyFieldDelimiter)
	if d == `\t` {
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(d)
	if r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return '\t'
	}
	return r
}
