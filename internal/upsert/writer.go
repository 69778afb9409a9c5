// Package upsert writes normalized records into the people table, one
// conflict-resolving INSERT per record.
package upsert

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgload/internal/record"
	"github.com/vvka-141/pgload/internal/schema"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Writer upserts records one at a time. There is no batching and no
// transaction spanning the batch: every record commits on its own.
type Writer struct {
	logger pgload.Logger
}

// NewWriter creates a Writer. logger may be nil.
func NewWriter(logger pgload.Logger) *Writer {
	return &Writer{logger: logger}
}

// Write upserts recs into table in slice order. On a conflict against the
// constraint selected by conflictKey (see schema.ConflictConstraint) every
// non-id column is overwritten with the incoming value.
//
// The id column is sent only when a record carries one; otherwise the store
// assigns it, so such records always insert a new row under the surrogate key.
// After a record with an explicit id the id sequence is moved past the
// table's highest id, so a later generated id cannot land on it.
//
// The first failure stops the batch. Records before it stay committed. The
// returned count is the number of records written; the error wraps
// pgload.ErrWrite.
func (w *Writer) Write(ctx context.Context, q pgload.Queryer, table, conflictKey string, columns []string, recs []record.Flat) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	constraint, err := schema.ConflictConstraint(table, conflictKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", pgload.ErrWrite, err)
	}

	cols := make([]schema.Column, 0, len(columns))
	for _, name := range columns {
		c, ok := schema.Lookup(name)
		if !ok {
			return 0, fmt.Errorf("%w: column %q does not exist in table %q", pgload.ErrWrite, name, table)
		}
		cols = append(cols, c)
	}

	statements := make(map[bool]string, 2)
	written := 0

	for i, rec := range recs {
		withID := rec[schema.IDColumn] != nil

		stmtCols := make([]schema.Column, 0, len(cols))
		args := make([]any, 0, len(cols))
		for _, c := range cols {
			if c.Name == schema.IDColumn && !withID {
				continue
			}
			v, err := coerce(c, rec[c.Name])
			if err != nil {
				return written, fmt.Errorf("%w: record %d: column %q: %w", pgload.ErrWrite, i, c.Name, err)
			}
			stmtCols = append(stmtCols, c)
			args = append(args, v)
		}

		stmt, ok := statements[withID]
		if !ok {
			stmt = BuildStatement(table, constraint, stmtCols)
			statements[withID] = stmt
		}

		if _, err := q.Exec(ctx, stmt, args...); err != nil {
			return written, fmt.Errorf("%w: record %d: %w", pgload.ErrWrite, i, err)
		}
		written++
		w.verbose("upserted record %d/%d", i+1, len(recs))

		if withID {
			if _, err := q.Exec(ctx, SyncSequenceStatement(table), pgx.Identifier{table}.Sanitize()); err != nil {
				return written, fmt.Errorf("%w: record %d: sync id sequence: %w", pgload.ErrWrite, i, err)
			}
		}
	}

	return written, nil
}

// SyncSequenceStatement sets the id sequence of table to the highest stored
// id. It takes the quoted table name as $1. A table whose id has no owned
// sequence yields NULL and is left alone.
func SyncSequenceStatement(table string) string {
	ident := pgx.Identifier{table}.Sanitize()
	id := pgx.Identifier{schema.IDColumn}.Sanitize()
	return fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence($1, '%s'), GREATEST((SELECT max(%s) FROM %s), 1))",
		schema.IDColumn, id, ident,
	)
}

// BuildStatement renders the single-row upsert for cols against table.
func BuildStatement(table, constraint string, cols []schema.Column) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(pgx.Identifier{table}.Sanitize())

	if len(cols) == 0 {
		b.WriteString(" DEFAULT VALUES")
	} else {
		names := make([]string, len(cols))
		params := make([]string, len(cols))
		for i, c := range cols {
			names[i] = pgx.Identifier{c.Name}.Sanitize()
			params[i] = fmt.Sprintf("$%d", i+1)
		}
		fmt.Fprintf(&b, " (%s) VALUES (%s)", strings.Join(names, ", "), strings.Join(params, ", "))
	}

	b.WriteString(" ON CONFLICT ON CONSTRAINT ")
	b.WriteString(pgx.Identifier{constraint}.Sanitize())

	var updates []string
	for _, c := range cols {
		if c.Name == schema.IDColumn {
			continue
		}
		ident := pgx.Identifier{c.Name}.Sanitize()
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", ident, ident))
	}
	if len(updates) == 0 {
		b.WriteString(" DO NOTHING")
	} else {
		b.WriteString(" DO UPDATE SET ")
		b.WriteString(strings.Join(updates, ", "))
	}
	return b.String()
}

func (w *Writer) verbose(format string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Verbose(format, args...)
	}
}
