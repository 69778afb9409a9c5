package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// Ensurer guarantees the canonical table and its constraints exist before
// any write. Stateless; it only issues DDL when something is missing.
type Ensurer struct {
	logger pgload.Logger
}

// NewEnsurer creates an Ensurer. logger may be nil.
func NewEnsurer(logger pgload.Logger) *Ensurer {
	return &Ensurer{logger: logger}
}

// Ensure creates table if it does not exist and makes sure it carries exactly
// one primary key named pk_<table>_id. A table left behind by an earlier run
// or another process may lack the key, or carry it under the default
// <table>_pkey name; both are repaired. When conflictKey names a natural key
// column, its unique constraint is ensured as well.
//
// All failures wrap pgload.ErrSchema.
func (e *Ensurer) Ensure(ctx context.Context, q pgload.Queryer, table, conflictKey string) error {
	if err := pgload.ValidateIdentifier(table); err != nil {
		return fmt.Errorf("%w: %w", pgload.ErrSchema, err)
	}

	if _, err := q.Exec(ctx, CreateTableSQL(table)); err != nil {
		return fmt.Errorf("%w: create table %q: %w", pgload.ErrSchema, table, err)
	}

	if err := e.ensurePrimaryKey(ctx, q, table); err != nil {
		return err
	}

	if conflictKey != "" && conflictKey != IDColumn {
		if err := e.ensureUniqueKey(ctx, q, table, conflictKey); err != nil {
			return err
		}
	}
	return nil
}

func (e *Ensurer) ensurePrimaryKey(ctx context.Context, q pgload.Queryer, table string) error {
	want := PrimaryKeyName(table)

	exists, err := constraintExists(ctx, q, table, want)
	if err != nil {
		return err
	}
	if exists {
		e.verbose("table %q already has primary key %q", table, want)
		return nil
	}

	var current string
	err = q.QueryRow(ctx, queryPrimaryKeyName, table).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
			pgx.Identifier{table}.Sanitize(),
			pgx.Identifier{want}.Sanitize(),
			pgx.Identifier{IDColumn}.Sanitize())
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: add primary key %q: %w", pgload.ErrSchema, want, err)
		}
		e.verbose("added primary key %q to table %q", want, table)
		return nil

	case err != nil:
		return fmt.Errorf("%w: look up primary key of %q: %w", pgload.ErrSchema, table, err)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s RENAME CONSTRAINT %s TO %s",
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{current}.Sanitize(),
		pgx.Identifier{want}.Sanitize())
	if _, err := q.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("%w: rename primary key %q to %q: %w", pgload.ErrSchema, current, want, err)
	}
	e.verbose("renamed primary key %q of table %q to %q", current, table, want)
	return nil
}

func (e *Ensurer) ensureUniqueKey(ctx context.Context, q pgload.Queryer, table, column string) error {
	name, err := ConflictConstraint(table, column)
	if err != nil {
		return fmt.Errorf("%w: %w", pgload.ErrSchema, err)
	}

	exists, err := constraintExists(ctx, q, table, name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s)",
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{name}.Sanitize(),
		pgx.Identifier{column}.Sanitize())
	if _, err := q.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("%w: add unique constraint %q: %w", pgload.ErrSchema, name, err)
	}
	e.verbose("added unique constraint %q on %q.%q", name, table, column)
	return nil
}

func constraintExists(ctx context.Context, q pgload.Queryer, table, name string) (bool, error) {
	var exists bool
	if err := q.QueryRow(ctx, queryConstraintExists, table, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: check constraint %q: %w", pgload.ErrSchema, name, err)
	}
	return exists, nil
}

func (e *Ensurer) verbose(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Verbose(format, args...)
	}
}
