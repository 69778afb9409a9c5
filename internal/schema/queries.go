package schema

// SQL used to inspect constraint state. Parameters are bound, identifiers in
// DDL are quoted with pgx.Identifier at the call site.
const (
	// queryConstraintExists reports whether a named constraint exists on a table
	// in the current schema.
	// Parameters: $1 table name, $2 constraint name
	queryConstraintExists = `
		SELECT EXISTS(
			SELECT 1
			FROM information_schema.table_constraints
			WHERE table_schema = current_schema()
			  AND table_name = $1
			  AND constraint_name = $2
		)
	`

	// queryPrimaryKeyName returns the name of the table's primary-key
	// constraint, if it has one under any name.
	// Parameter: $1 table name
	queryPrimaryKeyName = `
		SELECT constraint_name
		FROM information_schema.table_constraints
		WHERE table_schema = current_schema()
		  AND table_name = $1
		  AND constraint_type = 'PRIMARY KEY'
	`
)
