package schema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/internal/schema"
	testhelpers "github.com/vvka-141/pgload/internal/testing"
)

const countPrimaryKeys = `
	SELECT count(*), coalesce(max(constraint_name), '')
	FROM information_schema.table_constraints
	WHERE table_schema = current_schema()
	  AND table_name = $1
	  AND constraint_type = 'PRIMARY KEY'
`

func TestEnsure_TwiceLeavesOnePrimaryKey(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	ctx := context.Background()

	testhelpers.CreateTestDB(t, connString, "pgload_test_ensure_twice")
	pool := testhelpers.GetTestPool(t, connString, "pgload_test_ensure_twice")
	conn := db.NewPoolAdapter(pool)

	e := schema.NewEnsurer(nil)
	require.NoError(t, e.Ensure(ctx, conn, "people", ""))
	require.NoError(t, e.Ensure(ctx, conn, "people", ""))

	var count int
	var name string
	require.NoError(t, pool.QueryRow(ctx, countPrimaryKeys, "people").Scan(&count, &name))
	assert.Equal(t, 1, count)
	assert.Equal(t, "pk_people_id", name)

	var columns int
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT count(*) FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'people'`).Scan(&columns))
	assert.Equal(t, len(schema.Columns), columns)
}

func TestEnsure_RepairsForeignTables(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	ctx := context.Background()

	testhelpers.CreateTestDB(t, connString, "pgload_test_ensure_repair")
	pool := testhelpers.GetTestPool(t, connString, "pgload_test_ensure_repair")
	conn := db.NewPoolAdapter(pool)

	_, err := pool.Exec(ctx, `CREATE TABLE default_pk (id SERIAL PRIMARY KEY, nome VARCHAR(255))`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `CREATE TABLE no_pk (id SERIAL, nome VARCHAR(255))`)
	require.NoError(t, err)

	e := schema.NewEnsurer(nil)
	for _, table := range []string{"default_pk", "no_pk"} {
		t.Run(table, func(t *testing.T) {
			require.NoError(t, e.Ensure(ctx, conn, table, ""))

			var count int
			var name string
			require.NoError(t, pool.QueryRow(ctx, countPrimaryKeys, table).Scan(&count, &name))
			assert.Equal(t, 1, count)
			assert.Equal(t, "pk_"+table+"_id", name)
		})
	}
}

func TestEnsure_NaturalKey(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	ctx := context.Background()

	testhelpers.CreateTestDB(t, connString, "pgload_test_ensure_natural")
	pool := testhelpers.GetTestPool(t, connString, "pgload_test_ensure_natural")
	conn := db.NewPoolAdapter(pool)

	e := schema.NewEnsurer(nil)
	require.NoError(t, e.Ensure(ctx, conn, "people", "email"))
	require.NoError(t, e.Ensure(ctx, conn, "people", "email"))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `
		SELECT count(*) FROM information_schema.table_constraints
		WHERE table_schema = current_schema() AND table_name = 'people'
		  AND constraint_type = 'UNIQUE' AND constraint_name = 'uq_people_email'`).Scan(&count))
	assert.Equal(t, 1, count)
}
