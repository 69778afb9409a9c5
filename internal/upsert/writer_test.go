package upsert

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgload/internal/record"
	"github.com/vvka-141/pgload/internal/schema"
	"github.com/vvka-141/pgload/pkg/pgload"
)

type execCall struct {
	sql  string
	args []any
}

// mockQueryer is a test double for pgload.Queryer
type mockQueryer struct {
	execFunc func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	calls    []execCall
}

func (m *mockQueryer) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.calls = append(m.calls, execCall{sql: sql, args: args})
	if m.execFunc != nil {
		return m.execFunc(ctx, sql, args...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockQueryer) QueryRow(ctx context.Context, sql string, args ...any) pgload.Row {
	panic("QueryRow not expected")
}

var anaColumns = []string{
	"nome", "idade", "email", "telefone",
	"endereco_logradouro", "endereco_numero", "endereco_bairro",
	"endereco_cidade", "endereco_estado", "endereco_cep",
}

func ana() record.Flat {
	return record.Flat{
		"nome":                "Ana",
		"idade":               json.Number("30"),
		"email":               "ana@x.com",
		"telefone":            "11999999999",
		"endereco_logradouro": "Rua A",
		"endereco_numero":     json.Number("100"),
		"endereco_bairro":     "Centro",
		"endereco_cidade":     "São Paulo",
		"endereco_estado":     "SP",
		"endereco_cep":        "01000-000",
	}
}

func TestWrite_OneStatementPerRecord(t *testing.T) {
	q := &mockQueryer{}
	w := NewWriter(nil)

	bruno := ana()
	bruno["nome"] = "Bruno"
	n, err := w.Write(context.Background(), q, "people", "", anaColumns, []record.Flat{ana(), bruno})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, q.calls, 2)
	assert.Equal(t, q.calls[0].sql, q.calls[1].sql)
	assert.Contains(t, q.calls[0].sql, `ON CONFLICT ON CONSTRAINT "pk_people_id" DO UPDATE SET`)
	assert.NotContains(t, q.calls[0].sql, `"id"`)

	args := q.calls[0].args
	require.Len(t, args, len(anaColumns))
	assert.Equal(t, "Ana", args[0])
	assert.Equal(t, int32(30), args[1])
	assert.Equal(t, int32(100), args[5])
	assert.Equal(t, "Bruno", q.calls[1].args[0])
}

func TestWrite_IncludesIDWhenPresent(t *testing.T) {
	q := &mockQueryer{}
	w := NewWriter(nil)

	withID := ana()
	withID["id"] = json.Number("7")
	withoutID := ana()
	withoutID["id"] = nil

	cols := append([]string{"id"}, anaColumns...)
	n, err := w.Write(context.Background(), q, "people", "", cols, []record.Flat{withID, withoutID})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, q.calls, 3)

	assert.Contains(t, q.calls[0].sql, `INSERT INTO "people" ("id", "nome"`)
	assert.NotContains(t, q.calls[0].sql, `"id" = EXCLUDED."id"`)
	assert.Equal(t, int32(7), q.calls[0].args[0])

	assert.Contains(t, q.calls[1].sql, "setval")

	assert.NotContains(t, q.calls[2].sql, `("id"`)
	assert.Len(t, q.calls[2].args, len(anaColumns))
}

func TestWrite_SyncsSequenceBeforeGeneratedIDs(t *testing.T) {
	q := &mockQueryer{}

	recs := []record.Flat{
		{"id": json.Number("1"), "nome": "A"},
		{"id": nil, "nome": "B"},
		{"id": nil, "nome": "C"},
	}
	n, err := NewWriter(nil).Write(context.Background(), q, "people", "", []string{"id", "nome"}, recs)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.Len(t, q.calls, 4, "one sequence sync, only after the explicit id")

	assert.Equal(t, []any{int32(1), "A"}, q.calls[0].args)
	assert.Equal(t,
		`SELECT setval(pg_get_serial_sequence($1, 'id'), GREATEST((SELECT max("id") FROM "people"), 1))`,
		q.calls[1].sql)
	assert.Equal(t, []any{`"people"`}, q.calls[1].args)
	assert.Equal(t, []any{"B"}, q.calls[2].args)
	assert.Equal(t, []any{"C"}, q.calls[3].args)
}

func TestWrite_SequenceSyncFailureStopsBatch(t *testing.T) {
	syncErr := errors.New("permission denied for sequence")
	q := &mockQueryer{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if strings.HasPrefix(sql, "SELECT setval") {
				return pgconn.CommandTag{}, syncErr
			}
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	recs := []record.Flat{{"id": json.Number("5"), "nome": "A"}, {"id": nil, "nome": "B"}}
	n, err := NewWriter(nil).Write(context.Background(), q, "people", "", []string{"id", "nome"}, recs)

	assert.Equal(t, 1, n, "the record itself was committed")
	assert.ErrorIs(t, err, pgload.ErrWrite)
	assert.ErrorIs(t, err, syncErr)
	assert.Contains(t, err.Error(), "record 0: sync id sequence")
	assert.Len(t, q.calls, 2)
}

func TestWrite_UnknownColumnIsBatchLevel(t *testing.T) {
	q := &mockQueryer{}
	recs := []record.Flat{{"nome": "Ana"}, {"nome": "Bia", "apelido": "B"}}

	n, err := NewWriter(nil).Write(context.Background(), q, "people", "", []string{"nome", "apelido"}, recs)

	assert.Equal(t, 0, n)
	require.Error(t, err)
	assert.Equal(t, `write failed: column "apelido" does not exist in table "people"`, err.Error())
	assert.Empty(t, q.calls)
}

func TestWrite_NaturalConflictKey(t *testing.T) {
	q := &mockQueryer{}
	_, err := NewWriter(nil).Write(context.Background(), q, "people", "email", anaColumns, []record.Flat{ana()})

	require.NoError(t, err)
	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].sql, `ON CONFLICT ON CONSTRAINT "uq_people_email"`)
}

func TestWrite_StopsAtFirstFailure(t *testing.T) {
	dbErr := errors.New("connection reset")
	q := &mockQueryer{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			if args[0] == "Carla" {
				return pgconn.CommandTag{}, dbErr
			}
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	names := []string{"Ana", "Bruno", "Carla", "Davi"}
	recs := make([]record.Flat, len(names))
	for i, name := range names {
		recs[i] = ana()
		recs[i]["nome"] = name
	}

	n, err := NewWriter(nil).Write(context.Background(), q, "people", "", anaColumns, recs)

	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, pgload.ErrWrite)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "record 2")
	assert.Len(t, q.calls, 3, "records after the failure are not attempted")
}

func TestWrite_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		columns  []string
		rec      record.Flat
		contains string
	}{
		{
			name:     "unknown column",
			columns:  []string{"nome", "apelido"},
			rec:      record.Flat{"nome": "Ana", "apelido": "Aninha"},
			contains: `column "apelido" does not exist`,
		},
		{
			name:     "non integer age",
			columns:  []string{"idade"},
			rec:      record.Flat{"idade": "trinta"},
			contains: "is not an integer",
		},
		{
			name:     "fractional age",
			columns:  []string{"idade"},
			rec:      record.Flat{"idade": json.Number("30.5")},
			contains: "is not an integer",
		},
		{
			name:     "age out of range",
			columns:  []string{"idade"},
			rec:      record.Flat{"idade": json.Number("3000000000")},
			contains: "out of range",
		},
		{
			name:     "boolean age",
			columns:  []string{"idade"},
			rec:      record.Flat{"idade": true},
			contains: "cannot store bool as integer",
		},
		{
			name:     "unknown conflict key",
			key:      "apelido",
			columns:  []string{"nome"},
			rec:      record.Flat{"nome": "Ana"},
			contains: "not a column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQueryer{}
			n, err := NewWriter(nil).Write(context.Background(), q, "people", tt.key, tt.columns, []record.Flat{tt.rec})

			require.Error(t, err)
			assert.ErrorIs(t, err, pgload.ErrWrite)
			assert.Contains(t, err.Error(), tt.contains)
			assert.Zero(t, n)
			assert.Empty(t, q.calls)
		})
	}
}

func TestWrite_EmptyBatch(t *testing.T) {
	q := &mockQueryer{}
	n, err := NewWriter(nil).Write(context.Background(), q, "people", "", nil, nil)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, q.calls)
}

func TestCoerce(t *testing.T) {
	idade, _ := schema.Lookup("idade")
	nome, _ := schema.Lookup("nome")

	tests := []struct {
		name string
		col  schema.Column
		in   any
		want any
	}{
		{"nil stays null", idade, nil, nil},
		{"json integer", idade, json.Number("30"), int32(30)},
		{"whole float", idade, json.Number("30.0"), int32(30)},
		{"exponent", idade, json.Number("3e1"), int32(30)},
		{"numeric string", idade, " 42 ", int32(42)},
		{"text passthrough", nome, "Ana", "Ana"},
		{"number as text", nome, json.Number("1.50"), "1.50"},
		{"bool as text", nome, true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerce(tt.col, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildStatement(t *testing.T) {
	nome, _ := schema.Lookup("nome")
	id, _ := schema.Lookup("id")

	tests := []struct {
		name string
		cols []schema.Column
		want string
	}{
		{
			name: "update",
			cols: []schema.Column{id, nome},
			want: `INSERT INTO "people" ("id", "nome") VALUES ($1, $2) ON CONFLICT ON CONSTRAINT "pk_people_id" DO UPDATE SET "nome" = EXCLUDED."nome"`,
		},
		{
			name: "id only",
			cols: []schema.Column{id},
			want: `INSERT INTO "people" ("id") VALUES ($1) ON CONFLICT ON CONSTRAINT "pk_people_id" DO NOTHING`,
		},
		{
			name: "no columns",
			cols: nil,
			want: `INSERT INTO "people" DEFAULT VALUES ON CONFLICT ON CONSTRAINT "pk_people_id" DO NOTHING`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildStatement("people", "pk_people_id", tt.cols))
		})
	}
}
