// Package schema owns the canonical people table: its fixed column set, its
// constraint names, and the idempotent DDL that brings a database in line.
package schema

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// ColumnKind is the Go-side value class a column accepts.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindInteger
	KindSerial
)

// Column is one column of the canonical table.
type Column struct {
	Name    string
	SQLType string
	Kind    ColumnKind
}

// IDColumn is the surrogate key column.
const IDColumn = "id"

// Columns is the canonical table layout in DDL order.
var Columns = []Column{
	{Name: IDColumn, SQLType: "SERIAL", Kind: KindSerial},
	{Name: "nome", SQLType: "VARCHAR(255)", Kind: KindText},
	{Name: "idade", SQLType: "INTEGER", Kind: KindInteger},
	{Name: "email", SQLType: "VARCHAR(255)", Kind: KindText},
	{Name: "telefone", SQLType: "VARCHAR(20)", Kind: KindText},
	{Name: "endereco_logradouro", SQLType: "VARCHAR(255)", Kind: KindText},
	{Name: "endereco_numero", SQLType: "INTEGER", Kind: KindInteger},
	{Name: "endereco_bairro", SQLType: "VARCHAR(255)", Kind: KindText},
	{Name: "endereco_cidade", SQLType: "VARCHAR(255)", Kind: KindText},
	{Name: "endereco_estado", SQLType: "CHAR(2)", Kind: KindText},
	{Name: "endereco_cep", SQLType: "VARCHAR(10)", Kind: KindText},
}

var columnsByName = func() map[string]Column {
	m := make(map[string]Column, len(Columns))
	for _, c := range Columns {
		m[c.Name] = c
	}
	return m
}()

// Lookup returns the canonical column called name.
func Lookup(name string) (Column, bool) {
	c, ok := columnsByName[name]
	return c, ok
}

// PrimaryKeyName is the one primary-key constraint a table may carry.
func PrimaryKeyName(table string) string {
	return "pk_" + table + "_id"
}

// UniqueKeyName names the unique constraint backing a natural conflict key.
func UniqueKeyName(table, column string) string {
	return "uq_" + table + "_" + column
}

// ConflictConstraint returns the constraint an upsert resolves conflicts on.
// An empty key (or "id") selects the surrogate primary key.
func ConflictConstraint(table, key string) (string, error) {
	if key == "" || key == IDColumn {
		return PrimaryKeyName(table), nil
	}
	if _, ok := Lookup(key); !ok {
		return "", fmt.Errorf("conflict key %q is not a column of the people table: %w", key, pgload.ErrInvalidConfig)
	}
	name := UniqueKeyName(table, key)
	if len(name) > pgload.MaxIdentifierLength {
		return "", fmt.Errorf("constraint name %q is too long: %w", name, pgload.ErrInvalidConfig)
	}
	return name, nil
}

// CreateTableSQL renders the CREATE TABLE IF NOT EXISTS statement for table.
func CreateTableSQL(table string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(pgx.Identifier{table}.Sanitize())
	b.WriteString(" (\n")
	for _, c := range Columns {
		fmt.Fprintf(&b, "\t%s %s,\n", pgx.Identifier{c.Name}.Sanitize(), c.SQLType)
	}
	fmt.Fprintf(&b, "\tCONSTRAINT %s PRIMARY KEY (%s)\n)",
		pgx.Identifier{PrimaryKeyName(table)}.Sanitize(),
		pgx.Identifier{IDColumn}.Sanitize())
	return b.String()
}
