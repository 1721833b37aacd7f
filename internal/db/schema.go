package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// TextTable describes a table whose columns are all TEXT.
type TextTable struct {
	Schema  string
	Name    string
	Columns []string
	Key     string // optional primary key column
}

// Ident returns the schema-qualified identifier of t.
func (t TextTable) Ident() pgx.Identifier { return pgx.Identifier{t.Schema, t.Name} }

// String returns schema.name for messages.
func (t TextTable) String() string { return t.Schema + "." + t.Name }

// CreateSQL returns the CREATE TABLE IF NOT EXISTS statement for t.
func (t TextTable) CreateSQL() string {
	defs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
		if c == t.Key {
			defs[i] += " PRIMARY KEY"
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		t.Ident().Sanitize(),
		strings.Join(defs, ", "),
	)
}

// EnsureTextTable creates the schema and table if they do not exist.
func EnsureTextTable(ctx context.Context, pool Pool, t TextTable) error {
	if len(t.Columns) == 0 {
		return eris.Errorf("db: table %s has no columns", t)
	}
	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{t.Schema}.Sanitize()); err != nil {
		return eris.Wrapf(err, "db: create schema %s", t.Schema)
	}
	if _, err := pool.Exec(ctx, t.CreateSQL()); err != nil {
		return eris.Wrapf(err, "db: create table %s", t)
	}
	return nil
}
