package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/zcta-census/internal/table"
)

// SQLiteWriter stores each table as census_<slug> in a SQLite database.
// Writing a name again replaces the previous table.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens a SQLite database at the given path and configures WAL mode.
func NewSQLiteWriter(dsn string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteWriter{db: db}, nil
}

// Write implements Writer.
func (w *SQLiteWriter) Write(ctx context.Context, name string, t *table.Table) error {
	tbl := TableName(name)
	cols := t.Columns()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(tbl)); err != nil {
		return eris.Wrapf(err, "sqlite: drop %s", tbl)
	}

	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdent(c) + " TEXT"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(tbl), strings.Join(defs, ", "))); err != nil {
		return eris.Wrapf(err, "sqlite: create %s", tbl)
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c)
	}
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(tbl),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "),
	)
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare insert into %s", tbl)
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rowsAny(t.Rows()) {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert into %s", tbl)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// Close implements Writer.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
