// Package db provides Postgres helpers for creating result tables and
// bulk-loading rows into them.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ReplaceRows truncates t and COPYs rows into it in one transaction.
// Readers never observe an empty table.
func ReplaceRows(ctx context.Context, pool Pool, t TextTable, rows [][]string) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "TRUNCATE "+t.Ident().Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "db: replace: truncate %s", t)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, t.Ident(), t.Columns, pgx.CopyFromRows(textRows(rows)))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace: COPY INTO %s", t)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}

	return n, nil
}

// textRows converts string rows to the [][]any shape CopyFromRows takes.
func textRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = v
		}
		out[i] = vals
	}
	return out
}
