package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// UpsertRows loads rows into t keyed on t.Key: rows are COPYed into a temp
// table, then merged with INSERT ... ON CONFLICT (key). Every non-key column
// takes the incoming value. Census responses can repeat a key (the Cook
// County ZCTA list carries 60628 twice); the last row for a key wins.
func UpsertRows(ctx context.Context, pool Pool, t TextTable, rows [][]string) (int64, error) {
	if t.Key == "" {
		return 0, eris.Errorf("db: upsert: %s has no key column", t)
	}
	keyIdx := slices.Index(t.Columns, t.Key)
	if keyIdx < 0 {
		return 0, eris.Errorf("db: upsert: key %q is not a column of %s", t.Key, t)
	}

	rows = lastPerKey(rows, keyIdx)
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	staging := pgx.Identifier{"_tmp_upsert_" + t.Schema + "_" + t.Name}

	createSQL := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		staging.Sanitize(),
		t.Ident().Sanitize(),
	)
	if _, err := tx.Exec(ctx, createSQL); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create temp table for %s", t)
	}

	if _, err := tx.CopyFrom(ctx, staging, t.Columns, pgx.CopyFromRows(textRows(rows))); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: COPY into temp table for %s", t)
	}

	tag, err := tx.Exec(ctx, t.mergeSQL(staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: INSERT ON CONFLICT for %s", t)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}

	return tag.RowsAffected(), nil
}

// mergeSQL moves staging rows into t, updating non-key columns on conflict.
// A key-only table has nothing to update.
func (t TextTable) mergeSQL(staging pgx.Identifier) string {
	cols := make([]string, len(t.Columns))
	var set []string
	for i, c := range t.Columns {
		id := pgx.Identifier{c}.Sanitize()
		cols[i] = id
		if c != t.Key {
			set = append(set, id+" = EXCLUDED."+id)
		}
	}

	action := "DO NOTHING"
	if len(set) > 0 {
		action = "DO UPDATE SET " + strings.Join(set, ", ")
	}

	colList := strings.Join(cols, ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) %s",
		t.Ident().Sanitize(), colList, colList, staging.Sanitize(),
		pgx.Identifier{t.Key}.Sanitize(), action)
}

// lastPerKey keeps the last row for each value at column key, in first-seen
// order. ON CONFLICT cannot touch the same row twice in one statement.
func lastPerKey(rows [][]string, key int) [][]string {
	seen := make(map[string]int, len(rows))
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		k := row[key]
		if i, ok := seen[k]; ok {
			out[i] = row
			continue
		}
		seen[k] = len(out)
		out = append(out, row)
	}
	return out
}
