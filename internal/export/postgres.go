package export

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/zcta-census/internal/db"
	"github.com/sells-group/zcta-census/internal/table"
)

// DefaultKeyColumn is the geography column census returns for ZCTA queries.
const DefaultKeyColumn = "zip code tabulation area"

// PostgresWriter loads tables into <schema>.census_<slug>. When the table
// carries KeyColumn, rows are upserted on it; otherwise the table contents
// are replaced.
type PostgresWriter struct {
	pool      db.Pool
	schema    string
	keyColumn string
}

// NewPostgresWriter creates a writer. The caller owns pool.
func NewPostgresWriter(pool db.Pool, schema string) *PostgresWriter {
	if schema == "" {
		schema = "census"
	}
	return &PostgresWriter{pool: pool, schema: schema, keyColumn: DefaultKeyColumn}
}

// WithKeyColumn overrides the upsert key column. An empty key always replaces.
func (w *PostgresWriter) WithKeyColumn(key string) *PostgresWriter {
	w.keyColumn = key
	return w
}

// Write implements Writer.
func (w *PostgresWriter) Write(ctx context.Context, name string, t *table.Table) error {
	log := zap.L().With(zap.String("component", "export.postgres"))

	dst := db.TextTable{
		Schema:  w.schema,
		Name:    TableName(name),
		Columns: t.Columns(),
	}
	if w.keyColumn != "" && t.Index(w.keyColumn) >= 0 {
		dst.Key = w.keyColumn
	}

	if err := db.EnsureTextTable(ctx, w.pool, dst); err != nil {
		return eris.Wrapf(err, "export: prepare %s", dst.Name)
	}

	load := db.ReplaceRows
	if dst.Key != "" {
		load = db.UpsertRows
	}
	n, err := load(ctx, w.pool, dst, t.Rows())
	if err != nil {
		return eris.Wrapf(err, "export: load %s", dst.Name)
	}

	log.Info("loaded census table",
		zap.Stringer("table", dst),
		zap.Int64("rows", n),
		zap.Bool("upsert", dst.Key != ""),
	)
	return nil
}

// Close implements Writer. The pool is closed by its owner.
func (w *PostgresWriter) Close() error { return nil }
