package main

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/zcta-census/internal/export"
	"github.com/sells-group/zcta-census/internal/table"
)

// openWriter returns the export targets selected on the command line, or
// nil when results should be printed.
func openWriter(ctx context.Context, out string, pg bool) (export.Writer, error) {
	var writers multiWriter

	if out != "" {
		w, err := export.ForPath(out)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}

	if pg {
		w, err := openPostgres(ctx)
		if err != nil {
			_ = writers.Close()
			return nil, err
		}
		writers = append(writers, w)
	}

	switch len(writers) {
	case 0:
		return nil, nil
	case 1:
		return writers[0], nil
	default:
		return writers, nil
	}
}

func openPostgres(ctx context.Context) (export.Writer, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store.database_url is required for --pg (ZCTA_STORE_DATABASE_URL)")
	}
	pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping postgres")
	}
	return &poolWriter{PostgresWriter: export.NewPostgresWriter(pool, cfg.Store.Schema), pool: pool}, nil
}

// poolWriter owns the pool behind a PostgresWriter.
type poolWriter struct {
	*export.PostgresWriter
	pool *pgxpool.Pool
}

func (w *poolWriter) Close() error {
	w.pool.Close()
	return nil
}

// multiWriter writes every table to each writer in order.
type multiWriter []export.Writer

func (m multiWriter) Write(ctx context.Context, name string, t *table.Table) error {
	for _, w := range m {
		if err := w.Write(ctx, name, t); err != nil {
			return err
		}
	}
	return nil
}

func (m multiWriter) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
