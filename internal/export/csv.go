package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/zcta-census/internal/table"
)

// CSVWriter writes each table to <dir>/<slug>.csv.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates dir if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create dir %s", dir)
	}
	return &CSVWriter{dir: dir}, nil
}

// Path returns the file a table with the given name is written to.
func (w *CSVWriter) Path(name string) string {
	return filepath.Join(w.dir, Slug(name)+".csv")
}

// Write implements Writer.
func (w *CSVWriter) Write(_ context.Context, name string, t *table.Table) error {
	path := w.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns()); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return eris.Wrapf(err, "export: write csv rows to %s", path)
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}

// Close implements Writer.
func (w *CSVWriter) Close() error { return nil }
