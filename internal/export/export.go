// Package export writes census result tables to files and databases.
package export

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/zcta-census/internal/table"
)

// Writer persists named tables. Close releases resources and flushes any
// buffered output.
type Writer interface {
	Write(ctx context.Context, name string, t *table.Table) error
	Close() error
}

// ForPath picks a file writer from the extension of path: .xlsx writes a
// workbook, .db and .sqlite a SQLite database, anything else is treated as
// a directory of CSV files.
func ForPath(path string) (Writer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return NewXLSXWriter(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteWriter(path)
	default:
		return NewCSVWriter(path)
	}
}

// TableName turns a dataset topic into a safe identifier such as
// "census_median_income".
func TableName(topic string) string {
	return "census_" + Slug(topic)
}

// CheckNames reports the first pair of distinct names that would be written
// to the same table, file or workbook sheet.
func CheckNames(names []string) error {
	tables := make(map[string]string, len(names))
	sheets := make(map[string]string, len(names))
	for _, name := range names {
		tbl := TableName(name)
		if prev, ok := tables[tbl]; ok {
			return eris.Errorf("export: %q and %q both map to table %s", prev, name, tbl)
		}
		tables[tbl] = name

		sheet := strings.ToLower(sheetName(name))
		if prev, ok := sheets[sheet]; ok {
			return eris.Errorf("export: %q and %q both map to sheet %q", prev, name, sheetName(name))
		}
		sheets[sheet] = name
	}
	return nil
}

// Slug lowercases s and replaces every run of characters outside
// [a-z0-9] with a single underscore.
func Slug(s string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "dataset"
	}
	return out
}

// rowsAny converts string rows to the [][]any shape database drivers take.
func rowsAny(rows [][]string) [][]any {
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
