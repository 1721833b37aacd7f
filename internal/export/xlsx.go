package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/zcta-census/internal/table"
)

const maxSheetName = 31

// XLSXWriter collects tables as sheets of one workbook, saved on Close.
type XLSXWriter struct {
	path string
	file *xlsx.File
}

// NewXLSXWriter creates a writer for the workbook at path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path, file: xlsx.NewFile()}
}

// Write implements Writer. Each name becomes one sheet.
func (w *XLSXWriter) Write(_ context.Context, name string, t *table.Table) error {
	sheet, err := w.file.AddSheet(sheetName(name))
	if err != nil {
		return eris.Wrapf(err, "export: add sheet for %s", name)
	}

	addRow(sheet, t.Columns())
	for _, row := range t.Rows() {
		addRow(sheet, row)
	}
	return nil
}

// Close implements Writer.
func (w *XLSXWriter) Close() error {
	if len(w.file.Sheets) == 0 {
		return nil
	}
	return eris.Wrapf(w.file.Save(w.path), "export: save %s", w.path)
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

// sheetName maps a topic onto Excel's sheet name rules: at most 31
// characters and none of []:*?/\.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "dataset"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
