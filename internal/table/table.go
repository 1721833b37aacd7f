// Package table provides a small columnar table built from header + rows data.
package table

import (
	"slices"

	"github.com/rotisserie/eris"
)

// ErrShape is returned when input rows cannot form a rectangular table.
var ErrShape = eris.New("table: malformed rows")

// Column is a named slice of values.
type Column struct {
	Name   string
	Values []string
}

// Table stores string values column by column. Column order and row order
// follow the input.
type Table struct {
	cols []Column
	n    int
}

// FromRows builds a table from rows where rows[0] is the header.
func FromRows(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, eris.Wrap(ErrShape, "no header row")
	}
	header := rows[0]
	if len(header) == 0 {
		return nil, eris.Wrap(ErrShape, "empty header row")
	}

	t := &Table{
		cols: make([]Column, len(header)),
		n:    len(rows) - 1,
	}
	for i, name := range header {
		t.cols[i] = Column{Name: name, Values: make([]string, 0, t.n)}
	}

	for r, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, eris.Wrapf(ErrShape, "row %d has %d values, header has %d", r+1, len(row), len(header))
		}
		for i, v := range row {
			t.cols[i].Values = append(t.cols[i].Values, v)
		}
	}

	return t, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of data rows.
func (t *Table) Len() int { return t.n }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]string, bool) {
	i := t.Index(name)
	if i < 0 {
		return nil, false
	}
	return t.cols[i].Values, true
}

// Row returns row i (0-based, header excluded) in column order.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= t.n {
		return nil
	}
	row := make([]string, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Values[i]
	}
	return row
}

// Rows returns all data rows in order.
func (t *Table) Rows() [][]string {
	rows := make([][]string, t.n)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Drop removes every column with the given name. Dropping a missing column
// is a no-op.
func (t *Table) Drop(name string) *Table {
	t.cols = slices.DeleteFunc(t.cols, func(c Column) bool { return c.Name == name })
	return t
}
