package export

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/zcta-census/internal/table"
)

// Print writes a tabular representation of t to out.
func Print(out io.Writer, t *table.Table) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	cols := t.Columns()
	_, _ = fmt.Fprintln(w, strings.Join(cols, "\t"))

	rules := make([]string, len(cols))
	for i, c := range cols {
		rules[i] = strings.Repeat("-", len(c))
	}
	_, _ = fmt.Fprintln(w, strings.Join(rules, "\t"))

	for _, row := range t.Rows() {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}
