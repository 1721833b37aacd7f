package export

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/zcta-census/internal/table"
)

func mustTable(t *testing.T, rows [][]string) *table.Table {
	t.Helper()
	tbl, err := table.FromRows(rows)
	require.NoError(t, err)
	return tbl
}
