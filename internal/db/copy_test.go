package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populationTable() TextTable {
	return TextTable{
		Schema:  "census",
		Name:    "census_population",
		Columns: []string{"NAME", "B01001_001E"},
	}
}

func TestReplaceRows_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tbl := populationTable()
	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "census"."census_population"`).WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"census", "census_population"}, tbl.Columns).WillReturnResult(2)
	mock.ExpectCommit()

	n, err := ReplaceRows(context.Background(), mock, tbl,
		[][]string{{"ZCTA5 60601", "1000"}, {"ZCTA5 60602", "2000"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRows_EmptyTruncatesOnly(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("TRUNCATE").WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCommit()

	n, err := ReplaceRows(context.Background(), mock, populationTable(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRows_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tbl := populationTable()
	mock.ExpectBegin()
	mock.ExpectExec("TRUNCATE").WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"census", "census_population"}, tbl.Columns).WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err = ReplaceRows(context.Background(), mock, tbl, [][]string{{"x", "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db: replace: COPY INTO census.census_population")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceRows_BeginError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("connection reset"))

	_, err = ReplaceRows(context.Background(), mock, populationTable(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTextRows(t *testing.T) {
	assert.Equal(t, [][]any{{"a", "1"}, {"b", ""}}, textRows([][]string{{"a", "1"}, {"b", ""}}))
}
