package source

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapchart/internal/testutil"
	"github.com/leapstack-labs/leapchart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockSource(t *testing.T) (*Source, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db, DriverDuckDB, testutil.NewTestLogger(t)), mock
}

func TestQuery_ScansRows(t *testing.T) {
	src, mock := newMockSource(t)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT month, sales, day FROM sales").
		WillReturnRows(sqlmock.NewRows([]string{"month", "sales", "day"}).
			AddRow([]byte("Jan"), int64(3), day).
			AddRow("Feb", nil, day))

	rs, err := src.Query(context.Background(), "SELECT month, sales, day FROM sales")
	require.NoError(t, err)

	assert.Equal(t, []string{"month", "sales", "day"}, rs.Columns)
	assert.Equal(t, []core.Row{
		{"month": "Jan", "sales": int64(3), "day": day},
		{"month": "Feb", "sales": nil, "day": day},
	}, rs.Rows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_EmptyResult(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"a"}))

	rs, err := src.Query(context.Background(), "SELECT a FROM t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, rs.Columns)
	assert.NotNil(t, rs.Rows)
	assert.Zero(t, rs.Len())
}

func TestQuery_Errors(t *testing.T) {
	t.Run("query error", func(t *testing.T) {
		src, mock := newMockSource(t)
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("no such table: sales"))

		_, err := src.Query(context.Background(), "SELECT * FROM sales")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no such table")
	})

	t.Run("row error", func(t *testing.T) {
		src, mock := newMockSource(t)
		mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"a"}).
			AddRow(int64(1)).
			RowError(0, errors.New("connection reset")))

		_, err := src.Query(context.Background(), "SELECT a FROM t")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})
}

func TestExec(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectExec("CREATE TABLE").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, src.Exec(context.Background(), "CREATE TABLE t (a INT)"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, nil)
	var unknown *UnknownDriverError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), "duckdb, postgres, sqlite")
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	ctx := context.Background()
	src, err := Open(ctx, Config{Driver: DriverSQLite}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Exec(ctx, `CREATE TABLE sales (month TEXT, amount REAL)`))
	require.NoError(t, src.Exec(ctx, `INSERT INTO sales VALUES ('Jan', 1.5), ('Feb', 2)`))

	rs, err := src.Query(ctx, `SELECT month, amount FROM sales ORDER BY rowid`)
	require.NoError(t, err)
	assert.Equal(t, []any{"Jan", "Feb"}, rs.Column("month"))
	assert.Equal(t, []any{1.5, 2.0}, rs.Column("amount"))
}

func TestNormalize(t *testing.T) {
	huge, _ := new(big.Int).SetString("100000000000000000000", 10)
	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "bytes", in: []byte("x"), want: "x"},
		{name: "int32", in: int32(7), want: int64(7)},
		{name: "uint64 overflow", in: uint64(1 << 63), want: float64(1 << 63)},
		{name: "float32", in: float32(0.5), want: 0.5},
		{name: "small big int", in: big.NewInt(42), want: int64(42)},
		{name: "huge big int", in: huge, want: 1e20},
		{name: "nested list", in: []any{[]byte("a"), int16(1)}, want: []any{"a", int64(1)}},
		{name: "struct", in: map[string]any{"k": int8(2)}, want: map[string]any{"k": int64(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestTables(t *testing.T) {
	src, mock := newMockSource(t)
	mock.ExpectQuery("information_schema.tables").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("sales"))

	names, err := src.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "sales"}, names)
	require.NoError(t, mock.ExpectationsWereMet())
}
