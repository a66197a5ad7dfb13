package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Ellen-desu/termisql/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T, path string) *Backend {
	t.Helper()

	file, err := ResolveSQLiteFile(path)
	require.NoError(t, err)
	b, err := OpenSQLite(context.Background(), file, DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func beginSnapshot(t *testing.T, b *Backend) *Snapshot {
	t.Helper()

	snap, err := b.Begin(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { snap.Close() })
	return snap
}

func TestOpenSQLite_ReservedCharactersInPath(t *testing.T) {
	for _, name := range []string{"my#data.db", "what?.db", "100%.db", "with space.db"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, name)
			db := testutil.OpenRW(t, path)
			testutil.MustExec(t, db, `CREATE TABLE a (id INTEGER)`)
			require.NoError(t, db.Close())

			snap := beginSnapshot(t, openTestSQLite(t, path))
			tables, err := snap.ListTables(context.Background())
			require.NoError(t, err)
			require.Len(t, tables, 1)
			assert.Equal(t, "a", tables[0].Name())

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			for _, e := range entries {
				assert.True(t, strings.HasPrefix(e.Name(), name), "unexpected file %q", e.Name())
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file:/tmp/my%23data%3F.db?mode=ro&_pragma=busy_timeout(5000)", sqliteDSN("/tmp/my#data?.db", 5000))
	assert.Equal(t, "file:/tmp/plain.db?mode=ro&_pragma=busy_timeout(10)", sqliteDSN("/tmp/plain.db", 10))
}

func TestSQLite_ListTables(t *testing.T) {
	path := testutil.NewDB(t,
		`CREATE TABLE zebra (id INTEGER PRIMARY KEY AUTOINCREMENT)`,
		`INSERT INTO zebra DEFAULT VALUES`,
		`CREATE TABLE apple (id INTEGER)`,
		`CREATE VIEW apple_view AS SELECT * FROM apple`,
	)
	b := openTestSQLite(t, path)
	assert.Equal(t, KindSQLite, b.Kind())

	snap := beginSnapshot(t, b)
	tables, err := snap.ListTables(context.Background())
	require.NoError(t, err)

	names := make([]string, len(tables))
	for i, tbl := range tables {
		names[i] = tbl.Name()
	}
	// sqlite_sequence exists because of AUTOINCREMENT but is internal.
	assert.Equal(t, []string{"apple", "zebra"}, names)
	require.NoError(t, snap.Commit())
}

func TestSQLite_CountColumnsAndPages(t *testing.T) {
	path := testutil.NewDB(t)
	db := testutil.OpenRW(t, path)
	testutil.SeedTable(t, db, "t", 7)
	db.Close()

	b := openTestSQLite(t, path)
	snap := beginSnapshot(t, b)
	ctx := context.Background()
	tbl := Table{name: "t"}

	count, err := snap.CountRows(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	cols, err := snap.ListColumns(ctx, tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "label", "score"}, cols)

	first, err := snap.FetchPage(ctx, tbl, cols, 5, 0)
	require.NoError(t, err)
	require.Len(t, first, 5)
	assert.Equal(t, []string{"1", "row-1", "1.5"}, first[0])
	assert.Equal(t, testutil.Seq(1, 5), testutil.Column(first, 0))

	second, err := snap.FetchPage(ctx, tbl, cols, 5, 5)
	require.NoError(t, err)
	assert.Equal(t, testutil.Seq(6, 7), testutil.Column(second, 0))

	past, err := snap.FetchPage(ctx, tbl, cols, 5, 10)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestSQLite_DecodesPlaceholders(t *testing.T) {
	path := testutil.NewDB(t,
		`CREATE TABLE mixed (a, b, c, d)`,
		`INSERT INTO mixed VALUES (NULL, x'00ff', CAST(x'fffe' AS TEXT), 2.25)`,
	)
	b := openTestSQLite(t, path)
	snap := beginSnapshot(t, b)
	ctx := context.Background()

	rows, err := snap.FetchPage(ctx, Table{name: "mixed"}, []string{"a", "b", "c", "d"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{NullText, UnsupportedText, ErrText, "2.25"}, rows[0])
}

func TestSQLite_DateColumnsKeepStoredText(t *testing.T) {
	path := testutil.NewDB(t,
		`CREATE TABLE ev (d DATE, ts DATETIME, stamp TIMESTAMP, n DATE)`,
		`INSERT INTO ev VALUES ('2024-01-02', '2024-01-02 03:04', 'yesterday', 1700000000)`,
	)
	b := openTestSQLite(t, path)
	snap := beginSnapshot(t, b)

	rows, err := snap.FetchPage(context.Background(), Table{name: "ev"}, []string{"d", "ts", "stamp", "n"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"2024-01-02", "2024-01-02 03:04", "yesterday", "1700000000"}}, rows)
}

func TestSQLite_QuotesTrustedNames(t *testing.T) {
	path := testutil.NewDB(t,
		`CREATE TABLE "odd ""name""" ("select" INTEGER)`,
		`INSERT INTO "odd ""name""" VALUES (1)`,
	)
	b := openTestSQLite(t, path)
	snap := beginSnapshot(t, b)
	ctx := context.Background()

	tables, err := snap.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, `odd "name"`, tables[0].Name())

	count, err := snap.CountRows(ctx, tables[0])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	cols, err := snap.ListColumns(ctx, tables[0])
	require.NoError(t, err)
	rows, err := snap.FetchPage(ctx, tables[0], cols, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}}, rows)
}

func TestSQLite_IsReadOnly(t *testing.T) {
	path := testutil.NewDB(t, `CREATE TABLE t (id INTEGER)`)
	b := openTestSQLite(t, path)

	_, err := b.db.Exec(`INSERT INTO t VALUES (1)`)
	assert.Error(t, err)
}

func TestSnapshot_CloseAfterCommit(t *testing.T) {
	path := testutil.NewDB(t, `CREATE TABLE t (id INTEGER)`)
	b := openTestSQLite(t, path)

	snap, err := b.Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, snap.Commit())
	assert.NoError(t, snap.Close())
	assert.NoError(t, snap.Commit())
}

func TestBackend_CloseTwice(t *testing.T) {
	path := testutil.NewDB(t, `CREATE TABLE t (id INTEGER)`)
	file, err := ResolveSQLiteFile(path)
	require.NoError(t, err)
	b, err := OpenSQLite(context.Background(), file, DefaultOptions())
	require.NoError(t, err)

	assert.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}

// txRecorder is a driver connection that only records the options of the
// transactions it starts.
type txRecorder struct {
	opts []driver.TxOptions
}

func (r *txRecorder) Connect(context.Context) (driver.Conn, error) { return r, nil }
func (r *txRecorder) Driver() driver.Driver { return nil }
func (r *txRecorder) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (r *txRecorder) Close() error { return nil }
func (r *txRecorder) Begin() (driver.Tx, error) { return r.BeginTx(context.Background(), driver.TxOptions{}) }
func (r *txRecorder) Commit() error { return nil }
func (r *txRecorder) Rollback() error { return nil }

func (r *txRecorder) BeginTx(_ context.Context, opts driver.TxOptions) (driver.Tx, error) {
	r.opts = append(r.opts, opts)
	return r, nil
}

func TestBackend_BeginIsolation(t *testing.T) {
	tests := []struct {
		kind     Kind
		want     sql.IsolationLevel
		readOnly bool
	}{
		{KindSQLite, sql.LevelDefault, false},
		{KindMySQL, sql.LevelRepeatableRead, true},
		{KindPostgres, sql.LevelRepeatableRead, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			rec := &txRecorder{}
			db := sql.OpenDB(rec)
			t.Cleanup(func() { db.Close() })

			snap, err := newBackend(tt.kind, db, DefaultOptions()).Begin(context.Background())
			require.NoError(t, err)
			require.NoError(t, snap.Commit())

			require.Len(t, rec.opts, 1)
			assert.Equal(t, driver.IsolationLevel(tt.want), rec.opts[0].Isolation)
			assert.Equal(t, tt.readOnly, rec.opts[0].ReadOnly)
		})
	}
}

func newMockBackend(t *testing.T, kind Kind) (*Backend, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	opts := DefaultOptions()
	return newBackend(kind, db, opts), mock
}

func TestMySQL_Snapshot(t *testing.T) {
	b, mock := newMockBackend(t, KindMySQL)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(mysqlDialect.listTables).
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("orders").AddRow("users"))
	mock.ExpectQuery("SELECT COUNT(*) FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(int64(3)))
	mock.ExpectQuery(mysqlDialect.listColumns).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME"}).
			AddRow("id").AddRow("name").AddRow("balance").AddRow("created").AddRow("shape"))
	mock.ExpectQuery("SELECT `id`, `name`, `balance`, `created`, `shape` FROM `users` LIMIT ? OFFSET ?").
		WithArgs(int64(25), int64(0)).
		WillReturnRows(mock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("id").OfType("BIGINT", int64(0)),
			sqlmock.NewColumn("name").OfType("VARCHAR", "").Nullable(true),
			sqlmock.NewColumn("balance").OfType("DECIMAL", []byte{}),
			sqlmock.NewColumn("created").OfType("DATETIME", time.Time{}),
			sqlmock.NewColumn("shape").OfType("GEOMETRY", []byte{}),
		).
			AddRow(int64(1), []byte("alice"), []byte("10.50"), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), []byte{0x01}).
			AddRow(int64(2), nil, []byte("oops"), time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), nil))
	mock.ExpectCommit()

	snap, err := b.Begin(ctx)
	require.NoError(t, err)
	defer snap.Close()

	tables, err := snap.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	users := tables[1]

	count, err := snap.CountRows(ctx, users)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	cols, err := snap.ListColumns(ctx, users)
	require.NoError(t, err)

	rows, err := snap.FetchPage(ctx, users, cols, 25, 0)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"1", "alice", "10.5", "2024-01-02 03:04:05", UnsupportedText},
		{"2", NullText, ErrText, "2024-02-03 04:05:06", NullText},
	}, rows)

	require.NoError(t, snap.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_QueryErrorPropagates(t *testing.T) {
	b, mock := newMockBackend(t, KindMySQL)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COUNT(*) FROM `gone`").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	snap, err := b.Begin(ctx)
	require.NoError(t, err)

	_, err = snap.CountRows(ctx, Table{name: "gone"})
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)

	require.NoError(t, snap.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackend_BeginErrorPropagates(t *testing.T) {
	b, mock := newMockBackend(t, KindMySQL)

	mock.ExpectBegin().WillReturnError(assert.AnError)

	_, err := b.Begin(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to begin transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_FetchPage(t *testing.T) {
	b, mock := newMockBackend(t, KindPostgres)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(postgresDialect.listColumns).
		WithArgs("events").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("at").AddRow("ok"))
	mock.ExpectQuery(`SELECT "id", "at", "ok" FROM "events" LIMIT $1 OFFSET $2`).
		WithArgs(int64(10), int64(20)).
		WillReturnRows(mock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("id").OfType("INT8", int64(0)),
			sqlmock.NewColumn("at").OfType("TIMESTAMPTZ", time.Time{}),
			sqlmock.NewColumn("ok").OfType("BOOL", false),
		).AddRow(int64(21), time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC), true))
	mock.ExpectCommit()

	snap, err := b.Begin(ctx)
	require.NoError(t, err)
	defer snap.Close()

	events := Table{name: "events"}
	cols, err := snap.ListColumns(ctx, events)
	require.NoError(t, err)

	rows, err := snap.FetchPage(ctx, events, cols, 10, 20)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"21", "2024-03-04 05:06:07", UnsupportedText}}, rows)

	require.NoError(t, snap.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_ListTablesScoping(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`NOT LIKE 'sqlite_%'`), sqliteDialect.listTables)
	assert.Contains(t, mysqlDialect.listTables, "DATABASE()")
	assert.Contains(t, postgresDialect.listTables, "current_schema()")
}
