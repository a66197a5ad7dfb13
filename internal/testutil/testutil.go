// Package testutil provides test utilities for termisql tests.
package testutil

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// NewDB creates a SQLite file in a temporary directory, runs the given
// statements against it and returns its path. The file is removed with the
// test's temp dir.
func NewDB(t *testing.T, stmts ...string) string {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db := OpenRW(t, dbPath)
	defer db.Close()

	for _, stmt := range stmts {
		MustExec(t, db, stmt)
	}
	return dbPath
}

// OpenRW opens a read-write handle on a SQLite file, creating it if needed.
// Tests use it to change a database behind the browser's back.
func OpenRW(t *testing.T, path string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file:"+path+"?mode=rwc")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	return db
}

// SeedTable creates table name with an integer id, a text label and a real
// score, and inserts n rows numbered from 1.
func SeedTable(t *testing.T, db *sql.DB, name string, n int) {
	t.Helper()

	MustExec(t, db, fmt.Sprintf(`CREATE TABLE %q (id INTEGER PRIMARY KEY, label TEXT, score REAL)`, name))
	for i := 1; i <= n; i++ {
		MustExec(t, db, fmt.Sprintf(`INSERT INTO %q (id, label, score) VALUES (?, ?, ?)`, name),
			i, fmt.Sprintf("row-%d", i), float64(i)+0.5)
	}
}

// Column returns the i-th cell of every row.
func Column(rows [][]string, i int) []string {
	out := make([]string, len(rows))
	for r, row := range rows {
		out[r] = row[i]
	}
	return out
}

// Seq returns the decimal strings from..to inclusive.
func Seq(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprint(i))
	}
	return out
}

// MustExec executes SQL or fails the test.
func MustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := db.Exec(query, args...); err != nil {
		t.Fatalf("MustExec failed: %v\nQuery: %s", err, strings.TrimSpace(query))
	}
}
