//go:build ignore

// gen_fixtures writes sample databases for trying termisql by hand.
// Run with: go run gen_fixtures.go
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "modernc.org/sqlite"
)

type fixture struct {
	name   string
	schema string
}

var fixtures = []fixture{
	{
		// A few small tables to flip between.
		name: "shop.db",
		schema: `
			CREATE TABLE customers (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT UNIQUE NOT NULL
			);
			CREATE TABLE orders (
				id INTEGER PRIMARY KEY,
				customer_id INTEGER NOT NULL REFERENCES customers(id),
				total REAL NOT NULL,
				placed_at TEXT DEFAULT CURRENT_TIMESTAMP
			);
			CREATE TABLE "order items" (
				order_id INTEGER NOT NULL,
				sku TEXT NOT NULL,
				qty INTEGER NOT NULL
			);
			INSERT INTO customers (name, email) VALUES
				('Ada', 'ada@example.com'),
				('Grace', 'grace@example.com'),
				('Linus', 'linus@example.com');
			INSERT INTO orders (customer_id, total) VALUES
				(1, 19.99), (1, 5.00), (2, 120.50), (3, 42.00);
			INSERT INTO "order items" VALUES
				(1, 'MUG-01', 2), (2, 'PEN-07', 10), (3, 'DESK-2', 1);
		`,
	},
	{
		// Tables without rows.
		name: "empty.db",
		schema: `
			CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);
			CREATE TABLE events (id INTEGER PRIMARY KEY, kind TEXT, at TEXT);
		`,
	},
	{
		// Every value kind the view renders: NULL, integers, reals, text, blobs.
		name: "types.db",
		schema: `
			CREATE TABLE samples (
				id INTEGER PRIMARY KEY,
				maybe TEXT,
				ratio REAL,
				payload BLOB,
				note TEXT
			);
			INSERT INTO samples (maybe, ratio, payload, note) VALUES
				(NULL, 0.5, x'DEADBEEF', 'plain'),
				('set', -1.25, x'', 'line one
line two'),
				('wide', 1e10, zeroblob(4), 'tab	separated');
		`,
	},
	{
		// Enough rows to page through.
		name: "large.db",
		schema: `
			CREATE TABLE records (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				value INTEGER,
				category TEXT
			);
			WITH RECURSIVE seq(n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < 10000)
			INSERT INTO records (name, value, category)
			SELECT 'record ' || n, n * 10, char(65 + n % 4) FROM seq;
		`,
	},
}

func main() {
	for _, f := range fixtures {
		if err := generate(f); err != nil {
			log.Fatalf("failed to generate %s: %v", f.name, err)
		}
		log.Printf("generated %s", f.name)
	}
}

func generate(f fixture) error {
	if err := os.Remove(f.name); err != nil && !os.IsNotExist(err) {
		return err
	}

	db, err := sql.Open("sqlite", f.name)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.Exec(f.schema); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
