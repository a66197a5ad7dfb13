package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// Table is a table name read from the backend's own catalog. Only values of
// this type are ever interpolated into SQL text; they cannot be built from
// user input outside this package.
type Table struct {
	name string
}

// Name returns the table name as the catalog reported it.
func (t Table) Name() string { return t.name }

func (t Table) String() string { return t.name }

// Snapshot is one connection and one transaction. All reads made through a
// snapshot see the same state of the database.
type Snapshot struct {
	conn *sql.Conn
	tx   *sql.Tx
	d    *dialect
	done bool
}

// ListTables returns all user tables, ordered by name.
func (s *Snapshot) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := s.tx.QueryContext(ctx, s.d.listTables)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, Table{name: name})
	}
	return tables, rows.Err()
}

// CountRows returns the number of rows in a table.
func (s *Snapshot) CountRows(ctx context.Context, table Table) (int64, error) {
	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.d.quote(table.name))
	if err := s.tx.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %q: %w", table.name, err)
	}
	return count, nil
}

// ListColumns returns the column names of a table in declaration order.
func (s *Snapshot) ListColumns(ctx context.Context, table Table) ([]string, error) {
	rows, err := s.tx.QueryContext(ctx, s.d.listColumns, table.name)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns of %q: %w", table.name, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	return columns, rows.Err()
}

// FetchPage returns up to limit rows starting at offset, each cell decoded to
// its display string. Cells that cannot be decoded become placeholders.
func (s *Snapshot) FetchPage(ctx context.Context, table Table, columns []string, limit, offset int) ([][]string, error) {
	if len(columns) == 0 {
		return [][]string{}, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = s.d.quote(c)
		if s.d.selectColumn != nil {
			quoted[i] = s.d.selectColumn(quoted[i])
		}
	}
	query := fmt.Sprintf(s.d.selectPage, strings.Join(quoted, ", "), s.d.quote(table.name))

	rows, err := s.tx.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows of %q: %w", table.name, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}

	result := make([][]string, 0, limit)
	for rows.Next() {
		values := make([]any, len(colTypes))
		valuePtrs := make([]any, len(colTypes))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		record := make([]string, len(values))
		for i, v := range values {
			record[i] = DecodeCell(s.d.categories, Cell{
				TypeName: s.d.typeName(colTypes[i], v),
				Value:    v,
			})
		}
		result = append(result, record)
	}
	return result, rows.Err()
}

// Commit ends the snapshot's transaction and releases its connection.
func (s *Snapshot) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Commit()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// Close rolls back the transaction if it was not committed and releases the
// connection. It is safe to call after Commit.
func (s *Snapshot) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	err := s.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		err = nil
	}
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
