// Package browse holds the browsing state of the UI (table list, page cursor
// and row view), the rules that keep it consistent, and the navigation state
// machine that routes key presses to it.
//
// Nothing in this package is safe for concurrent use; the scheduler that owns
// a State is its only writer.
package browse

import (
	"context"
	"log/slog"
	"time"

	"github.com/Ellen-desu/termisql/internal/database"
)

// Source opens read snapshots of a database. *database.Backend implements it.
type Source interface {
	Begin(ctx context.Context) (*database.Snapshot, error)
}

// TableList is the ordered list of tables plus an optional selection.
// The selection, when present, is always a valid index.
type TableList struct {
	items       []database.Table
	selected    int
	hasSelected bool
}

// Items returns the tables in catalog order.
func (l *TableList) Items() []database.Table {
	return l.items
}

// Len returns the number of tables.
func (l *TableList) Len() int {
	return len(l.items)
}

// Selected returns the selected index, if any.
func (l *TableList) Selected() (int, bool) {
	return l.selected, l.hasSelected
}

// SelectedTable returns the selected table, if any.
func (l *TableList) SelectedTable() (database.Table, bool) {
	if !l.hasSelected {
		return database.Table{}, false
	}
	return l.items[l.selected], true
}

// Reload replaces the list. A selection that fell off the end is clamped to
// the last table; an empty list clears the selection.
func (l *TableList) Reload(items []database.Table) {
	l.items = items
	if !l.hasSelected {
		return
	}
	switch {
	case len(items) == 0:
		l.selected, l.hasSelected = 0, false
	case l.selected >= len(items):
		l.selected = len(items) - 1
	}
}

// Next moves the selection down, wrapping to the first table.
func (l *TableList) Next() {
	if len(l.items) == 0 {
		return
	}
	if l.hasSelected && l.selected+1 < len(l.items) {
		l.selected++
	} else {
		l.selected = 0
	}
	l.hasSelected = true
}

// Prev moves the selection up, wrapping to the last table.
func (l *TableList) Prev() {
	if len(l.items) == 0 {
		return
	}
	if l.hasSelected && l.selected > 0 {
		l.selected--
	} else {
		l.selected = len(l.items) - 1
	}
	l.hasSelected = true
}

// PageCursor is the 1-based page of the selected table. Page and End are
// both 0 while no table is selected.
type PageCursor struct {
	Page int
	End  int
	Size uint8
}

// Reset returns the cursor to the no-table state. Size is kept.
func (p *PageCursor) Reset() {
	p.Page = 0
	p.End = 0
}

// Next advances one page without passing the end.
func (p *PageCursor) Next() {
	if p.Page < p.End {
		p.Page++
	}
}

// Prev goes back one page without going below 1.
func (p *PageCursor) Prev() {
	if p.Page > 1 {
		p.Page--
	}
}

// Offset is the number of rows before the current page.
func (p *PageCursor) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * int(p.Size)
}

// RecomputeEnd returns the last page for rowCount rows, at least 1.
func RecomputeEnd(rowCount int64, size uint8) int {
	if size == 0 {
		size = 1
	}
	end := (rowCount + int64(size) - 1) / int64(size)
	if end < 1 {
		return 1
	}
	return int(end)
}

// ClampPage pulls page back to end when the table shrank, and up to 1 when
// no page was set yet. It never moves forward past the old page.
func ClampPage(page, end int) int {
	if page > end {
		return end
	}
	return max(page, 1)
}

// RowView is one decoded page of a table.
type RowView struct {
	Columns []string
	Rows    [][]string
}

// State is everything the browser shows.
type State struct {
	Tables TableList
	Page   PageCursor
	// View is nil while no table is selected.
	View *RowView
	// Row is the highlighted row of View, -1 for none.
	Row int
	// RowCount is the row count of the selected table from the last refresh.
	RowCount int64

	logger *slog.Logger
}

// NewState returns an empty state with the given page size.
func NewState(pageSize uint8, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &State{
		Page:   PageCursor{Size: pageSize},
		Row:    -1,
		logger: logger,
	}
}

// reset drops the row view and page range after the selection went away.
func (s *State) reset() {
	s.View = nil
	s.Page.Reset()
	s.Row = -1
	s.RowCount = 0
}

// NextRow moves the row highlight down, stopping at the last row.
func (s *State) NextRow() {
	if s.View != nil && len(s.View.Rows) > 0 && s.Row >= 0 {
		s.Row = min(s.Row+1, len(s.View.Rows)-1)
		return
	}
	s.Row = 0
}

// PrevRow moves the row highlight up, stopping at the first row.
func (s *State) PrevRow() {
	if s.View != nil && len(s.View.Rows) > 0 && s.Row > 0 {
		s.Row--
		return
	}
	s.Row = 0
}

func (s *State) clampRow() {
	if s.Row < 0 {
		return
	}
	if s.View == nil || len(s.View.Rows) == 0 {
		s.Row = -1
		return
	}
	s.Row = min(s.Row, len(s.View.Rows)-1)
}

// Refresh reloads everything from src inside one snapshot: the table list,
// the selection, the page range and the current page. Any error is returned
// unchanged; the state may then be partially updated.
func (s *State) Refresh(ctx context.Context, src Source) error {
	start := time.Now()

	snap, err := src.Begin(ctx)
	if err != nil {
		return err
	}
	defer snap.Close()

	tables, err := snap.ListTables(ctx)
	if err != nil {
		return err
	}
	s.Tables.Reload(tables)

	table, ok := s.Tables.SelectedTable()
	if !ok {
		s.reset()
		s.logger.Debug("refreshed", "tables", len(tables), "duration", time.Since(start))
		return snap.Commit()
	}

	count, err := snap.CountRows(ctx, table)
	if err != nil {
		return err
	}
	s.RowCount = count
	s.Page.End = RecomputeEnd(count, s.Page.Size)
	s.Page.Page = ClampPage(s.Page.Page, s.Page.End)

	columns, err := snap.ListColumns(ctx, table)
	if err != nil {
		return err
	}

	rows, err := snap.FetchPage(ctx, table, columns, int(s.Page.Size), s.Page.Offset())
	if err != nil {
		return err
	}

	s.View = &RowView{Columns: columns, Rows: rows}
	s.clampRow()

	s.logger.Debug("refreshed",
		"tables", len(tables),
		"table", table.Name(),
		"page", s.Page.Page,
		"end", s.Page.End,
		"rows", len(rows),
		"duration", time.Since(start))
	return snap.Commit()
}
