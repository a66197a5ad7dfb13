package tui

import (
	"fmt"
	"strings"

	"github.com/Ellen-desu/termisql/internal/browse"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// flatten keeps multi-line values on one table row.
var flatten = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")

const (
	minWidth      = 40
	minHeight     = 10
	pagePaneLines = 3
)

// render draws the whole screen.
func (a *App) render() string {
	if a.width < minWidth || a.height < minHeight {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			errorStyle.Render(fmt.Sprintf("Terminal too small\nMin: %dx%d", minWidth, minHeight)))
	}

	listWidth := a.width * 30 / 100
	rightWidth := a.width - listWidth - 1
	contentHeight := a.height - 2 // status (1) + help (1)
	viewHeight := contentHeight - pagePaneLines

	screen := a.machine.Screen()

	right := lipgloss.JoinVertical(lipgloss.Left,
		a.renderViewPane(rightWidth, viewHeight, screen == browse.ScreenViewing),
		a.renderPagePane(rightWidth, pagePaneLines, screen == browse.ScreenPaging),
	)
	content := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderTablePane(listWidth, contentHeight, screen == browse.ScreenSelecting),
		" ",
		right,
	)

	var b strings.Builder
	b.WriteString(content)
	b.WriteString("\n")
	b.WriteString(a.renderStatusBar())
	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))
	return b.String()
}

func (a *App) renderTablePane(width, height int, focused bool) string {
	// Inner height = height - 2 (borders)
	visibleHeight := max(height-2, 1)

	tables := a.state.Tables.Items()
	selected, hasSelected := a.state.Tables.Selected()

	var content strings.Builder

	if len(tables) == 0 {
		content.WriteString(dimItemStyle.Render(" No such table."))
		return renderPaneWithTitle(content.String(), width, height, "Tables", focused)
	}

	offset := 0
	if hasSelected && selected >= visibleHeight {
		offset = selected - visibleHeight + 1
	}
	end := min(offset+visibleHeight, len(tables))

	if offset > 0 {
		content.WriteString(dimItemStyle.Render(" ↑ more\n"))
		visibleHeight--
		end = min(offset+visibleHeight, len(tables))
	}

	for i := offset; i < end; i++ {
		item := truncateString(tables[i].Name(), width-6)
		if hasSelected && i == selected {
			item = selectedItemStyle.Render("> " + item)
		} else {
			item = normalItemStyle.Render("  " + item)
		}
		content.WriteString(item)
		if i < end-1 || end < len(tables) {
			content.WriteString("\n")
		}
	}

	if end < len(tables) {
		content.WriteString(dimItemStyle.Render(" ↓ more"))
	}

	return renderPaneWithTitle(content.String(), width, height, "Tables", focused)
}

func (a *App) renderViewPane(width, height int, focused bool) string {
	view := a.state.View
	if view == nil {
		return renderPaneWithTitle(dimItemStyle.Render("Please select a table."), width, height, "View", focused)
	}
	if len(view.Columns) == 0 {
		return renderPaneWithTitle(dimItemStyle.Render("No columns."), width, height, "View", focused)
	}

	// Columns share the pane width evenly.
	innerWidth := width - 4 // borders + padding
	n := len(view.Columns)
	colWidth := max((innerWidth-n)/n, 4)

	columns := make([]table.Column, n)
	for i, name := range view.Columns {
		columns[i] = table.Column{Title: truncateString(name, colWidth-1), Width: colWidth}
	}

	rows := make([]table.Row, len(view.Rows))
	for i, row := range view.Rows {
		cells := make(table.Row, n)
		for j := range cells {
			if j < len(row) {
				cells[j] = truncateString(flatten.Replace(row[j]), colWidth-1)
			}
		}
		rows[i] = cells
	}

	styles := table.Styles{
		Header:   tableHeaderStyle,
		Cell:     tableCellStyle,
		Selected: tableSelectedRowStyle,
	}
	if a.state.Row < 0 {
		styles.Selected = lipgloss.NewStyle()
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(max(height-2, 2)),
		table.WithFocused(focused),
		table.WithStyles(styles),
	)
	if a.state.Row >= 0 {
		t.SetCursor(a.state.Row)
	}

	content := t.View()
	if len(rows) == 0 {
		content += "\n" + dimItemStyle.Render("No rows.")
	}
	return renderPaneWithTitle(content, width, height, "View", focused)
}

func (a *App) renderPagePane(width, height int, focused bool) string {
	page := a.state.Page
	indicator := pageIndicatorStyle.Render(fmt.Sprintf("↑ %d/%d ↓", page.Page, page.End))
	if a.state.View != nil {
		indicator += dimItemStyle.Render(fmt.Sprintf("   %s rows", humanize.Comma(a.state.RowCount)))
	}
	content := lipgloss.PlaceHorizontal(width-4, lipgloss.Center, indicator)
	return renderPaneWithTitle(content, width, height, "Page", focused)
}

func (a *App) renderStatusBar() string {
	leftParts := []string{titleStyle.Render("termisql")}
	if a.source != "" {
		leftParts = append(leftParts, dimItemStyle.Render(a.source))
	}

	var rightParts []string
	if t, ok := a.state.Tables.SelectedTable(); ok {
		rightParts = append(rightParts, statusValueStyle.Render("> "+t.Name()))
	}
	rightParts = append(rightParts, statusKeyStyle.Render(a.machine.Screen().String()))

	leftContent := strings.Join(leftParts, " ")
	rightContent := strings.Join(rightParts, " ")

	padding := max(a.width-lipgloss.Width(leftContent)-lipgloss.Width(rightContent)-2, 1)

	content := leftContent + strings.Repeat(" ", padding) + rightContent
	return statusBarStyle.Width(a.width).Render(content)
}

// buildBorderTitle builds a top border line with an embedded title.
// width is the total width including border characters.
func buildBorderTitle(width int, title string, focused bool) string {
	border := lipgloss.RoundedBorder()
	borderColor := mutedColor
	style := borderTitleStyle
	if focused {
		borderColor = primaryColor
		style = focusedBorderTitleStyle
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)

	// ╭─ Title ───────╮
	titleRendered := style.Render(title)
	remainingWidth := max(width-5-lipgloss.Width(titleRendered), 0)

	var b strings.Builder
	b.WriteString(borderStyle.Render(border.TopLeft))
	b.WriteString(borderStyle.Render(border.Top))
	b.WriteString(" ")
	b.WriteString(titleRendered)
	b.WriteString(" ")
	b.WriteString(borderStyle.Render(strings.Repeat(border.Top, remainingWidth)))
	b.WriteString(borderStyle.Render(border.TopRight))
	return b.String()
}

// renderPaneWithTitle renders content in a pane with a title in the top border.
// Content is padded or cut to fit exactly.
func renderPaneWithTitle(content string, width, height int, title string, focused bool) string {
	border := lipgloss.RoundedBorder()
	borderColor := mutedColor
	if focused {
		borderColor = primaryColor
	}
	borderStyle := lipgloss.NewStyle().Foreground(borderColor)

	innerWidth := max(width-2, 1)
	innerHeight := max(height-2, 1)

	lines := strings.Split(content, "\n")
	for len(lines) < innerHeight {
		lines = append(lines, "")
	}
	lines = lines[:innerHeight]

	var result strings.Builder
	result.WriteString(buildBorderTitle(width, title, focused))
	result.WriteString("\n")

	for _, line := range lines {
		result.WriteString(borderStyle.Render(border.Left))
		padded := " " + line
		if w := lipgloss.Width(padded); w < innerWidth {
			padded += strings.Repeat(" ", innerWidth-w)
		}
		result.WriteString(padded)
		result.WriteString(borderStyle.Render(border.Right))
		result.WriteString("\n")
	}

	result.WriteString(borderStyle.Render(border.BottomLeft))
	result.WriteString(borderStyle.Render(strings.Repeat(border.Bottom, innerWidth)))
	result.WriteString(borderStyle.Render(border.BottomRight))

	return result.String()
}

// truncateString truncates s to maxLen runes, adding an ellipsis if needed.
func truncateString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-1]) + "…"
}
