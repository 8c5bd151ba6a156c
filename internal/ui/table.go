package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column describes one table column. Width 0 means the column takes the rest
// of the line.
type Column struct {
	Title string
	Width int
}

// Table renders rows below a muted header and a rule, the layout shared by
// the list commands.
type Table struct {
	Columns []Column
	rows    [][]string
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row of already styled cells.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// FitColumn widens column i to hold the widest cell, plus padding.
func (t *Table) FitColumn(i int, padding int) {
	width := lipgloss.Width(t.Columns[i].Title)
	for _, row := range t.rows {
		if i < len(row) {
			width = max(width, lipgloss.Width(row[i]))
		}
	}
	t.Columns[i].Width = width + padding
}

// Render returns the table as a string ending in a newline.
func (t *Table) Render() string {
	headerCol := lipgloss.NewStyle().Foreground(ColorMuted)

	var b strings.Builder
	header := make([]string, len(t.Columns))
	ruleWidth := 0
	for i, c := range t.Columns {
		header[i] = t.cell(i, headerCol.Render(c.Title))
		if c.Width > 0 {
			ruleWidth += c.Width
		} else {
			ruleWidth += 30
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n")
	b.WriteString(Muted.Render(strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")

	for _, row := range t.rows {
		cells := make([]string, len(t.Columns))
		for i := range t.Columns {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			cells[i] = t.cell(i, value)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

func (t *Table) cell(i int, value string) string {
	style := lipgloss.NewStyle()
	if w := t.Columns[i].Width; w > 0 {
		style = style.Width(w)
	}
	return style.Render(value)
}

// Truncate shortens s to maxLen runes, ending in "...".
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 3 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
