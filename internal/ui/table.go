package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// TableColumn defines a table column with name and width.
type TableColumn struct {
	Title string
	Width int
}

// TableStyles returns the bubbles table styling shared by every table.
func TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorPrimary)
	s.Cell = s.Cell.
		Foreground(ColorPrimary)
	s.Selected = s.Selected.
		Foreground(ColorPrimary).
		Background(ColorMuted).
		Bold(false)
	return s
}

// NewTable creates a new Bubbles table with default styling.
func NewTable(columns []TableColumn, rows []table.Row) table.Model {
	cols := make([]table.Column, len(columns))
	for i, c := range columns {
		cols[i] = table.Column{
			Title: c.Title,
			Width: c.Width,
		}
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(len(rows)+1), // +1 for header
	)
	t.SetStyles(TableStyles())
	return t
}

// RenderSimpleTable renders a non-interactive table string.
// This is for CLI output (not TUI).
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	tableRows := make([]table.Row, len(rows))
	for i, row := range rows {
		tableRows[i] = table.Row(row)
	}

	t := NewTable(columns, tableRows)
	return t.View()
}

// nodeTableColumns are the columns of the one-shot status table.
var nodeTableColumns = []TableColumn{
	{Title: "#", Width: 3},
	{Title: "STATUS", Width: 10},
	{Title: "NAME", Width: 16},
	{Title: "ADDRESS", Width: 22},
	{Title: "HASHRATE 10s/1m/15m", Width: 24},
	{Title: "SHARES", Width: 12},
	{Title: "UPTIME", Width: 26},
	{Title: "ALGO", Width: 10},
}

// RenderNodeTable renders node rows for CLI output, coloring the status
// column. Offline rows keep their stale values.
func RenderNodeTable(rows []NodeRow) string {
	if len(rows) == 0 {
		return "No nodes configured"
	}

	mutedStyle := lipgloss.NewStyle().Foreground(ColorMuted)
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(ColorMuted)

	var header strings.Builder
	for _, c := range nodeTableColumns {
		header.WriteString(padRight(c.Title, c.Width))
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(strings.TrimRight(header.String(), " ")))
	b.WriteString("\n")

	for _, r := range rows {
		statusStyle := lipgloss.NewStyle().Foreground(StatusColor(r.State))
		status := statusStyle.Render(r.State.Symbol() + " " + r.State.Label())

		hashrate := strings.Join([]string{
			trimWindow(r.Hashrate10s), trimWindow(r.Hashrate1m), trimWindow(r.Hashrate15m),
		}, " / ")
		shares := strings.TrimPrefix(r.Shares, "Blocks or Shares: ")

		cells := []string{
			strconv.Itoa(r.Index),
			status,
			r.Name,
			r.Address,
			hashrate,
			shares,
			r.Uptime,
			r.Algo,
		}
		if r.State != StateOnline {
			for i := 2; i < len(cells); i++ {
				cells[i] = mutedStyle.Render(cells[i])
			}
		}

		var line strings.Builder
		for i, c := range cells {
			line.WriteString(padRight(truncate(c, nodeTableColumns[i].Width-1), nodeTableColumns[i].Width))
		}
		b.WriteString(strings.TrimRight(line.String(), " "))
		b.WriteString("\n")
	}

	return b.String()
}

// trimWindow drops the " (10s)" suffix used by the dashboard.
func trimWindow(s string) string {
	if i := strings.Index(s, " ("); i >= 0 {
		return s[:i]
	}
	return s
}

// truncate cuts s to width visible cells, keeping ANSI styling intact.
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

// padRight pads a string to the specified width.
func padRight(s string, width int) string {
	// Account for ANSI codes when calculating visible length
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}
