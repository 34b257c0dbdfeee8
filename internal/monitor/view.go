package monitor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/n0ctu/xmrig-monitor/internal/ui"
	"github.com/n0ctu/xmrig-monitor/internal/util"
)

// Column widths of a node block.
const (
	colStatus  = 11
	colName    = 18
	colAddress = 24
	colWide    = 32
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderNodes())

	if m.ShowFooter() {
		b.WriteString("\n")
		b.WriteString(m.renderFooter())
	}

	return b.String()
}

// renderHeader renders the title bar with summary stats.
func (m Model) renderHeader() string {
	var updateText string
	switch {
	case m.lastUpdate.IsZero():
		updateText = "never"
	case m.SecondsSinceUpdate() == 0:
		updateText = "just now"
	default:
		updateText = fmt.Sprintf("%ds ago", m.SecondsSinceUpdate())
	}

	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("xmrig-monitor")

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(fmt.Sprintf(" | %s | %d online | every %ds | last update %s",
			util.CountNoun(len(m.rows), "node", "nodes"), m.OnlineCount(), m.sched.Interval(), updateText))

	header := title + stats
	if m.refreshing {
		header += " " + m.spinner.View()
	}
	return HeaderStyle.Render(header)
}

// renderNodes renders one block per node in collection order.
func (m Model) renderNodes() string {
	if len(m.rows) == 0 {
		return LabelStyle.Render("No nodes configured. Press a to add one.")
	}

	blocks := make([]string, 0, len(m.rows))
	for i, r := range m.rows {
		blocks = append(blocks, m.renderNodeBlock(r, i == m.selected))
	}
	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

// renderNodeBlock renders the lines of one node. Offline nodes keep their
// last sample and are tinted so they stand out.
func (m Model) renderNodeBlock(r ui.NodeRow, selected bool) string {
	valueStyle := ValueStyle
	switch r.State {
	case ui.StateOffline:
		valueStyle = RowOfflineStyle
	case ui.StatePending:
		valueStyle = RowPendingStyle
	}

	cell := func(s string, width int) string {
		return valueStyle.Width(width).Render(util.Shorten(s, width-1))
	}

	lines := []string{
		renderStatus(r) +
			NameStyle.Width(colName).Render(util.Shorten(r.Name, colName-1)) +
			cell(r.Address, colAddress) +
			cell(r.Algo, 12) +
			cell(r.UserAgent, 16),
		strings.Repeat(" ", colStatus) +
			cell(r.CPU, colName+colAddress-4) +
			cell(r.CPUCores, colWide-4) +
			cell(r.Memory, colWide),
		strings.Repeat(" ", colStatus) +
			cell(r.Hashrate10s, colName) +
			cell(r.Hashrate1m, colAddress-10) +
			cell(r.Hashrate15m, colWide-18) +
			cell(r.Shares, colWide-4) +
			cell(r.AvgTime, colWide),
	}
	if r.State == ui.StateOffline && r.Error != "" {
		lines = append(lines, strings.Repeat(" ", colStatus)+RowOfflineStyle.Render(ui.SymbolFail+" "+r.Error))
	}

	style := RowStyle
	if selected {
		style = RowSelectedStyle
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderStatus renders the status cell. Offline nodes showing an earlier
// sample get the stale symbol.
func renderStatus(r ui.NodeRow) string {
	symbol := r.State.Symbol()
	if r.Stale {
		symbol = ui.SymbolStale
	}
	text := symbol + " " + r.State.Label()

	var style lipgloss.Style
	switch r.State {
	case ui.StateOnline:
		style = StatusOnlineStyle
	case ui.StateOffline:
		style = StatusOfflineStyle
	default:
		style = StatusPendingStyle
	}
	return style.Width(colStatus).Render(text)
}

// renderFooter renders the keyboard hints and the last notice.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"r refresh",
		"a add",
		"e edit",
		"d delete",
		"i interval",
		"o open",
		"↑↓ select",
		"? help",
	}

	footer := FooterStyle.Render(strings.Join(hints, " | "))
	if m.notice == "" {
		return footer
	}

	noticeStyle := NoticeStyle
	if m.noticeErr {
		noticeStyle = NoticeErrorStyle
	}
	return footer + "\n" + FooterStyle.Render(noticeStyle.Render(m.notice))
}

// renderForm shows the open form in a box under the header.
func (m Model) renderForm() string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render(m.input.title)
	body := title + "\n\n" + m.form.View() + "\n" + LabelStyle.Render("esc cancel")
	return m.renderHeader() + "\n\n" + FormBoxStyle.Render(body)
}
