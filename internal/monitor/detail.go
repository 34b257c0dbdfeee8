package monitor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/util"
)

var detailContainerStyle = lipgloss.NewStyle().Padding(0, 2)

// renderDetailView renders the scrollable single-node view.
func (m Model) renderDetailView() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.viewportReady {
		b.WriteString(m.detailViewport.View())
	} else {
		b.WriteString(m.renderDetailContent())
	}
	b.WriteString("\n")
	b.WriteString(FooterStyle.Render("esc back | ↑↓ scroll | e edit | d delete | r refresh"))
	return b.String()
}

// updateDetailViewportContent refreshes the viewport after data or size changes.
func (m *Model) updateDetailViewportContent() {
	if !m.viewportReady {
		return
	}
	m.detailViewport.SetContent(m.renderDetailContent())
}

func (m Model) detailWidth() int {
	w := m.width - 6
	if w < 50 {
		w = 50
	}
	return w
}

// renderDetailContent renders every field of the selected node.
func (m Model) renderDetailContent() string {
	i := m.Selected()
	if i < 0 {
		return LabelStyle.Render("No node selected")
	}
	s := m.snaps[i]
	r := m.rows[i]
	width := m.detailWidth()

	var sections []string

	sections = append(sections, section("Node", renderStatus(r), width, [][2]string{
		{"Name", r.Name},
		{"Address", r.Address},
		{"Summary URL", node.SummaryURL(s.Host, s.Port)},
		{"Node id", strconv.Itoa(s.ID)},
		{"Successful refreshes", strconv.Itoa(s.SuccessCount)},
		{"Last update", r.LastUpdate},
		{"Last error", orNone(s.LastError)},
	}))

	hashLines := [][2]string{
		{"Current", r.Hashrate10s},
		{"", r.Hashrate1m},
		{"", r.Hashrate15m},
		{"Highest", r.Highest},
	}
	if data := m.history.Get(s.ID, width-28); len(data) > 0 {
		hashLines = append(hashLines, [2]string{"History", RenderSparkline(data, len(data), ColorGraph)})
	}
	sections = append(sections, section("Hashrate", util.FormatHashrate(s.Hashrate10s), width, hashLines))

	sections = append(sections, section("Miner", s.Algo, width, [][2]string{
		{"User agent", s.UserAgent},
		{"Uptime", r.Uptime},
		{"Pool", s.Pool},
		{"Ping", fmt.Sprintf("%d ms", s.Ping)},
		{"Difficulty", strconv.FormatUint(s.Difficulty, 10)},
		{"Pool failures", strconv.FormatInt(s.Failures, 10)},
		{"Shares", strings.TrimPrefix(r.Shares, "Blocks or Shares: ")},
		{"Average share time", util.SecondsToString(s.AvgTime)},
	}))

	sections = append(sections, section("Hardware", "", width, [][2]string{
		{"CPU", s.CPUName},
		{"", r.CPUCores},
		{"Memory", util.FormatMemory(s.MemoryFree, s.MemoryTotal) + " free"},
	}))

	return detailContainerStyle.Render(strings.Join(sections, "\n"))
}

func section(title, value string, width int, rows [][2]string) string {
	lines := []string{SectionHeader(title, value, width)}
	for _, kv := range rows {
		label := LabelStyle.Width(22).Render(kv[0])
		lines = append(lines, SectionContentLine(label+ValueStyle.Render(kv[1]), width))
	}
	lines = append(lines, SectionFooter(width))
	return strings.Join(lines, "\n")
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
