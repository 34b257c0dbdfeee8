package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	xerrors "github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/poller"
	"github.com/n0ctu/xmrig-monitor/internal/ui"
)

// Store is the node registry as seen by the dashboard.
// *registry.Manager implements it.
type Store interface {
	Snapshots() []node.Snapshot
	AddNode(host string, port int) (node.Identity, error)
	Edit(index int, host string, port int) error
	RemoveID(index, id int) (node.Identity, error)
	Open(path string) error
	Path() string
}

// Scheduler drives refresh cycles. *poller.Poller implements it.
type Scheduler interface {
	Trigger()
	SetInterval(seconds int) bool
	Interval() int
	Cycles() <-chan poller.CycleResult
}

// Height breakpoints for layout adjustments
const (
	HeightMinimal  = 12
	HeightStandard = 30
)

// redrawInterval re-reads snapshots between cycles so per-node results and
// the "last update" age stay current.
const redrawInterval = time.Second

// Model is the Bubble Tea model for the node dashboard.
type Model struct {
	store   Store
	sched   Scheduler
	history *History

	snaps    []node.Snapshot
	rows     []ui.NodeRow
	selected int

	width  int
	height int

	lastCycle  poller.CycleResult
	lastUpdate time.Time
	refreshing bool
	spinner    spinner.Model

	viewMode ViewMode
	showHelp bool
	quitting bool

	// Active huh form, nil when none is open.
	form  *huh.Form
	input *formInput

	notice    string
	noticeErr bool

	detailViewport viewport.Model
	viewportReady  bool
}

// tickMsg signals a periodic redraw.
type tickMsg time.Time

// cycleMsg carries a completed refresh cycle from the scheduler.
type cycleMsg poller.CycleResult

// actionMsg reports the outcome of an add, edit, remove or open.
type actionMsg struct {
	notice string
	err    error
	// opened is set when another node file replaced the collection.
	opened bool
}

// NewModel creates a dashboard over store, refreshed by sched.
// The first cycle is assumed to be running already.
func NewModel(store Store, sched Scheduler) Model {
	s := spinner.New(spinner.WithSpinner(ui.SpinnerFrames))
	s.Style = StatusPendingStyle

	m := Model{
		store:      store,
		sched:      sched,
		history:    NewHistory(DefaultHistorySize),
		refreshing: true,
		spinner:    s,
	}
	m.reload()
	return m
}

// WithError returns m showing err in the footer until the next notice,
// e.g. a node file that failed to load.
func (m Model) WithError(err error) Model {
	m.setNotice("", err)
	return m
}

// Init starts the redraw timer, the spinner and the cycle listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tickCmd(),
		m.waitForCycle(),
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil

	case tickMsg:
		m.reload()
		return m, m.tickCmd()

	case cycleMsg:
		m.lastCycle = poller.CycleResult(msg)
		m.lastUpdate = time.Now()
		m.refreshing = false
		m.reload()
		m.recordHistory()
		return m, m.waitForCycle()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionMsg:
		if msg.opened {
			// Ids from the old file mean nothing in the new one.
			m.history = NewHistory(DefaultHistorySize)
			m.selected = 0
			m.viewMode = ViewList
		}
		m.setNotice(msg.notice, msg.err)
		m.reload()
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}
	}

	if m.viewMode == ViewDetail && m.viewportReady {
		var cmd tea.Cmd
		m.detailViewport, cmd = m.detailViewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.form != nil {
		return m.renderForm()
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.viewMode == ViewDetail {
		return m.renderDetailView()
	}
	return m.renderDashboard()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(redrawInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForCycle blocks on the scheduler's cycle channel. The dashboard is
// its only reader.
func (m Model) waitForCycle() tea.Cmd {
	ch := m.sched.Cycles()
	return func() tea.Msg {
		res, ok := <-ch
		if !ok {
			return nil
		}
		return cycleMsg(res)
	}
}

// reload re-reads snapshots and keeps the selection in range.
func (m *Model) reload() {
	m.snaps = m.store.Snapshots()
	m.rows = ui.NodeRows(m.snaps)

	switch {
	case len(m.rows) == 0:
		m.selected = 0
		if m.viewMode == ViewDetail {
			m.viewMode = ViewList
		}
	case m.selected >= len(m.rows):
		m.selected = len(m.rows) - 1
	}

	if m.viewMode == ViewDetail {
		m.updateDetailViewportContent()
	}
}

// recordHistory stores the 10s hashrate of every node that answered.
func (m *Model) recordHistory() {
	ids := make(map[int]bool, len(m.snaps))
	for _, s := range m.snaps {
		ids[s.ID] = true
		if s.Online {
			m.history.Push(s.ID, s.Hashrate10s)
		}
	}
	m.history.Retain(ids)
}

func (m *Model) setNotice(text string, err error) {
	if err != nil {
		m.notice = xerrors.Summary(err)
		m.noticeErr = true
		return
	}
	m.notice = text
	m.noticeErr = false
}

// OnlineCount returns the number of nodes whose last refresh succeeded.
func (m Model) OnlineCount() int {
	count := 0
	for _, r := range m.rows {
		if r.State == ui.StateOnline {
			count++
		}
	}
	return count
}

// Selected returns the index of the selected row, or -1 when there are no nodes.
func (m Model) Selected() int {
	if len(m.rows) == 0 {
		return -1
	}
	return m.selected
}

// SecondsSinceUpdate returns how many seconds have passed since the last cycle.
func (m Model) SecondsSinceUpdate() int {
	if m.lastUpdate.IsZero() {
		return 0
	}
	return int(time.Since(m.lastUpdate).Seconds())
}

// ShowFooter returns true if the terminal is tall enough to show the footer.
// Before the first WindowSizeMsg the height is unknown and the footer is shown.
func (m Model) ShowFooter() bool {
	return m.height == 0 || m.height >= HeightMinimal
}

func (m *Model) resizeViewport() {
	// header and footer
	headerHeight := 3
	footerHeight := 2
	h := m.height - headerHeight - footerHeight
	if h < 1 {
		h = 1
	}

	if !m.viewportReady {
		m.detailViewport = viewport.New(m.width, h)
		m.detailViewport.YPosition = headerHeight
		m.viewportReady = true
	} else {
		m.detailViewport.Width = m.width
		m.detailViewport.Height = h
	}

	if m.viewMode == ViewDetail {
		m.updateDetailViewportContent()
	}
}
