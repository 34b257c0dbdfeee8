package monitor

import (
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/poller"
	"github.com/n0ctu/xmrig-monitor/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

type fakeStore struct {
	mu      sync.Mutex
	snaps   []node.Snapshot
	added   []string
	edited  []string
	removed []int
	err     error

	path    string
	next    []node.Snapshot
	openErr error
}

func (f *fakeStore) Snapshots() []node.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]node.Snapshot(nil), f.snaps...)
}

func (f *fakeStore) AddNode(host string, port int) (node.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return node.Identity{}, f.err
	}
	f.added = append(f.added, fmt.Sprintf("%s:%d", host, port))
	id := node.Identity{ID: len(f.snaps) + 1, Host: host, Port: port}
	f.snaps = append(f.snaps, node.New(id.ID, host, port).Snapshot())
	return id, nil
}

func (f *fakeStore) Edit(index int, host string, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.edited = append(f.edited, fmt.Sprintf("%d=%s:%d", index, host, port))
	return nil
}

func (f *fakeStore) RemoveID(index, id int) (node.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return node.Identity{}, f.err
	}
	s := f.snaps[index]
	if s.ID != id {
		return node.Identity{}, fmt.Errorf("row %d is node %d, not %d", index, s.ID, id)
	}
	f.removed = append(f.removed, index)
	f.snaps = append(f.snaps[:index:index], f.snaps[index+1:]...)
	return node.Identity{ID: s.ID, Host: s.Host, Port: s.Port}, nil
}

// Open replaces the collection with next, failing with openErr if set.
func (f *fakeStore) Open(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = path
	f.snaps = f.next
	return f.openErr
}

func (f *fakeStore) Path() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.path == "" {
		return "/tmp/nodes.json"
	}
	return f.path
}

type fakeScheduler struct {
	triggers int
	interval int
	cycles   chan poller.CycleResult
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{interval: 5, cycles: make(chan poller.CycleResult, 1)}
}

func (f *fakeScheduler) Trigger() { f.triggers++ }

func (f *fakeScheduler) SetInterval(seconds int) bool {
	if seconds <= 0 {
		return false
	}
	f.interval = seconds
	return true
}

func (f *fakeScheduler) Interval() int { return f.interval }

func (f *fakeScheduler) Cycles() <-chan poller.CycleResult { return f.cycles }

func onlineSnap(id int, name string, rate float64) node.Snapshot {
	s := node.New(id, fmt.Sprintf("10.0.0.%d", id), 8080).Snapshot()
	now := time.Now()
	s.Online = true
	s.SuccessCount = 1
	s.Name = name
	s.Algo = "rx/0"
	s.UserAgent = "XMRig/6.21.0"
	s.CPUName = "AMD Ryzen 9 5950X"
	s.Hashrate10s = rate
	s.LastUpdate = now
	s.LastAttempt = now
	return s
}

func offlineSnap(id int) node.Snapshot {
	s := node.New(id, fmt.Sprintf("10.0.0.%d", id), 8080).Snapshot()
	s.LastAttempt = time.Now()
	s.LastError = "Failed to connect to http://10.0.0.9:8080/2/summary"
	return s
}

func newTestModel(snaps ...node.Snapshot) (Model, *fakeStore, *fakeScheduler) {
	store := &fakeStore{snaps: snaps}
	sched := newFakeScheduler()
	return NewModel(store, sched), store, sched
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestNewModel(t *testing.T) {
	m, _, _ := newTestModel(onlineSnap(1, "rig-a", 100), offlineSnap(2))

	assert.Len(t, m.rows, 2)
	assert.Equal(t, 0, m.Selected())
	assert.Equal(t, 1, m.OnlineCount())
	assert.True(t, m.refreshing)
	assert.NotNil(t, m.Init())
}

func TestModel_Selected_Empty(t *testing.T) {
	m, _, _ := newTestModel()
	assert.Equal(t, -1, m.Selected())
}

func TestModel_CycleMsg(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 100))
	store.snaps[0].Hashrate10s = 150

	m, cmd := update(t, m, cycleMsg(poller.CycleResult{Seq: 1, CycleStats: registry.CycleStats{Nodes: 1, Online: 1}}))

	assert.NotNil(t, cmd, "listens for the next cycle")
	assert.False(t, m.refreshing)
	assert.Equal(t, 1, m.lastCycle.Seq)
	assert.False(t, m.lastUpdate.IsZero())
	assert.Equal(t, 150.0, m.snaps[0].Hashrate10s)
	assert.Equal(t, []float64{150}, m.history.Get(1, 10))
}

func TestModel_CycleMsg_SkipsOfflineHistory(t *testing.T) {
	m, _, _ := newTestModel(offlineSnap(1))

	m, _ = update(t, m, cycleMsg(poller.CycleResult{Seq: 1}))

	assert.Equal(t, 0, m.history.Count(1))
}

func TestModel_WaitForCycle(t *testing.T) {
	m, _, sched := newTestModel()
	sched.cycles <- poller.CycleResult{Seq: 4}

	msg := m.waitForCycle()()

	got, ok := msg.(cycleMsg)
	require.True(t, ok)
	assert.Equal(t, 4, got.Seq)
}

func TestModel_TickReloads(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 100))
	store.snaps = append(store.snaps, onlineSnap(2, "rig-b", 200))

	m, cmd := update(t, m, tickMsg(time.Now()))

	assert.NotNil(t, cmd)
	assert.Len(t, m.rows, 2)
}

func TestModel_Navigation(t *testing.T) {
	m, _, _ := newTestModel(onlineSnap(1, "a", 1), onlineSnap(2, "b", 1), onlineSnap(3, "c", 1))

	m, _ = update(t, m, key("up"))
	assert.Equal(t, 0, m.selected, "stays at the top")

	m, _ = update(t, m, key("down"))
	m, _ = update(t, m, key("j"))
	assert.Equal(t, 2, m.selected)

	m, _ = update(t, m, key("down"))
	assert.Equal(t, 2, m.selected, "stays at the bottom")

	m, _ = update(t, m, key("k"))
	assert.Equal(t, 1, m.selected)
}

func TestModel_SelectionClampedAfterRemoval(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "a", 1), onlineSnap(2, "b", 1))
	m.selected = 1
	store.snaps = store.snaps[:1]

	m, _ = update(t, m, tickMsg(time.Now()))

	assert.Equal(t, 0, m.selected)
}

func TestModel_Refresh(t *testing.T) {
	m, _, sched := newTestModel(onlineSnap(1, "a", 1))
	m.refreshing = false

	m, _ = update(t, m, key("r"))

	assert.Equal(t, 1, sched.triggers)
	assert.True(t, m.refreshing)
}

func TestModel_Quit(t *testing.T) {
	m, _, _ := newTestModel()

	m, cmd := update(t, m, key("q"))

	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_HelpToggle(t *testing.T) {
	m, _, _ := newTestModel()

	m, _ = update(t, m, key("?"))
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	assert.Contains(t, m.View(), "/tmp/nodes.json")

	m, _ = update(t, m, key("esc"))
	assert.False(t, m.showHelp)
}

func TestModel_DetailView(t *testing.T) {
	m, _, _ := newTestModel(onlineSnap(1, "rig-a", 512))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 60})

	m, _ = update(t, m, key("enter"))
	require.Equal(t, ViewDetail, m.viewMode)

	view := m.View()
	assert.Contains(t, view, "rig-a")
	assert.Contains(t, view, "http://10.0.0.1:8080/2/summary")
	assert.Contains(t, view, "Hashrate")

	m, _ = update(t, m, key("esc"))
	assert.Equal(t, ViewList, m.viewMode)
}

func TestModel_DetailIgnoredWithoutNodes(t *testing.T) {
	m, _, _ := newTestModel()

	m, _ = update(t, m, key("enter"))

	assert.Equal(t, ViewList, m.viewMode)
}

func TestModel_EditAndDeleteNeedSelection(t *testing.T) {
	m, _, _ := newTestModel()

	m, _ = update(t, m, key("e"))
	assert.Nil(t, m.form)

	m, _ = update(t, m, key("d"))
	assert.Nil(t, m.form)
}

func TestModel_OpenForms(t *testing.T) {
	m, _, _ := newTestModel(onlineSnap(1, "rig-a", 1))

	m, _ = update(t, m, key("a"))
	require.NotNil(t, m.form)
	assert.Equal(t, formAdd, m.input.kind)
	assert.Contains(t, m.View(), "Add node")

	m, _ = update(t, m, key("esc"))
	assert.Nil(t, m.form, "esc closes the form")

	m, _ = update(t, m, key("e"))
	require.NotNil(t, m.form)
	assert.Equal(t, "10.0.0.1", m.input.host)
	assert.Equal(t, "8080", m.input.port)
	m, _ = update(t, m, key("ctrl+c"))
	assert.Nil(t, m.form)
	assert.False(t, m.quitting, "ctrl+c in a form only closes the form")

	m, _ = update(t, m, key("i"))
	require.NotNil(t, m.form)
	assert.Equal(t, "5", m.input.interval)
}

func TestModel_SubmitAdd(t *testing.T) {
	m, store, sched := newTestModel()

	cmd := m.submit(&formInput{kind: formAdd, host: " 10.0.0.5 ", port: "3333"})
	require.NotNil(t, cmd)
	msg := cmd()

	assert.Equal(t, []string{"10.0.0.5:3333"}, store.added)
	assert.Equal(t, 1, sched.triggers)
	am, ok := msg.(actionMsg)
	require.True(t, ok)
	assert.NoError(t, am.err)
	assert.Contains(t, am.notice, "10.0.0.5:3333")

	m, _ = update(t, m, am)
	assert.Len(t, m.rows, 1)
	assert.Contains(t, m.View(), "Added node 1")
}

func TestModel_SubmitEdit(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 1))

	msg := m.submit(&formInput{kind: formEdit, index: 0, host: "rig.lan", port: "9090"})()

	assert.Equal(t, []string{"0=rig.lan:9090"}, store.edited)
	assert.NoError(t, msg.(actionMsg).err)
}

func TestModel_SubmitError(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 1))
	store.err = fmt.Errorf("disk full")

	msg := m.submit(&formInput{kind: formEdit, index: 0, host: "rig.lan", port: "9090"})()
	m, _ = update(t, m, msg)

	assert.True(t, m.noticeErr)
	assert.Equal(t, "disk full", m.notice)
}

func TestModel_SubmitDelete(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 1), onlineSnap(2, "rig-b", 1))

	cmd := m.submit(&formInput{kind: formDelete, index: 1, confirm: false})
	assert.Nil(t, cmd)
	assert.Empty(t, store.removed)
	assert.Equal(t, "Removal cancelled", m.notice)

	msg := m.submit(&formInput{kind: formDelete, index: 1, id: 2, confirm: true})()
	assert.Equal(t, []int{1}, store.removed)
	assert.Contains(t, msg.(actionMsg).notice, "10.0.0.2:8080")
}

func TestModel_DeleteConfirmedAgainstStaleRow(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 1), onlineSnap(2, "rig-b", 1))

	m, _ = update(t, m, key("d"))
	require.NotNil(t, m.form)
	in := m.input
	assert.Equal(t, 1, in.id)

	// Node 1 disappears (e.g. through the API) while the dialog is open.
	store.snaps = store.snaps[1:]
	in.confirm = true
	msg := m.submit(in)()

	assert.Error(t, msg.(actionMsg).err)
	assert.Empty(t, store.removed)
	assert.Len(t, store.Snapshots(), 1, "node 2 is kept")
}

func TestModel_OpenNodeFile(t *testing.T) {
	m, store, sched := newTestModel(onlineSnap(1, "rig-a", 100))
	m, _ = update(t, m, cycleMsg{})
	require.Equal(t, 1, m.history.Count(1))

	m, _ = update(t, m, key("o"))
	require.NotNil(t, m.form)
	assert.Equal(t, formOpen, m.input.kind)
	assert.Equal(t, "/tmp/nodes.json", m.input.path)
	assert.Contains(t, m.View(), "Node file")
	m, _ = update(t, m, key("esc"))

	store.next = []node.Snapshot{offlineSnap(7), offlineSnap(8)}
	msg := m.submit(&formInput{kind: formOpen, path: " /srv/rigs.json "})()
	m, _ = update(t, m, msg)

	assert.Equal(t, "/srv/rigs.json", store.Path())
	assert.Equal(t, 1, sched.triggers)
	assert.Len(t, m.rows, 2)
	assert.Equal(t, 0, m.history.Count(1), "history is reset for the new file")
	assert.Equal(t, "Opened /srv/rigs.json", m.notice)
}

func TestModel_OpenNodeFile_LoadError(t *testing.T) {
	m, store, _ := newTestModel(onlineSnap(1, "rig-a", 100))
	store.openErr = fmt.Errorf("node file /srv/bad.json is not valid JSON")

	msg := m.submit(&formInput{kind: formOpen, path: "/srv/bad.json"})()
	m, _ = update(t, m, msg)

	assert.True(t, m.noticeErr)
	assert.Empty(t, m.rows)
	assert.Contains(t, m.View(), "is not valid JSON")
}

func TestModel_SubmitInterval(t *testing.T) {
	m, _, sched := newTestModel()

	assert.Nil(t, m.submit(&formInput{kind: formInterval, interval: "30"}))
	assert.Equal(t, 30, sched.interval)
	assert.Equal(t, "Refreshing every 30s", m.notice)

	m.submit(&formInput{kind: formInterval, interval: "0"})
	assert.Equal(t, 30, sched.interval)
	assert.True(t, m.noticeErr)
}

func TestValidators(t *testing.T) {
	assert.Error(t, validateHost("  "))
	assert.NoError(t, validateHost("rig"))

	assert.Error(t, validatePort("x"))
	assert.Error(t, validatePort("0"))
	assert.Error(t, validatePort("70000"))
	assert.NoError(t, validatePort("8080"))

	assert.Error(t, validateInterval("-1"))
	assert.NoError(t, validateInterval("10"))

	assert.Error(t, validatePath(" "))
	assert.NoError(t, validatePath("nodes.json"))
}

func TestModel_WithError(t *testing.T) {
	m, _, _ := newTestModel()

	m = m.WithError(fmt.Errorf("node file is not valid JSON"))

	assert.True(t, m.noticeErr)
	assert.Contains(t, m.View(), "node file is not valid JSON")
}
