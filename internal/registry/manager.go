package registry

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	xerrors "github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/util"
)

// DefaultTimeout bounds a single node refresh when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Manager owns the ordered node collection and the file backing it.
//
// Two locks are involved. cycleMu serializes whole refresh cycles against
// structural mutations (add, edit, remove, open) including their save, so an
// index captured at the start of a cycle always addresses the same node.
// mu guards the slice itself and is only held briefly, so readers such as the
// dashboard never wait for a cycle in flight.
type Manager struct {
	cycleMu sync.Mutex

	mu      sync.RWMutex
	path    string
	nodes   []*node.Node
	loadErr error

	log         logger.Logger
	client      node.Doer
	timeout     time.Duration
	concurrency int
}

// NewManager creates a manager for the node file at path and loads it.
// Load failures never surface here; see LoadError.
func NewManager(path string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewEnvLogger("[registry]")
	}
	m := &Manager{
		path:        path,
		log:         log,
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		concurrency: 1,
	}
	m.nodes, m.loadErr = m.load(path)
	return m
}

// SetHTTPClient replaces the client used for refreshes. nil is ignored.
func (m *Manager) SetHTTPClient(c node.Doer) {
	if c == nil {
		return
	}
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	m.client = c
}

// SetTimeout sets the per-node refresh timeout. Zero or negative disables it.
func (m *Manager) SetTimeout(d time.Duration) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	m.timeout = d
}

// SetConcurrency sets how many nodes a cycle refreshes at once.
// Values below 1 mean 1, the strictly sequential cycle.
func (m *Manager) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	m.concurrency = n
}

// Path returns the node file currently in use.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// LoadError returns the error swallowed by the last load, if any.
func (m *Manager) LoadError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loadErr
}

// Len returns the number of nodes.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

// Snapshots returns a consistent copy of every node in display order.
func (m *Manager) Snapshots() []node.Snapshot {
	m.mu.RLock()
	nodes := append([]*node.Node(nil), m.nodes...)
	m.mu.RUnlock()

	out := make([]node.Snapshot, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Snapshot())
	}
	return out
}

// Snapshot returns the node at index.
func (m *Manager) Snapshot(index int) (node.Snapshot, error) {
	n, err := m.at(index)
	if err != nil {
		return node.Snapshot{}, err
	}
	return n.Snapshot(), nil
}

// Open switches to another node file and loads it. The previous collection
// is dropped; nothing is saved to the old file.
func (m *Manager) Open(path string) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	nodes, err := m.load(path)

	m.mu.Lock()
	m.path = path
	m.nodes = nodes
	m.loadErr = err
	m.mu.Unlock()

	return err
}

// ParseIndex converts user input into a node index.
// It only checks that s is an integer; bounds are checked by the operation.
func ParseIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, xerrors.WrapWithCode(err, xerrors.ErrIndex,
			fmt.Sprintf("Invalid node index %q", s),
			"Use the row number shown by `xmrig-monitor node list`")
	}
	return i, nil
}

// RefreshNode refreshes the node at index once.
// An out-of-range index is logged and nothing happens; the INDEX error is
// returned for callers that want to report it. A failed refresh is logged
// and its error returned; the node keeps its previous sample.
func (m *Manager) RefreshNode(ctx context.Context, index int) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	n, err := m.at(index)
	if err != nil {
		m.log.Warn("%s", xerrors.Summary(err))
		return err
	}
	return m.refreshOne(ctx, n)
}

// RefreshAll runs one refresh cycle over every node in collection order.
// Each node gets exactly one attempt. With concurrency above 1 up to that
// many refreshes run at once; the cycle still waits for all of them.
func (m *Manager) RefreshAll(ctx context.Context) CycleStats {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	m.mu.RLock()
	nodes := append([]*node.Node(nil), m.nodes...)
	m.mu.RUnlock()

	stats := CycleStats{Started: time.Now(), Nodes: len(nodes)}

	var failed int
	if m.concurrency <= 1 || len(nodes) <= 1 {
		for _, n := range nodes {
			if ctx.Err() != nil {
				failed = len(nodes) - stats.Online
				break
			}
			if err := m.refreshOne(ctx, n); err != nil {
				failed++
				continue
			}
			stats.Online++
		}
	} else {
		var mu sync.Mutex
		var wg sync.WaitGroup
		sem := make(chan struct{}, m.concurrency)

		for _, n := range nodes {
			wg.Add(1)
			sem <- struct{}{}
			go func(n *node.Node) {
				defer wg.Done()
				defer func() { <-sem }()

				err := m.refreshOne(ctx, n)

				mu.Lock()
				if err != nil {
					failed++
				} else {
					stats.Online++
				}
				mu.Unlock()
			}(n)
		}
		wg.Wait()
	}

	stats.Failed = failed
	stats.Duration = time.Since(stats.Started)
	m.log.Debug("refresh cycle: %d/%d online in %s",
		stats.Online, stats.Nodes, stats.Duration.Round(time.Millisecond))
	return stats
}

// refreshOne performs one bounded refresh. Caller holds cycleMu.
func (m *Manager) refreshOne(ctx context.Context, n *node.Node) error {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	err := n.Refresh(ctx, m.client)
	if err != nil {
		m.log.Warn("%s", xerrors.Summary(err))
	}
	return err
}

// Add appends n and saves. The node is kept even when the save fails.
func (m *Manager) Add(n *node.Node) error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	m.mu.Lock()
	m.nodes = append(m.nodes, n)
	m.mu.Unlock()

	return m.save()
}

// AddNode creates a node with the next free id, appends it and saves.
func (m *Manager) AddNode(host string, port int) (node.Identity, error) {
	host = strings.TrimSpace(host)
	if err := validateAddress(host, port); err != nil {
		return node.Identity{}, err
	}

	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	m.mu.Lock()
	n := node.New(nextID(m.nodes), host, port)
	n.SetLogger(m.log)
	m.nodes = append(m.nodes, n)
	m.mu.Unlock()

	return n.Identity(), m.save()
}

// Edit changes the host and port of the node at index and saves.
// The node keeps its previous sample until the next refresh.
func (m *Manager) Edit(index int, host string, port int) error {
	host = strings.TrimSpace(host)
	if err := validateAddress(host, port); err != nil {
		return err
	}

	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	n, err := m.at(index)
	if err != nil {
		m.log.Warn("%s", xerrors.Summary(err))
		return err
	}
	n.SetIdentity(host, port)

	return m.save()
}

// Remove deletes the node at index and saves.
// Callers are expected to have confirmed the removal with the user.
func (m *Manager) Remove(index int) (node.Identity, error) {
	return m.remove(index, 0, false)
}

// RemoveID deletes the node at index only if it still has the given id, so a
// removal confirmed against a stale row can't hit a node that moved into it.
func (m *Manager) RemoveID(index, id int) (node.Identity, error) {
	return m.remove(index, id, true)
}

// remove deletes the node at index. With checkID the node must have id.
func (m *Manager) remove(index, id int, checkID bool) (node.Identity, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	m.mu.Lock()
	if index < 0 || index >= len(m.nodes) {
		err := indexError(index, len(m.nodes))
		m.mu.Unlock()
		m.log.Warn("%s", xerrors.Summary(err))
		return node.Identity{}, err
	}
	removed := m.nodes[index]
	if checkID && removed.ID() != id {
		m.mu.Unlock()
		err := xerrors.New(xerrors.ErrIndex,
			fmt.Sprintf("Node at row %d is now node %d, not node %d", index, removed.ID(), id),
			"The node list changed; select the node again")
		m.log.Warn("%s", xerrors.Summary(err))
		return node.Identity{}, err
	}
	m.nodes = append(m.nodes[:index:index], m.nodes[index+1:]...)
	m.mu.Unlock()

	return removed.Identity(), m.save()
}

// Save writes the node identities to the node file.
func (m *Manager) Save() error {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return m.save()
}

func (m *Manager) at(index int) (*node.Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.nodes) {
		return nil, indexError(index, len(m.nodes))
	}
	return m.nodes[index], nil
}

func indexError(index, count int) error {
	return xerrors.New(xerrors.ErrIndex,
		fmt.Sprintf("Node index %d out of range (%s configured)", index, util.CountNoun(count, "node", "nodes")),
		"Use the row number shown by `xmrig-monitor node list`")
}

func validateAddress(host string, port int) error {
	if host == "" {
		return xerrors.New(xerrors.ErrInput, "Host is required",
			"Pass the address XMRig's HTTP API listens on, e.g. 192.168.1.10")
	}
	if port == 0 {
		return xerrors.New(xerrors.ErrInput, "Port is required",
			"Pass the port of XMRig's HTTP API, e.g. 8080")
	}
	return nil
}

// nextID returns one more than the largest id in use, so ids stay unique
// after removals.
func nextID(nodes []*node.Node) int {
	id := 0
	for _, n := range nodes {
		if v := n.ID(); v > id {
			id = v
		}
	}
	return id + 1
}

// CycleStats summarizes one refresh cycle.
type CycleStats struct {
	Started  time.Time
	Duration time.Duration
	Nodes    int
	Online   int
	Failed   int
}
