package ui

import (
	"fmt"
	"net"
	"strconv"

	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/util"
)

// Display widths for long strings.
const (
	CPUNameWidth   = 25
	UserAgentWidth = 15
)

// NodeState is the display state of a node.
type NodeState int

const (
	// StatePending: never answered.
	StatePending NodeState = iota
	StateOnline
	// StateOffline: last refresh failed. Fields may hold a stale sample.
	StateOffline
)

// Label returns the word shown in the status column.
func (s NodeState) Label() string {
	switch s {
	case StateOnline:
		return "Online"
	case StateOffline:
		return "Offline"
	default:
		return "Pending"
	}
}

// Symbol returns the status glyph.
func (s NodeState) Symbol() string {
	switch s {
	case StateOnline:
		return SymbolOnline
	case StateOffline:
		return SymbolFail
	default:
		return SymbolPending
	}
}

// NodeRow is the per-row view model: every display string for one node,
// keyed by field rather than by widget position.
type NodeRow struct {
	Index int
	State NodeState
	Stale bool // offline but showing an earlier sample
	Error string

	Name    string
	Address string

	CPU      string
	CPUCores string
	Memory   string

	Hashrate10s string
	Hashrate1m  string
	Hashrate15m string
	Highest     string

	Algo      string
	UserAgent string
	Pool      string

	Shares  string
	AvgTime string
	Uptime  string

	LastUpdate string
}

// NewNodeRow formats a snapshot at display position index.
func NewNodeRow(index int, s node.Snapshot) NodeRow {
	state := StatePending
	switch {
	case s.Online:
		state = StateOnline
	case !s.LastAttempt.IsZero():
		state = StateOffline
	}

	last := node.NotAvailable
	if !s.LastUpdate.IsZero() {
		last = s.LastUpdate.Local().Format("15:04:05")
	}

	return NodeRow{
		Index:       index,
		State:       state,
		Stale:       state == StateOffline && s.SuccessCount > 0,
		Error:       s.LastError,
		Name:        s.Name,
		Address:     Address(s.Host, s.Port),
		CPU:         util.Shorten(s.CPUName, CPUNameWidth),
		CPUCores:    fmt.Sprintf("Cores: %d / Threads: %d", s.Cores, s.Threads),
		Memory:      "Memory Free: " + util.FormatMemory(s.MemoryFree, s.MemoryTotal),
		Hashrate10s: fmt.Sprintf("%s (10s)", formatRate(s.Hashrate10s)),
		Hashrate1m:  fmt.Sprintf("%s (1m)", formatRate(s.Hashrate1m)),
		Hashrate15m: fmt.Sprintf("%s (15m)", formatRate(s.Hashrate15m)),
		Highest:     util.FormatHashrate(s.HighestHashrate),
		Algo:        s.Algo,
		UserAgent:   util.Shorten(s.UserAgent, UserAgentWidth),
		Pool:        s.Pool,
		Shares:      fmt.Sprintf("Blocks or Shares: %d/%d", s.SharesGood, s.SharesTotal),
		AvgTime:     "Avg Time: " + util.SecondsToString(s.AvgTime),
		Uptime:      util.SecondsToString(s.Uptime),
		LastUpdate:  last,
	}
}

// NodeRows formats every snapshot in order.
func NodeRows(snaps []node.Snapshot) []NodeRow {
	rows := make([]NodeRow, 0, len(snaps))
	for i, s := range snaps {
		rows = append(rows, NewNodeRow(i, s))
	}
	return rows
}

// Address renders host:port, bracketing IPv6 literals.
func Address(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func formatRate(hs float64) string {
	return strconv.FormatFloat(hs, 'f', -1, 64)
}
