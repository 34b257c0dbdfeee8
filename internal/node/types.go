package node

import "time"

// Sentinel values shown before a node has ever answered.
const (
	NotAvailable = "N/A"
	// Unknown fills string fields a successful payload left out.
	Unknown = "Unknown"
	// NoTitle fills the worker name when the payload has no worker_id.
	NoTitle = "No Title"
)

// Identity is the persisted part of a node.
type Identity struct {
	ID   int    `json:"id"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Status is the last-known sample reported by a node's /2/summary endpoint.
// A Status value is never mutated after it is published; refresh builds a
// new one and swaps it in.
type Status struct {
	Online       bool
	SuccessCount int

	Name       string
	UserAgent  string
	Uptime     int64 // seconds
	Algo       string
	Pool       string
	Ping       int64 // ms
	Failures   int64
	Difficulty uint64

	Hashrate10s     float64
	Hashrate1m      float64
	Hashrate15m     float64
	HighestHashrate float64

	CPUName string
	Cores   int
	Threads int

	MemoryFree  int64
	MemoryTotal int64

	SharesGood  int64
	SharesTotal int64
	AvgTime     int64 // seconds

	LastUpdate time.Time

	// Attempt bookkeeping, updated by every refresh whatever its outcome.
	LastAttempt time.Time
	LastError   string
}

// UnknownStatus returns the sentinel sample of a node that was never refreshed.
func UnknownStatus() Status {
	return Status{
		Name:      NotAvailable,
		UserAgent: NotAvailable,
		Algo:      NotAvailable,
		Pool:      NotAvailable,
		CPUName:   NotAvailable,
	}
}

// Refreshed reports whether the node has answered successfully at least once.
func (s Status) Refreshed() bool {
	return s.SuccessCount > 0
}

// Attempted reports whether a refresh has run at all.
func (s Status) Attempted() bool {
	return !s.LastAttempt.IsZero()
}

// Snapshot is a consistent copy of a node's identity and status, taken under
// the node's lock. It is the view model handed to every presentation layer.
type Snapshot struct {
	ID     int    `json:"id"`
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Online bool   `json:"online"`

	SuccessCount    int       `json:"success_count"`
	Name            string    `json:"name"`
	UserAgent       string    `json:"ua"`
	Uptime          int64     `json:"uptime"`
	Algo            string    `json:"algo"`
	Pool            string    `json:"pool"`
	Ping            int64     `json:"ping"`
	Failures        int64     `json:"failures"`
	Difficulty      uint64    `json:"difficulty"`
	Hashrate10s     float64   `json:"hashrate_10s"`
	Hashrate1m      float64   `json:"hashrate_1m"`
	Hashrate15m     float64   `json:"hashrate_15m"`
	HighestHashrate float64   `json:"highest_hashrate"`
	CPUName         string    `json:"cpu_name"`
	Cores           int       `json:"cores"`
	Threads         int       `json:"threads"`
	MemoryFree      int64     `json:"memory_free"`
	MemoryTotal     int64     `json:"memory_total"`
	SharesGood      int64     `json:"shares_good"`
	SharesTotal     int64     `json:"shares_total"`
	AvgTime         int64     `json:"avg_time"`
	LastUpdate      time.Time `json:"last_update"`
	LastAttempt     time.Time `json:"last_attempt"`
	LastError       string    `json:"last_error,omitempty"`
}

func newSnapshot(id Identity, s Status) Snapshot {
	return Snapshot{
		ID:              id.ID,
		Host:            id.Host,
		Port:            id.Port,
		Online:          s.Online,
		SuccessCount:    s.SuccessCount,
		Name:            s.Name,
		UserAgent:       s.UserAgent,
		Uptime:          s.Uptime,
		Algo:            s.Algo,
		Pool:            s.Pool,
		Ping:            s.Ping,
		Failures:        s.Failures,
		Difficulty:      s.Difficulty,
		Hashrate10s:     s.Hashrate10s,
		Hashrate1m:      s.Hashrate1m,
		Hashrate15m:     s.Hashrate15m,
		HighestHashrate: s.HighestHashrate,
		CPUName:         s.CPUName,
		Cores:           s.Cores,
		Threads:         s.Threads,
		MemoryFree:      s.MemoryFree,
		MemoryTotal:     s.MemoryTotal,
		SharesGood:      s.SharesGood,
		SharesTotal:     s.SharesTotal,
		AvgTime:         s.AvgTime,
		LastUpdate:      s.LastUpdate,
		LastAttempt:     s.LastAttempt,
		LastError:       s.LastError,
	}
}

// Identity returns the identity part of the snapshot.
func (s Snapshot) Identity() Identity {
	return Identity{ID: s.ID, Host: s.Host, Port: s.Port}
}
