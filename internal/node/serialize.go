package node

import "time"

// Serialize returns every field of the node keyed by its snake_case name.
// The map is for diagnostics output; persistence only ever stores Identity.
func (n *Node) Serialize() map[string]any {
	return n.Snapshot().Map()
}

// Map flattens a snapshot into the serialized key set.
// Timestamps are RFC 3339, or empty when they never happened.
func (s Snapshot) Map() map[string]any {
	return map[string]any{
		"id":               s.ID,
		"host":             s.Host,
		"port":             s.Port,
		"name":             s.Name,
		"online":           s.Online,
		"success_count":    s.SuccessCount,
		"ua":               s.UserAgent,
		"uptime":           s.Uptime,
		"algo":             s.Algo,
		"pool":             s.Pool,
		"ping":             s.Ping,
		"failures":         s.Failures,
		"difficulty":       s.Difficulty,
		"hashrate_10s":     s.Hashrate10s,
		"hashrate_1m":      s.Hashrate1m,
		"hashrate_15m":     s.Hashrate15m,
		"highest_hashrate": s.HighestHashrate,
		"cpu_name":         s.CPUName,
		"cores":            s.Cores,
		"threads":          s.Threads,
		"memory_free":      s.MemoryFree,
		"memory_total":     s.MemoryTotal,
		"shares_good":      s.SharesGood,
		"shares_total":     s.SharesTotal,
		"avg_time":         s.AvgTime,
		"last_update":      timestamp(s.LastUpdate),
		"last_attempt":     timestamp(s.LastAttempt),
		"last_error":       s.LastError,
	}
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
