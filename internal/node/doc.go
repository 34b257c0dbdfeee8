// Package node models a single XMRig endpoint and its last-known status.
//
// A Node owns two things: an Identity (id, host, port) that is persisted by
// the registry, and a Status sample that only ever lives in memory. Refresh
// performs exactly one GET against http://host:port/2/summary and either
// publishes a brand-new Status (online) or flips the existing one offline,
// keeping the stale figures so a dashboard can still show them.
//
// Failures are reported as coded errors from internal/errors:
//
//	TRANSPORT  connection refused, DNS, timeout
//	PROTOCOL   any status other than 200
//	PAYLOAD    body is not JSON, or hashrate.total has fewer than 3 entries
//
// All three are handled the same way by the node; the code only matters for
// the log line the caller writes.
package node
