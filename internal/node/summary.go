package node

import (
	"encoding/json"
	"fmt"
	"io"

	xerrors "github.com/n0ctu/xmrig-monitor/internal/errors"
)

// SummaryPath is the XMRig HTTP API route polled on every refresh.
const SummaryPath = "/2/summary"

// hashrateWindows is the number of entries expected in hashrate.total (10s, 1m, 15m).
const hashrateWindows = 3

// maxSummaryBytes caps how much of a response body is read.
const maxSummaryBytes = 1 << 20

// summary mirrors the subset of the /2/summary document we display.
// Pointers distinguish "key missing" from "key present with zero value".
// Numbers are decoded as float64 because XMRig is not consistent about
// emitting integers for counters.
type summary struct {
	WorkerID *string  `json:"worker_id"`
	UA       *string  `json:"ua"`
	Uptime   *float64 `json:"uptime"`
	Algo     *string  `json:"algo"`

	Connection *struct {
		Pool     *string  `json:"pool"`
		Ping     *float64 `json:"ping"`
		Failures *float64 `json:"failures"`
		Diff     *float64 `json:"diff"`
	} `json:"connection"`

	Hashrate *struct {
		Total   []*float64 `json:"total"`
		Highest *float64   `json:"highest"`
	} `json:"hashrate"`

	CPU *struct {
		Brand   *string  `json:"brand"`
		Cores   *float64 `json:"cores"`
		Threads *float64 `json:"threads"`
	} `json:"cpu"`

	Resources *struct {
		Memory *struct {
			Free  *float64 `json:"free"`
			Total *float64 `json:"total"`
		} `json:"memory"`
	} `json:"resources"`

	Results *struct {
		SharesGood  *float64 `json:"shares_good"`
		SharesTotal *float64 `json:"shares_total"`
		AvgTime     *float64 `json:"avg_time"`
	} `json:"results"`
}

// decodeSummary parses and validates a /2/summary body.
// Every field except the hashrate windows falls back to a default when
// missing; a hashrate.total list with fewer than three entries is a PAYLOAD
// error so the caller can treat the node as offline.
func decodeSummary(r io.Reader) (*summary, error) {
	var s summary
	if err := json.NewDecoder(io.LimitReader(r, maxSummaryBytes)).Decode(&s); err != nil {
		return nil, xerrors.WrapWithCode(err, xerrors.ErrPayload,
			"Malformed summary payload",
			"The endpoint did not return XMRig summary JSON")
	}

	if s.Hashrate == nil || len(s.Hashrate.Total) < hashrateWindows {
		got := 0
		if s.Hashrate != nil {
			got = len(s.Hashrate.Total)
		}
		return nil, xerrors.New(xerrors.ErrPayload,
			fmt.Sprintf("hashrate.total has %d entries, expected %d", got, hashrateWindows),
			"Check that the endpoint is an XMRig HTTP API")
	}

	return &s, nil
}

// apply builds the next Status from a decoded summary.
// prev supplies the success counter; everything else comes from the payload.
func (s *summary) apply(prev Status) Status {
	next := Status{
		Online:       true,
		SuccessCount: prev.SuccessCount + 1,

		Name:      stringOr(s.WorkerID, NoTitle),
		UserAgent: stringOr(s.UA, Unknown),
		Uptime:    int64(numberOr(s.Uptime)),
		Algo:      stringOr(s.Algo, Unknown),
		Pool:      Unknown,
		CPUName:   Unknown,

		Hashrate10s: numberOr(s.Hashrate.Total[0]),
		Hashrate1m:  numberOr(s.Hashrate.Total[1]),
		Hashrate15m: numberOr(s.Hashrate.Total[2]),
		// XMRig reports null before the first full window.
		HighestHashrate: numberOr(s.Hashrate.Highest),
	}

	if c := s.Connection; c != nil {
		next.Pool = stringOr(c.Pool, Unknown)
		next.Ping = int64(numberOr(c.Ping))
		next.Failures = int64(numberOr(c.Failures))
		next.Difficulty = uint64(numberOr(c.Diff))
	}

	if c := s.CPU; c != nil {
		next.CPUName = stringOr(c.Brand, Unknown)
		next.Cores = int(numberOr(c.Cores))
		next.Threads = int(numberOr(c.Threads))
	}

	if s.Resources != nil && s.Resources.Memory != nil {
		next.MemoryFree = int64(numberOr(s.Resources.Memory.Free))
		next.MemoryTotal = int64(numberOr(s.Resources.Memory.Total))
	}

	if r := s.Results; r != nil {
		next.SharesGood = int64(numberOr(r.SharesGood))
		next.SharesTotal = int64(numberOr(r.SharesTotal))
		next.AvgTime = int64(numberOr(r.AvgTime))
	}

	return next
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func numberOr(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
