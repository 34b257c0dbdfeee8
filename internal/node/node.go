package node

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	xerrors "github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
)

// Doer is the part of *http.Client a node needs. Tests substitute their own.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Node is one monitored XMRig endpoint together with its last-known status.
// Identity and status are guarded by mu; readers always get copies, so a
// dashboard never observes a half-applied refresh.
type Node struct {
	mu       sync.RWMutex
	identity Identity
	status   Status

	log logger.Logger
	now func() time.Time
}

// New creates a node with the given identity and sentinel status.
func New(id int, host string, port int) *Node {
	return &Node{
		identity: Identity{ID: id, Host: host, Port: port},
		status:   UnknownStatus(),
		log:      logger.NewEnvLogger("[node]"),
		now:      time.Now,
	}
}

// SetLogger replaces the node's logger. nil is ignored.
func (n *Node) SetLogger(l logger.Logger) {
	if l == nil {
		return
	}
	n.mu.Lock()
	n.log = l
	n.mu.Unlock()
}

// ID returns the node's numeric id.
func (n *Node) ID() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.identity.ID
}

// Identity returns a copy of the node's identity.
func (n *Node) Identity() Identity {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.identity
}

// SetIdentity changes host and port. The id never changes.
// The previous status is kept until the next refresh replaces it.
func (n *Node) SetIdentity(host string, port int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.identity.Host = host
	n.identity.Port = port
}

// Status returns a copy of the last-known status.
func (n *Node) Status() Status {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.status
}

// Snapshot returns identity and status captured together.
func (n *Node) Snapshot() Snapshot {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return newSnapshot(n.identity, n.status)
}

// URL returns the summary endpoint for the node's current identity.
func (n *Node) URL() string {
	id := n.Identity()
	return SummaryURL(id.Host, id.Port)
}

// SummaryURL builds http://host:port/2/summary, bracketing IPv6 literals.
func SummaryURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + SummaryPath
}

// Refresh performs one GET against the node's summary endpoint and publishes
// the outcome. On success the node goes online with a fresh sample. On any
// failure (transport, non-200, malformed payload) the node goes offline, the
// previous sample is retained, and the returned error says which kind it was.
// There is no retry; the caller bounds the attempt through ctx.
func (n *Node) Refresh(ctx context.Context, client Doer) error {
	url := n.URL()

	sum, err := n.fetch(ctx, client, url)
	if err != nil {
		n.markOffline(err)
		return err
	}

	n.mu.Lock()
	next := sum.apply(n.status)
	next.LastUpdate = n.now()
	next.LastAttempt = next.LastUpdate
	n.status = next
	log := n.log
	n.mu.Unlock()

	log.Info("%s current hashrate: %v, blocks or shares: %d/%d",
		next.Name, next.Hashrate10s, next.SharesGood, next.SharesTotal)
	return nil
}

func (n *Node) fetch(ctx context.Context, client Doer, url string) (*summary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, xerrors.WrapWithCode(err, xerrors.ErrTransport,
			fmt.Sprintf("Invalid node address %s", url),
			"Check the node's host and port")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, xerrors.WrapWithCode(err, xerrors.ErrTransport,
			fmt.Sprintf("Failed to connect to %s", url),
			"Check that XMRig is running with its HTTP API enabled")
	}
	defer func() {
		// Drain so the keep-alive connection can be reused next cycle.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxSummaryBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, xerrors.New(xerrors.ErrProtocol,
			fmt.Sprintf("%s answered %s", url, resp.Status),
			"Check the API port and that the endpoint needs no access token")
	}

	return decodeSummary(resp.Body)
}

// markOffline flips online to false and records the failure. The sample
// fields are left untouched.
func (n *Node) markOffline(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	next := n.status
	next.Online = false
	next.LastAttempt = n.now()
	next.LastError = xerrors.Summary(err)
	n.status = next
}
