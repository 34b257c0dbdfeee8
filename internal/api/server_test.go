package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/metrics"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	mu       sync.Mutex
	interval int
	triggers int
}

func (f *fakeScheduler) Trigger() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
}

func (f *fakeScheduler) SetInterval(seconds int) bool {
	if seconds <= 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interval = seconds
	return true
}

func (f *fakeScheduler) Interval() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.interval
}

type fixture struct {
	e     *echo.Echo
	reg   *registry.Manager
	sched *fakeScheduler
	path  string
}

func newFixture(t *testing.T, nodesJSON string) *fixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if nodesJSON != "" {
		require.NoError(t, os.WriteFile(path, []byte(nodesJSON), 0644))
	}
	reg := registry.NewManager(path, logger.Noop())
	sched := &fakeScheduler{interval: 5}
	srv := NewServer(reg, sched, logger.Noop())
	e := NewEcho(srv, Options{Metrics: metrics.New(reg).Handler()})
	return &fixture{e: e, reg: reg, sched: sched, path: path}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const twoNodes = `{"nodes": [{"id": 1, "host": "10.0.0.1", "port": 8080}, {"id": 2, "host": "10.0.0.2", "port": 8081}]}`

func TestHealth(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[Health](t, rec).Status)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestListNodes(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodGet, "/api/nodes", "")

	require.Equal(t, http.StatusOK, rec.Code)
	nodes := decode[[]node.Snapshot](t, rec)
	require.Len(t, nodes, 2)
	assert.Equal(t, "10.0.0.2", nodes[1].Host)
	assert.Equal(t, node.NotAvailable, nodes[0].Name)
	assert.Contains(t, rec.Body.String(), `"hashrate_10s":0`)
}

func TestGetNode(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodGet, "/api/nodes/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[node.Snapshot](t, rec).ID)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/nodes/5", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/nodes/abc", "").Code)
}

func TestAddNode(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodPost, "/api/nodes", `{"host":"10.0.0.3","port":9000}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode[node.Identity](t, rec)
	assert.Equal(t, node.Identity{ID: 3, Host: "10.0.0.3", Port: 9000}, id)
	assert.Equal(t, 3, f.reg.Len())
	assert.Equal(t, 1, f.sched.triggers)

	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"host": "10.0.0.3"`)
}

func TestAddNode_Invalid(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/nodes", `{"host":"","port":9000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INPUT", decode[errorBody](t, rec).Code)

	rec = f.do(t, http.MethodPost, "/api/nodes", `{"host":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.reg.Len())
}

func TestEditNode(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodPut, "/api/nodes/0", `{"host":"rig.local","port":3333}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[node.Snapshot](t, rec)
	assert.Equal(t, node.Identity{ID: 1, Host: "rig.local", Port: 3333}, snap.Identity())

	rec = f.do(t, http.MethodPut, "/api/nodes/9", `{"host":"rig.local","port":3333}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "INDEX", decode[errorBody](t, rec).Code)
}

func TestRemoveNode_RequiresConfirm(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodDelete, "/api/nodes/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 2, f.reg.Len())

	rec = f.do(t, http.MethodDelete, "/api/nodes/0?confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[node.Identity](t, rec).ID)
	assert.Equal(t, 1, f.reg.Len())

	rec = f.do(t, http.MethodDelete, "/api/nodes/4?confirm=true", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/nodes/x?confirm=true", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshNode(t *testing.T) {
	miner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"worker_id":"rig-9","hashrate":{"total":[100,90,80]}}`)
	}))
	defer miner.Close()
	f := newFixture(t, "")
	host, port := splitHostPort(t, miner.URL)
	_, err := f.reg.AddNode(host, port)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/nodes/0/refresh", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[node.Snapshot](t, rec)
	assert.True(t, snap.Online)
	assert.Equal(t, "rig-9", snap.Name)
	assert.Equal(t, 100.0, snap.Hashrate10s)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/nodes/3/refresh", "").Code)
}

func TestRefreshNode_Offline(t *testing.T) {
	miner := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer miner.Close()
	f := newFixture(t, "")
	host, port := splitHostPort(t, miner.URL)
	_, err := f.reg.AddNode(host, port)
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/nodes/0/refresh", "")

	require.Equal(t, http.StatusBadGateway, rec.Code, rec.Body.String())
	body := decode[errorBody](t, rec)
	assert.Equal(t, "PROTOCOL", body.Code)
	assert.Contains(t, body.Error, "500")

	snap, err := f.reg.Snapshot(0)
	require.NoError(t, err)
	assert.False(t, snap.Online)
}

func TestRefreshAll(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodPost, "/api/refresh", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, f.sched.triggers)
}

func TestInterval(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(t, http.MethodGet, "/api/interval", "")
	assert.Equal(t, 5, decode[IntervalBody](t, rec).Seconds)

	rec = f.do(t, http.MethodPut, "/api/interval", `{"seconds":30}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, decode[IntervalBody](t, rec).Seconds)

	for _, body := range []string{`{"seconds":0}`, `{"seconds":-4}`, `{"seconds":"fast"}`} {
		rec = f.do(t, http.MethodPut, "/api/interval", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, 30, f.sched.Interval())
}

func TestMetricsRoute(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `xmrig_node_up{host="10.0.0.1",id="1",index="0",port="8080",worker="N/A"} 0`)
}

func TestMetricsRoute_DuplicateEntries(t *testing.T) {
	f := newFixture(t, `{"nodes":[{"id":1,"host":"a","port":1},{"id":1,"host":"a","port":1}]}`)
	require.Equal(t, 2, f.reg.Len())

	rec := f.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `xmrig_node_up{host="a",id="1",index="0",port="1",worker="N/A"} 0`)
	assert.Contains(t, rec.Body.String(), `xmrig_node_up{host="a",id="1",index="1",port="1",worker="N/A"} 0`)
}

func TestNodesFile(t *testing.T) {
	f := newFixture(t, twoNodes)

	rec := f.do(t, http.MethodGet, "/api/nodes-file", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, NodesFileBody{Path: f.path, Nodes: 2}, decode[NodesFileBody](t, rec))

	other := filepath.Join(t.TempDir(), "rigs.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"nodes":[{"id":5,"host":"10.0.0.5","port":3333}]}`), 0644))

	rec = f.do(t, http.MethodPut, "/api/nodes-file", fmt.Sprintf(`{"path":%q}`, other))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, NodesFileBody{Path: other, Nodes: 1}, decode[NodesFileBody](t, rec))
	assert.Equal(t, other, f.reg.Path())
	assert.Equal(t, 1, f.sched.triggers)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/nodes-file", `{"path":"  "}`).Code)
}

func TestNodesFile_LoadError(t *testing.T) {
	f := newFixture(t, twoNodes)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0644))

	rec := f.do(t, http.MethodPut, "/api/nodes-file", fmt.Sprintf(`{"path":%q}`, bad))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "PERSIST", decode[errorBody](t, rec).Code)
	assert.Equal(t, 0, f.reg.Len())
	assert.Equal(t, bad, f.reg.Path())
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	reg := registry.NewManager(filepath.Join(t.TempDir(), "config.json"), logger.Noop())
	e := NewEcho(NewServer(reg, &fakeScheduler{interval: 5}, logger.Noop()), Options{AccessLog: &buf})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"uri":"/health"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func splitHostPort(t *testing.T, raw string) (string, int) {
	t.Helper()
	var host string
	var port int
	trimmed := strings.TrimPrefix(raw, "http://")
	i := strings.LastIndex(trimmed, ":")
	host = trimmed[:i]
	_, err := fmt.Sscanf(trimmed[i+1:], "%d", &port)
	require.NoError(t, err)
	return host, port
}
