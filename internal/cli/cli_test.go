package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

const minerSummary = `{
	"worker_id": "rig-01",
	"ua": "XMRig/6.21.0 (Linux x86_64) libuv/1.44.2",
	"uptime": 3725,
	"algo": "rx/0",
	"connection": {"pool": "pool.supportxmr.com:443", "ping": 42},
	"hashrate": {"total": [100.5, 90, 80], "highest": 123.5},
	"cpu": {"brand": "AMD Ryzen 9 5950X", "cores": 16, "threads": 32},
	"resources": {"memory": {"free": 8589934592, "total": 34359738368}},
	"results": {"shares_good": 7, "shares_total": 8, "avg_time": 65}
}`

// isolate gives the test its own home and working directory so no real
// settings file is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

// executeCommand runs a fresh command tree with args and returns its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// minerServer starts a fake XMRig API and returns its host and port.
func minerServer(t *testing.T) (string, string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/summary" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(minerSummary))
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Hostname(), u.Port()
}

// deadAddress returns a host and port nothing listens on.
func deadAddress(t *testing.T) (string, string) {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()
	return u.Hostname(), u.Port()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
