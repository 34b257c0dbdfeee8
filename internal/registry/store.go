package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	xerrors "github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/observability"
)

// fileIndent is the indentation used when writing the node file.
const fileIndent = "    "

// nodeFile is the persisted form. Only identities are stored.
type nodeFile struct {
	Nodes []node.Identity `json:"nodes"`
}

// load reads the node file at path.
//
// A missing or zero-length file is initialized with an empty node list.
// An unreadable or corrupt file is logged and yields an empty collection;
// the error is returned so the manager can expose it through LoadError.
func (m *Manager) load(path string) ([]*node.Node, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0):
		m.log.Info("Node file %s is missing or empty, creating it", path)
		if err := writeNodeFile(path, nil); err != nil {
			m.reportPersist(err, "init", path)
			return nil, err
		}
		return nil, nil
	case err != nil:
		err = xerrors.WrapWithCode(err, xerrors.ErrPersist,
			fmt.Sprintf("Failed to read node file %s", path),
			"Check the file permissions")
		m.reportPersist(err, "load", path)
		return nil, err
	}

	var f nodeFile
	if err := json.Unmarshal(data, &f); err != nil {
		err = xerrors.WrapWithCode(err, xerrors.ErrPersist,
			fmt.Sprintf("Node file %s is not valid JSON", path),
			`Fix the file or delete it to start with an empty list ({"nodes": []})`)
		m.reportPersist(err, "load", path)
		return nil, err
	}

	nodes := make([]*node.Node, 0, len(f.Nodes))
	for _, id := range f.Nodes {
		n := node.New(id.ID, id.Host, id.Port)
		n.SetLogger(m.log)
		nodes = append(nodes, n)
	}
	m.log.Debug("Loaded %d nodes from %s", len(nodes), path)
	return nodes, nil
}

// save writes identities in display order. Caller holds cycleMu.
// Failures are logged and reported, then returned; memory is not rolled back.
func (m *Manager) save() error {
	m.mu.RLock()
	path := m.path
	ids := make([]node.Identity, 0, len(m.nodes))
	for _, n := range m.nodes {
		ids = append(ids, n.Identity())
	}
	m.mu.RUnlock()

	if err := writeNodeFile(path, ids); err != nil {
		m.reportPersist(err, "save", path)
		return err
	}
	m.log.Debug("Saved %d nodes to %s", len(ids), path)
	return nil
}

func (m *Manager) reportPersist(err error, op, path string) {
	m.log.Error("%s", xerrors.Summary(err))
	observability.CaptureError(err, map[string]string{
		"component": "registry",
		"op":        op,
	}, map[string]interface{}{
		"path": path,
	})
}

func writeNodeFile(path string, ids []node.Identity) error {
	if ids == nil {
		ids = []node.Identity{}
	}
	data, err := json.MarshalIndent(nodeFile{Nodes: ids}, "", fileIndent)
	if err != nil {
		return xerrors.WrapWithCode(err, xerrors.ErrPersist, "Failed to encode node list", "")
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return xerrors.WrapWithCode(err, xerrors.ErrPersist,
				fmt.Sprintf("Failed to create directory %s", dir),
				"Check the directory permissions")
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return xerrors.WrapWithCode(err, xerrors.ErrPersist,
			fmt.Sprintf("Failed to write node file %s", path),
			"Check the file permissions and free disk space")
	}
	return nil
}
