package cli

import (
	"fmt"
	"io"

	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by -o.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	}
	return errors.New(errors.ErrInput,
		fmt.Sprintf("Unknown output format %q", format),
		"Use -o table, -o json or -o yaml")
}

// writeSnapshots renders snaps in a machine-readable format.
// JSON is wrapped in the usual envelope; YAML is the bare list.
func writeSnapshots(w io.Writer, format string, snaps []node.Snapshot) error {
	switch format {
	case FormatJSON:
		if snaps == nil {
			snaps = []node.Snapshot{}
		}
		return WriteJSONSuccess(w, snaps)
	case FormatYAML:
		list := make([]map[string]any, 0, len(snaps))
		for _, s := range snaps {
			list = append(list, s.Map())
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"nodes": list}); err != nil {
			return err
		}
		return enc.Close()
	}
	return validateFormat(format)
}
