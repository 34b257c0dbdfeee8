package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `# xmrig-monitor settings
# The node list lives in nodes_file; manage it with 'xmrig-monitor node add'.
# Every key can be overridden with an XMON_ environment variable,
# e.g. XMON_INTERVAL=10 or XMON_API_LISTEN=127.0.0.1:8090.

`

// Marshal renders cfg as YAML with the explanatory header.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't generate the config file",
			"This is unexpected - please report this bug!")
	}
	return append([]byte(fileHeader), data...), nil
}

// Write saves cfg to path, creating parent directories. An existing file is
// only replaced when overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s already exists", path),
				"Pass --force to overwrite it")
		}
	}

	content, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't create %s", filepath.Dir(path)),
			"Check that you have write permissions.")
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write config file to %s", path),
			"Check that you have write permissions.")
	}
	return nil
}
