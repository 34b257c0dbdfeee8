package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/n0ctu/xmrig-monitor/internal/errors"
)

// Validate checks the settings for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but xmrig-monitor only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade xmrig-monitor")
	}

	if strings.TrimSpace(cfg.NodesFile) == "" {
		return errors.New(errors.ErrConfig,
			"nodes_file is empty",
			"Set nodes_file to the JSON file holding your nodes, e.g. config.json")
	}

	if cfg.Interval <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("interval must be a positive number of seconds, got %d", cfg.Interval),
			fmt.Sprintf("Try interval: %d", DefaultInterval))
	}

	if cfg.Timeout < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("timeout can't be negative, got %s", cfg.Timeout),
			"Use 0 to disable the per-node timeout, or something like 10s")
	}

	if cfg.Concurrency < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("concurrency must be at least 1, got %d", cfg.Concurrency),
			"Use 1 to refresh nodes one at a time")
	}

	if cfg.API.Listen != "" {
		if _, _, err := net.SplitHostPort(cfg.API.Listen); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("api.listen %q is not a host:port address", cfg.API.Listen),
				"Try api.listen: 127.0.0.1:8090")
		}
	}

	switch cfg.Output.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("output.color %q isn't one of auto, always, never", cfg.Output.Color),
			"Pick auto unless you need to force it")
	}

	return nil
}
