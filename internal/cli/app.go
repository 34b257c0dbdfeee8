package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/n0ctu/xmrig-monitor/internal/config"
	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/metrics"
	"github.com/n0ctu/xmrig-monitor/internal/poller"
	"github.com/n0ctu/xmrig-monitor/internal/registry"
)

// app is the state every command starts from: resolved settings and the
// loaded node registry.
type app struct {
	cfg      *config.Config
	cfgPath  string
	registry *registry.Manager
	log      logger.Logger
}

// loadApp resolves settings, applies flag overrides, validates them and
// loads the node file.
//
// A node file that can't be read or parsed leaves the registry empty; the
// registry has already logged why. With strict_load the error is returned
// instead so nothing can overwrite the broken file.
func loadApp(opts *globalOptions, log logger.Logger) (*app, error) {
	if log == nil {
		log = logger.NewEnvLogger("[xmrig-monitor]")
	}

	cfg, path, err := config.LoadOrDefault(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.nodesFile != "" {
		cfg.NodesFile = config.ExpandTilde(opts.nodesFile)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	applyColorMode(cfg.Output.Color, opts.colorDisabled())

	mgr := registry.NewManager(cfg.NodesFile, log)
	if err := mgr.LoadError(); err != nil && cfg.StrictLoad {
		return nil, errors.New(errors.ErrPersist,
			"Refusing to start with an unreadable node file (strict_load is on): "+errors.Summary(err),
			"Fix "+cfg.NodesFile+" or turn off strict_load to start with an empty list")
	}
	mgr.SetTimeout(cfg.Timeout)
	mgr.SetConcurrency(cfg.Concurrency)

	log.Debug("settings: %s, nodes: %s (%d)", describePath(path), cfg.NodesFile, mgr.Len())

	return &app{cfg: cfg, cfgPath: path, registry: mgr, log: log}, nil
}

// newPoller creates the driver loop for the registry. When m is non-nil
// every cycle is recorded in it.
func (a *app) newPoller(m *metrics.Metrics) *poller.Poller {
	p := poller.New(a.registry, a.cfg.Interval, a.log)
	if m != nil {
		p.OnCycle(func(res poller.CycleResult) {
			m.ObserveCycle(res.CycleStats)
		})
	}
	return p
}

// applyColorMode sets the terminal color profile from output.color.
// --no-color and NO_COLOR win over the setting; auto keeps the detected profile.
func applyColorMode(mode string, disabled bool) {
	switch {
	case disabled || mode == config.ColorNever:
		lipgloss.SetColorProfile(termenv.Ascii)
	case mode == config.ColorAlways:
		lipgloss.SetColorProfile(termenv.ANSI256)
	}
}

func describePath(path string) string {
	if path == "" {
		return "defaults"
	}
	return path
}
