package cli

import (
	"context"
	stderrors "errors"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/metrics"
	"github.com/n0ctu/xmrig-monitor/internal/monitor"
	"github.com/spf13/cobra"
)

// debugLogFile receives log output while the dashboard owns the terminal.
const debugLogFile = "xmrig-monitor-debug.log"

type monitorOptions struct {
	listen   string
	interval int
}

func newMonitorCmd(global *globalOptions) *cobra.Command {
	opts := &monitorOptions{}

	cmd := &cobra.Command{
		Use:     "monitor",
		Aliases: []string{"dashboard"},
		Short:   "Open the live dashboard",
		Long: `Open a terminal dashboard that refreshes every node on the configured
interval. Nodes can be added, edited and removed from inside the dashboard.

Press ? inside the dashboard for all key bindings. With --listen the
control API and /metrics are served alongside the dashboard.

Log output is discarded while the dashboard runs; set XMON_DEBUG=1 to write
it to ` + debugLogFile + ` instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return monitorCommand(cmd.Context(), global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "also serve the control API on this address (default api.listen)")
	cmd.Flags().IntVar(&opts.interval, "interval", 0, "refresh interval in seconds (default from settings)")
	return cmd
}

func monitorCommand(ctx context.Context, global *globalOptions, opts *monitorOptions) error {
	restore, logOut, err := redirectLogs()
	if err != nil {
		return err
	}
	defer restore()

	l := logger.NewEnvLogger("[monitor]")
	a, err := loadApp(global, l)
	if err != nil {
		return err
	}
	if opts.interval != 0 {
		if opts.interval < 0 {
			return errors.New(errors.ErrInput, "--interval must be a positive number of seconds", "")
		}
		a.cfg.Interval = opts.interval
	}

	flush := startSentry(l)
	defer flush()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	listen := firstNonEmpty(opts.listen, a.cfg.API.Listen)
	var m *metrics.Metrics
	if listen != "" {
		m = metrics.New(a.registry)
	}
	p := a.newPoller(m)

	model := monitor.NewModel(a.registry, p)
	if loadErr := a.registry.LoadError(); loadErr != nil {
		model = model.WithError(loadErr)
	}
	prog := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	apiErr := make(chan error, 1)
	if listen != "" {
		var accessLog io.Writer
		if a.cfg.API.AccessLog {
			accessLog = logOut
		}
		go func() {
			err := runLoopAndAPI(ctx, a, p, m, listen, accessLog)
			if err != nil {
				// The dashboard can't show this; quit and report it.
				prog.Quit()
			}
			apiErr <- err
		}()
	} else {
		go func() {
			_ = p.Run(ctx)
			apiErr <- nil
		}()
	}

	_, err = prog.Run()

	cancel()
	if serveErr := <-apiErr; serveErr != nil {
		return serveErr
	}
	if err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// redirectLogs moves the standard logger off the terminal for the lifetime
// of the dashboard. The returned writer is where redirected output goes.
func redirectLogs() (restore func(), out io.Writer, err error) {
	prevOut, prevFlags, prevPrefix := log.Writer(), log.Flags(), log.Prefix()
	restore = func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		log.SetPrefix(prevPrefix)
	}

	if !logger.DebugEnabled() {
		log.SetOutput(io.Discard)
		return restore, io.Discard, nil
	}

	f, err := tea.LogToFile(debugLogFile, "")
	if err != nil {
		return func() {}, nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open "+debugLogFile,
			"Run from a writable directory or unset XMON_DEBUG")
	}
	return func() {
		restore()
		_ = f.Close()
	}, f, nil
}
