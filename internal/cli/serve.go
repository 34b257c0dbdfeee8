package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/n0ctu/xmrig-monitor/internal/api"
	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/metrics"
	"github.com/n0ctu/xmrig-monitor/internal/observability"
	"github.com/n0ctu/xmrig-monitor/internal/poller"
	"github.com/spf13/cobra"
)

// DefaultListen is used by serve when neither --listen nor api.listen is set.
const DefaultListen = "127.0.0.1:8090"

type serveOptions struct {
	listen   string
	interval int
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll nodes in the background and serve the control API",
		Long: `Run the refresh loop without a terminal UI and expose it over HTTP:

  GET    /health                      liveness
  GET    /metrics                     Prometheus metrics
  GET    /api/nodes                   every node
  POST   /api/nodes                   add {"host": "...", "port": 8080}
  GET    /api/nodes/:index            one node
  PUT    /api/nodes/:index            edit {"host": "...", "port": 8080}
  DELETE /api/nodes/:index?confirm=true
  POST   /api/nodes/:index/refresh    refresh one node now
  POST   /api/refresh                 start a cycle now
  GET    /api/interval                current interval
  PUT    /api/interval                {"seconds": 10}
  GET    /api/nodes-file              node file in use
  PUT    /api/nodes-file              switch to {"path": "..."}

Errors are reported to Sentry when SENTRY_DSN is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serveCommand(ctx, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.listen, "listen", "", "address for the control API (default api.listen, then "+DefaultListen+")")
	cmd.Flags().IntVar(&opts.interval, "interval", 0, "refresh interval in seconds (default from settings)")
	return cmd
}

func serveCommand(ctx context.Context, global *globalOptions, opts *serveOptions) error {
	log := logger.NewEnvLogger("[serve]")

	a, err := loadApp(global, log)
	if err != nil {
		return err
	}
	if opts.interval != 0 {
		if opts.interval < 0 {
			return errors.New(errors.ErrInput, "--interval must be a positive number of seconds", "")
		}
		a.cfg.Interval = opts.interval
	}

	listen := firstNonEmpty(opts.listen, a.cfg.API.Listen, DefaultListen)

	flush := startSentry(log)
	defer flush()

	m := metrics.New(a.registry)
	p := a.newPoller(m)

	var accessLog io.Writer
	if a.cfg.API.AccessLog {
		accessLog = os.Stderr
	}

	log.Info("Monitoring %d nodes from %s every %ds, API on http://%s",
		a.registry.Len(), a.registry.Path(), p.Interval(), listen)

	return runLoopAndAPI(ctx, a, p, m, listen, accessLog)
}

// runLoopAndAPI runs the poller and the API until ctx is cancelled or the
// API fails to start.
func runLoopAndAPI(ctx context.Context, a *app, p *poller.Poller, m *metrics.Metrics, listen string, accessLog io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		_ = p.Run(ctx)
	}()

	e := api.NewEcho(api.NewServer(a.registry, p, a.log), api.Options{
		AccessLog: accessLog,
		Sentry:    observability.Enabled(),
		Metrics:   m.Handler(),
	})
	err := api.ListenAndServe(ctx, listen, e)
	if err != nil {
		observability.CaptureError(err, map[string]string{"component": "api"}, nil)
	}

	cancel()
	<-pollDone
	return err
}

// startSentry enables error reporting when SENTRY_DSN is set. A bad DSN is
// logged and otherwise ignored.
func startSentry(log logger.Logger) func() {
	flush, enabled, err := observability.InitSentry("xmrig-monitor@" + version)
	if err != nil {
		log.Warn("Sentry disabled: %v", err)
	} else if enabled {
		log.Debug("Sentry error reporting enabled")
	}
	return flush
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
