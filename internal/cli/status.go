package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/ui"
	"github.com/spf13/cobra"
)

type statusOptions struct {
	output      string
	failOffline bool
}

func newStatusCmd(global *globalOptions) *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh every node once and print the result",
		Long: `Run a single refresh cycle over all configured nodes and print one row
per node. Offline nodes are listed with their last error.

Examples:
  xmrig-monitor status
  xmrig-monitor status -o json
  xmrig-monitor status --fail-offline   # exit 1 when any node is offline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return statusCommand(ctx, cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", FormatTable, "output format: table, json or yaml")
	cmd.Flags().BoolVar(&opts.failOffline, "fail-offline", false, "exit with status 1 when any node is offline")
	return cmd
}

func statusCommand(ctx context.Context, cmd *cobra.Command, global *globalOptions, opts *statusOptions) error {
	if err := validateFormat(opts.output); err != nil {
		return err
	}

	// The table already shows per-node failures, so the log stays quiet there
	// unless asked. Machine output keeps stdout clean and logs go to stderr.
	log := logger.Noop()
	if opts.output != FormatTable || logger.DebugEnabled() {
		log = logger.NewEnvLogger("[status]")
	}

	a, err := loadApp(global, log)
	if err != nil {
		return err
	}

	stats := a.registry.RefreshAll(ctx)
	if ctx.Err() != nil {
		return errors.New(errors.ErrTransport, "Refresh interrupted", "")
	}
	snaps := a.registry.Snapshots()

	out := cmd.OutOrStdout()
	if opts.output != FormatTable {
		if err := writeSnapshots(out, opts.output, snaps); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, ui.RenderNodeTable(ui.NodeRows(snaps)))
		for i, s := range snaps {
			if !s.Online && s.LastError != "" {
				fmt.Fprintf(out, "%s %d: %s\n", ui.SymbolFail, i, s.LastError)
			}
		}
		if stats.Nodes > 0 {
			fmt.Fprintf(out, "\n%d/%d online, refreshed in %s\n", stats.Online, stats.Nodes, stats.Duration.Round(time.Millisecond))
		}
	}

	if opts.failOffline && stats.Failed > 0 {
		return errors.NewExitError(1)
	}
	return nil
}
