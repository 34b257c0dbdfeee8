package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	nodesFile  string
	verbose    bool
	noColor    bool
}

// colorDisabled reports whether --no-color or NO_COLOR asked for plain output.
func (o *globalOptions) colorDisabled() bool {
	return o.noColor || os.Getenv("NO_COLOR") != ""
}

var rootCmd = newRootCmd()

// newRootCmd builds the full command tree. Tests build a fresh tree per case
// so flag values never leak between them.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "xmrig-monitor",
		Short: "Watch XMRig miners through their HTTP API",
		Long: `xmrig-monitor polls the HTTP API of every configured XMRig miner
(http://host:port/2/summary) and shows hashrate, shares, uptime and
hardware details for each one.

Nodes are kept in a JSON file (nodes_file, default config.json) and can be
managed from the dashboard, the node subcommands or the control API.

Examples:
  xmrig-monitor node add 192.168.1.10 8080
  xmrig-monitor monitor
  xmrig-monitor status -o json
  xmrig-monitor serve --listen 127.0.0.1:8090`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(opts.verbose)
			if opts.colorDisabled() {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "settings file (default ./.xmrig-monitor.yaml, then ~/.config/xmrig-monitor/config.yaml)")
	pf.StringVar(&opts.nodesFile, "nodes", "", "node file, overrides nodes_file from the settings")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "print debug logging")
	pf.BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newMonitorCmd(opts),
		newServeCmd(opts),
		newStatusCmd(opts),
		newNodeCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	os.Exit(run(rootCmd, os.Args[1:], os.Stderr))
}

// run executes cmd with args and returns the process exit code.
func run(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		return 0
	}

	if code, ok := errors.GetExitCode(err); ok {
		return code
	}

	if isUnknownCommandError(err) {
		fmt.Fprintf(stderr, "✗ %s\n", err)
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(stderr, "\n  '%s' isn't an xmrig-monitor command. Run 'xmrig-monitor --help' to see them.\n", name)
		}
		return 2
	}

	fmt.Fprint(stderr, err.Error())
	if !strings.HasSuffix(err.Error(), "\n") {
		fmt.Fprintln(stderr)
	}
	return 1
}

// isUnknownCommandError reports whether cobra rejected the command line itself.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "xmrig-monitor"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
