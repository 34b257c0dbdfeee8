// Package cli implements the xmrig-monitor command-line interface.
//
// Every command is a cobra.Command built by a newXxxCmd constructor that
// closes over the shared globalOptions. newRootCmd assembles a fresh tree,
// so tests can run commands in isolation.
//
// # Command Structure
//
//	xmrig-monitor monitor                    - Interactive dashboard
//	xmrig-monitor serve                      - Refresh loop plus control API
//	xmrig-monitor status                     - One refresh cycle, printed
//	xmrig-monitor node [list|add|edit|remove|refresh]
//	xmrig-monitor config [init|show]
//	xmrig-monitor version
//
// # Startup
//
// Commands that touch nodes start from loadApp: settings are resolved
// (--config, ./.xmrig-monitor.yaml, then the per-user file), --nodes is
// applied, the settings are validated and the node file is loaded into a
// registry.Manager. Long-running commands then wrap the manager in a
// poller.Poller.
//
// # Errors and Exit Codes
//
// Commands return structured errors from internal/errors; run prints them
// and exits 1. ExitError carries a specific code without extra output, and
// an unknown command exits 2.
package cli
