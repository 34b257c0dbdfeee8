// Package monitor implements the interactive terminal dashboard.
//
// The dashboard shows one block per configured node in collection order:
// status, worker name and address, CPU, memory, the three hashrate windows,
// algorithm and user agent, shares and average share time. Offline nodes are
// tinted and keep their last sample; they are never hidden.
//
// # Architecture
//
// The package uses the Bubble Tea framework (Model-Update-View):
//
//   - Model: snapshots, selection, the open form and view mode
//   - Update: keystrokes, completed cycles, redraw ticks, form results
//   - View: renders the list, detail, help or form screen
//
// Refreshing is not done here. A poller runs cycles in its own goroutine and
// the model listens on its Cycles channel; between cycles a one-second tick
// re-reads snapshots so results appear as each node finishes.
//
// Add, edit and remove go through embedded huh forms. The registry call runs
// as a tea.Cmd because it waits for a cycle in flight.
//
// # Keyboard Shortcuts
//
//	q, Ctrl+C   - Quit
//	r           - Refresh all nodes
//	a / e / d   - Add, edit, remove node
//	i           - Set refresh interval
//	j/k, ↑/↓    - Navigate node list
//	Enter       - Node detail view
//	Esc         - Back / cancel form
//	?           - Toggle help overlay
package monitor
