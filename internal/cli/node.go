package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/registry"
	"github.com/n0ctu/xmrig-monitor/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Swapped out in tests.
var (
	stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	confirmRemoval  = promptRemoval
)

func newNodeCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage the monitored nodes",
		Long: `List, add, edit, remove and refresh the nodes kept in the node file.

Nodes are addressed by their row number as shown by 'node list'.
Every change is written to the node file immediately.`,
	}

	cmd.AddCommand(
		newNodeListCmd(global),
		newNodeAddCmd(global),
		newNodeEditCmd(global),
		newNodeRemoveCmd(global),
		newNodeRefreshCmd(global),
	)
	return cmd
}

func newNodeListCmd(global *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured nodes without refreshing them",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			a, err := loadApp(global, nil)
			if err != nil {
				return err
			}

			snaps := a.registry.Snapshots()
			out := cmd.OutOrStdout()
			if output != FormatTable {
				return writeSnapshots(out, output, snaps)
			}
			if len(snaps) == 0 {
				fmt.Fprintf(out, "No nodes in %s. Add one with 'xmrig-monitor node add <host> <port>'.\n", a.registry.Path())
				return nil
			}

			rows := make([][]string, 0, len(snaps))
			for i, s := range snaps {
				rows = append(rows, []string{strconv.Itoa(i), strconv.Itoa(s.ID), s.Host, strconv.Itoa(s.Port)})
			}
			fmt.Fprintln(out, ui.RenderSimpleTable([]ui.TableColumn{
				{Title: "#", Width: 4},
				{Title: "ID", Width: 6},
				{Title: "HOST", Width: 32},
				{Title: "PORT", Width: 8},
			}, rows))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", FormatTable, "output format: table, json or yaml")
	return cmd
}

func newNodeAddCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <host> <port>",
		Short: "Add a node",
		Long: `Add an XMRig node by the host and port of its HTTP API.

Examples:
  xmrig-monitor node add 192.168.1.10 8080
  xmrig-monitor node add rig-02.lan 18080`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args[1])
			if err != nil {
				return err
			}
			a, err := loadApp(global, nil)
			if err != nil {
				return err
			}

			id, err := a.registry.AddNode(args[0], port)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Added node %d (%s) as row %d\n",
				ui.SymbolSuccess, id.ID, ui.Address(id.Host, id.Port), a.registry.Len()-1)
			return nil
		},
	}
}

func newNodeEditCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <index> <host> <port>",
		Short: "Change the host and port of a node",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := registry.ParseIndex(args[0])
			if err != nil {
				return err
			}
			port, err := parsePort(args[2])
			if err != nil {
				return err
			}
			a, err := loadApp(global, nil)
			if err != nil {
				return err
			}

			if err := a.registry.Edit(index, args[1], port); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Node %d now points at %s\n",
				ui.SymbolSuccess, index, ui.Address(strings.TrimSpace(args[1]), port))
			return nil
		},
	}
}

func newNodeRemoveCmd(global *globalOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "remove <index>",
		Aliases: []string{"rm"},
		Short:   "Remove a node",
		Long: `Remove the node at the given row. You are asked to confirm unless
--yes is passed; without a terminal --yes is required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := registry.ParseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := loadApp(global, nil)
			if err != nil {
				return err
			}
			snap, err := a.registry.Snapshot(index)
			if err != nil {
				return err
			}

			if !yes {
				if !stdinIsTerminal() {
					return errors.New(errors.ErrInput,
						"Refusing to remove a node without confirmation",
						"Pass --yes to remove it non-interactively")
				}
				ok, err := confirmRemoval(fmt.Sprintf("Remove node %d (%s)?", index, ui.Address(snap.Host, snap.Port)))
				if err != nil {
					return errors.WrapWithCode(err, errors.ErrInput,
						"Failed to get user input",
						"Pass --yes to skip the prompt")
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			id, err := a.registry.Remove(index)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Removed node %d (%s)\n",
				ui.SymbolSuccess, id.ID, ui.Address(id.Host, id.Port))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newNodeRefreshCmd(global *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "refresh <index>",
		Short: "Refresh a single node and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(output); err != nil {
				return err
			}
			index, err := registry.ParseIndex(args[0])
			if err != nil {
				return err
			}
			a, err := loadApp(global, logger.Noop())
			if err != nil {
				return err
			}

			refreshErr := a.registry.RefreshNode(cmd.Context(), index)
			if errors.IsCode(refreshErr, errors.ErrIndex) {
				return refreshErr
			}

			snap, err := a.registry.Snapshot(index)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if output != FormatTable {
				if err := writeSnapshots(out, output, []node.Snapshot{snap}); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, ui.RenderNodeTable(ui.NodeRows([]node.Snapshot{snap})))
			}
			return refreshErr
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", FormatTable, "output format: table, json or yaml")
	return cmd
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.New(errors.ErrInput,
			fmt.Sprintf("Invalid port %q", s),
			"Use the port XMRig's HTTP API listens on, between 1 and 65535")
	}
	return port, nil
}

func promptRemoval(title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Remove").
				Negative("Cancel").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
