package cli

import (
	"fmt"
	"path/filepath"

	"github.com/n0ctu/xmrig-monitor/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the settings file",
	}
	cmd.AddCommand(newConfigInitCmd(global), newConfigShowCmd(global))
	return cmd
}

func newConfigInitCmd(global *globalOptions) *cobra.Command {
	var force, local bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the defaults",
		Long: `Write a settings file with the default values.

By default the per-user file ~/.config/xmrig-monitor/config.yaml is written.
Use --local for ./.xmrig-monitor.yaml, or --config to pick the path.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := global.configFile
			switch {
			case path != "":
			case local:
				path = config.ConfigFileName
			default:
				path = config.GlobalPath()
			}
			if path == "" {
				path = config.ConfigFileName
			}

			cfg := config.DefaultConfig()
			if global.nodesFile != "" {
				cfg.NodesFile = global.nodesFile
			}
			if err := config.Write(path, cfg, force); err != nil {
				return err
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", abs)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&local, "local", false, "write ./"+config.ConfigFileName+" instead of the per-user file")
	return cmd
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Long: `Print the settings after applying the file, environment overrides
(XMON_*) and flags, with nodes_file fully resolved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.LoadOrDefault(global.configFile)
			if err != nil {
				return err
			}
			if global.nodesFile != "" {
				cfg.NodesFile = config.ExpandTilde(global.nodesFile)
			}

			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# source: %s\n", describePath(path))
			_, err = out.Write(data)
			return err
		},
	}
}
