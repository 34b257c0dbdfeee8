package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the settings file looked up in the current directory.
	ConfigFileName = ".xmrig-monitor.yaml"
	// GlobalConfigDir is the directory for the per-user settings file.
	GlobalConfigDir = ".config/xmrig-monitor"
	// GlobalConfigFile is the per-user settings file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. XMON_INTERVAL.
	EnvPrefix = "XMON"
)

// Load reads settings from the specified path. Environment variables
// override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'xmrig-monitor config init' to create one, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the settings file using the search order:
// 1. Explicit path (from --config flag)
// 2. .xmrig-monitor.yaml in the current directory
// 3. ~/.config/xmrig-monitor/config.yaml
//
// Returns the path to the settings file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns the per-user settings path, or "" without a home directory.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads the settings file Find locates for explicit, or the
// defaults (still subject to environment overrides) when there is none.
// The returned path is "" when defaults were used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("nodes_file", d.NodesFile)
	v.SetDefault("interval", d.Interval)
	v.SetDefault("timeout", d.Timeout.String())
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("strict_load", d.StrictLoad)
	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("api.access_log", d.API.AccessLog)
	v.SetDefault("output.color", d.Output.Color)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "the environment"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	cfg.NodesFile = ResolveNodesFile(cfg.NodesFile, path)
	return cfg, nil
}

// ResolveNodesFile expands ~ and makes a relative nodes file path relative to
// the settings file's directory. Without a settings file it stays relative to
// the working directory.
func ResolveNodesFile(nodesFile, configPath string) string {
	p := ExpandTilde(nodesFile)
	if p == "" || filepath.IsAbs(p) || configPath == "" {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
