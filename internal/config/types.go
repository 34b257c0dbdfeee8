package config

import "time"

// CurrentConfigVersion is the schema version for the settings file.
// Increment when making breaking changes to the settings structure.
const CurrentConfigVersion = 1

// Config represents the complete settings file.
// The node list itself lives in the separate JSON file named by NodesFile.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// NodesFile is the JSON file holding the monitored nodes.
	// Relative paths resolve against the settings file's directory.
	NodesFile string `yaml:"nodes_file" mapstructure:"nodes_file"`

	// Interval between refresh cycles in whole seconds.
	Interval int `yaml:"interval" mapstructure:"interval"`

	// Timeout bounds a single node refresh.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Concurrency is how many nodes a cycle refreshes at once. 1 is sequential.
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	// StrictLoad turns a corrupt or unreadable node file into a startup error
	// instead of starting with an empty list.
	StrictLoad bool `yaml:"strict_load" mapstructure:"strict_load"`

	API    APIConfig    `yaml:"api" mapstructure:"api"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// APIConfig controls the optional HTTP control API.
type APIConfig struct {
	// Listen is the address to serve on, e.g. 127.0.0.1:8090. Empty disables the API.
	Listen string `yaml:"listen" mapstructure:"listen"`

	// AccessLog writes one JSON line per request to stderr.
	AccessLog bool `yaml:"access_log" mapstructure:"access_log"`
}

// Values of output.color.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// OutputConfig controls terminal output.
type OutputConfig struct {
	// Color: auto, always, never. --no-color and NO_COLOR override it.
	Color string `yaml:"color" mapstructure:"color"`
}

// Defaults.
const (
	DefaultNodesFile   = "config.json"
	DefaultInterval    = 5
	DefaultTimeout     = 10 * time.Second
	DefaultConcurrency = 1
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:     CurrentConfigVersion,
		NodesFile:   DefaultNodesFile,
		Interval:    DefaultInterval,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}
