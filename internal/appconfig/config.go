package appconfig

import (
	"os"
	"path/filepath"

	"pkt.systems/optimus/internal/registry"
	"pkt.systems/optimus/schema"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Shell         ShellConfig   `mapstructure:"shell" yaml:"shell"`
	Windows       WindowsConfig `mapstructure:"windows" yaml:"windows"`
	Host          HostConfig    `mapstructure:"host" yaml:"host"`
	HTTP          HTTPConfig    `mapstructure:"http" yaml:"http"`
	Events        EventsConfig  `mapstructure:"events" yaml:"events"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Host kinds.
const (
	HostMemory = "memory"
	HostChrome = "chrome"
)

// ShellConfig controls orchestration behavior.
type ShellConfig struct {
	ObserverWindow     string   `mapstructure:"observer_window" yaml:"observer_window"`
	PrimaryWindow      string   `mapstructure:"primary_window" yaml:"primary_window"`
	OpenPrimaryOnStart bool     `mapstructure:"open_primary_on_start" yaml:"open_primary_on_start"`
	CommandTargets     []string `mapstructure:"command_targets" yaml:"command_targets"`
	Debug              bool     `mapstructure:"debug" yaml:"debug"`
}

// WindowsConfig describes the window registry and creation options.
type WindowsConfig struct {
	BaseURL   string            `mapstructure:"base_url" yaml:"base_url"`
	Locations map[string]string `mapstructure:"locations" yaml:"locations"`
	Options   WindowOptions     `mapstructure:"options" yaml:"options"`
}

// WindowOptions mirrors schema.WindowOptions for config files.
type WindowOptions struct {
	Decorations     bool    `mapstructure:"decorations" yaml:"decorations"`
	Width           float64 `mapstructure:"width" yaml:"width"`
	Height          float64 `mapstructure:"height" yaml:"height"`
	DevtoolsOnDebug bool    `mapstructure:"devtools_on_debug" yaml:"devtools_on_debug"`
}

// HostConfig selects the window host.
type HostConfig struct {
	Kind   string       `mapstructure:"kind" yaml:"kind"`
	Chrome ChromeConfig `mapstructure:"chrome" yaml:"chrome"`
}

// ChromeConfig configures the Chrome-backed host.
type ChromeConfig struct {
	ExecPath    string `mapstructure:"exec_path" yaml:"exec_path"`
	Headless    bool   `mapstructure:"headless" yaml:"headless"`
	NoSandbox   bool   `mapstructure:"no_sandbox" yaml:"no_sandbox"`
	UserDataDir string `mapstructure:"user_data_dir" yaml:"user_data_dir"`
}

// HTTPConfig configures the invocation API server.
type HTTPConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	BasePath string `mapstructure:"base_path" yaml:"base_path"`
}

// EventsConfig configures per-window event channels.
type EventsConfig struct {
	BufferDepth int `mapstructure:"buffer_depth" yaml:"buffer_depth"`
}

// LoggingConfig controls audit logging behavior.
type LoggingConfig struct {
	DisableAuditTrails bool `mapstructure:"disable_audit_trails" yaml:"disable_audit_trails"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, err
	}
	opts := schema.DefaultWindowOptions()
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Shell: ShellConfig{
			ObserverWindow:     string(schema.DefaultObserverWindow),
			PrimaryWindow:      string(schema.DefaultObserverWindow),
			OpenPrimaryOnStart: true,
			CommandTargets:     []string{string(schema.DefaultObserverWindow)},
			Debug:              false,
		},
		Windows: WindowsConfig{
			BaseURL:   "http://localhost:3000",
			Locations: registry.DefaultLocations(),
			Options: WindowOptions{
				Decorations:     opts.Decorations,
				Width:           opts.Width,
				Height:          opts.Height,
				DevtoolsOnDebug: opts.DevtoolsOnDebug,
			},
		},
		Host: HostConfig{
			Kind: HostMemory,
			Chrome: ChromeConfig{
				Headless:    false,
				UserDataDir: filepath.Join(home, ".optimus", "chrome"),
			},
		},
		HTTP: HTTPConfig{
			Addr:     "127.0.0.1:27490",
			BasePath: "",
		},
		Events: EventsConfig{
			BufferDepth: 256,
		},
		Logging: LoggingConfig{
			DisableAuditTrails: false,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".optimus", "config.yaml"), nil
}

// ShellSettings converts the shell section into the service config.
func (c Config) ShellSettings() schema.ShellConfig {
	targets := make([]schema.WindowName, 0, len(c.Shell.CommandTargets))
	for _, target := range c.Shell.CommandTargets {
		targets = append(targets, schema.WindowName(target))
	}
	return schema.ShellConfig{
		ObserverWindow: schema.WindowName(c.Shell.ObserverWindow),
		CommandTargets: targets,
		WindowOptions: schema.WindowOptions{
			Decorations:     c.Windows.Options.Decorations,
			Width:           c.Windows.Options.Width,
			Height:          c.Windows.Options.Height,
			DevtoolsOnDebug: c.Windows.Options.DevtoolsOnDebug,
		},
		Debug:               c.Shell.Debug,
		DisableAuditLogging: c.Logging.DisableAuditTrails,
	}
}
