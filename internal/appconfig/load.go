package appconfig

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses DefaultConfigPath.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}
	defaultLocations := cfg.Windows.Locations

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("shell.observer_window", cfg.Shell.ObserverWindow)
	v.SetDefault("shell.primary_window", cfg.Shell.PrimaryWindow)
	v.SetDefault("shell.open_primary_on_start", cfg.Shell.OpenPrimaryOnStart)
	v.SetDefault("shell.command_targets", cfg.Shell.CommandTargets)
	v.SetDefault("shell.debug", cfg.Shell.Debug)
	v.SetDefault("windows.base_url", cfg.Windows.BaseURL)
	v.SetDefault("windows.options.decorations", cfg.Windows.Options.Decorations)
	v.SetDefault("windows.options.width", cfg.Windows.Options.Width)
	v.SetDefault("windows.options.height", cfg.Windows.Options.Height)
	v.SetDefault("windows.options.devtools_on_debug", cfg.Windows.Options.DevtoolsOnDebug)
	v.SetDefault("host.kind", cfg.Host.Kind)
	v.SetDefault("host.chrome.exec_path", cfg.Host.Chrome.ExecPath)
	v.SetDefault("host.chrome.headless", cfg.Host.Chrome.Headless)
	v.SetDefault("host.chrome.no_sandbox", cfg.Host.Chrome.NoSandbox)
	v.SetDefault("host.chrome.user_data_dir", cfg.Host.Chrome.UserDataDir)
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("http.base_path", cfg.HTTP.BasePath)
	v.SetDefault("events.buffer_depth", cfg.Events.BufferDepth)
	v.SetDefault("logging.disable_audit_trails", cfg.Logging.DisableAuditTrails)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	// Locations have no viper default so a config file replaces the whole
	// table instead of merging into the built-in one.
	cfg.Windows.Locations = nil
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if len(cfg.Windows.Locations) == 0 {
		cfg.Windows.Locations = defaultLocations
	}
	expandConfigEnv(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	switch cfg.Host.Kind {
	case HostMemory, HostChrome:
	default:
		return fmt.Errorf("unsupported host.kind %q", cfg.Host.Kind)
	}
	baseURL := strings.TrimSpace(cfg.Windows.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("windows.base_url must include scheme and host (e.g. http://localhost:3000)")
		}
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return fmt.Errorf("http.addr is required")
	}
	basePath := strings.TrimSpace(cfg.HTTP.BasePath)
	if strings.Contains(basePath, "://") || strings.ContainsAny(basePath, "?#") {
		return fmt.Errorf("http.base_path must be a path prefix")
	}
	if cfg.Events.BufferDepth < 0 {
		return fmt.Errorf("events.buffer_depth must not be negative")
	}
	if cfg.Shell.OpenPrimaryOnStart && strings.TrimSpace(cfg.Shell.PrimaryWindow) == "" {
		return fmt.Errorf("shell.primary_window is required when shell.open_primary_on_start is set")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Windows.BaseURL = expandEnv(cfg.Windows.BaseURL)
	for name, location := range cfg.Windows.Locations {
		cfg.Windows.Locations[name] = expandEnv(location)
	}
	cfg.Host.Chrome.ExecPath = expandEnv(cfg.Host.Chrome.ExecPath)
	cfg.Host.Chrome.UserDataDir = expandEnv(cfg.Host.Chrome.UserDataDir)
	cfg.HTTP.Addr = expandEnv(cfg.HTTP.Addr)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	if val, ok := os.LookupEnv(key); ok {
		return val, true
	}
	switch key {
	case "UID":
		return fmt.Sprintf("%d", os.Getuid()), true
	case "GID":
		return fmt.Sprintf("%d", os.Getgid()), true
	}
	return "", false
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
