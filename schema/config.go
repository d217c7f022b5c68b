package schema

import (
	"errors"
	"fmt"
)

// ShellConfig defines defaults and limits for the orchestration service.
type ShellConfig struct {
	// ObserverWindow receives window_created and cmd_request notifications.
	ObserverWindow WindowName
	// CommandTargets lists the windows that accept dispatched commands.
	CommandTargets []WindowName
	WindowOptions  WindowOptions
	// Debug enables devtools on windows created with DevtoolsOnDebug.
	Debug bool
	// DisableAuditLogging disables audit trail debug logs for commands.
	DisableAuditLogging bool
}

// DefaultObserverWindow is the window that observes orchestration events.
const DefaultObserverWindow WindowName = "im"

// NormalizeShellConfig applies defaults and validates the config.
func NormalizeShellConfig(cfg ShellConfig) (ShellConfig, error) {
	if cfg.ObserverWindow == "" {
		cfg.ObserverWindow = DefaultObserverWindow
	}
	observer, err := NormalizeWindowName(string(cfg.ObserverWindow))
	if err != nil {
		return ShellConfig{}, fmt.Errorf("observer window: %w", err)
	}
	cfg.ObserverWindow = observer
	if len(cfg.CommandTargets) == 0 {
		cfg.CommandTargets = []WindowName{DefaultObserverWindow}
	}
	targets := make([]WindowName, 0, len(cfg.CommandTargets))
	for _, target := range cfg.CommandTargets {
		name, err := NormalizeWindowName(string(target))
		if err != nil {
			return ShellConfig{}, fmt.Errorf("command target %q: %w", target, err)
		}
		targets = append(targets, name)
	}
	cfg.CommandTargets = targets
	if cfg.WindowOptions == (WindowOptions{}) {
		cfg.WindowOptions = DefaultWindowOptions()
	}
	if cfg.WindowOptions.Width <= 0 {
		cfg.WindowOptions.Width = DefaultWindowWidth
	}
	if cfg.WindowOptions.Height <= 0 {
		cfg.WindowOptions.Height = DefaultWindowHeight
	}
	if cfg.WindowOptions.Width > 16384 || cfg.WindowOptions.Height > 16384 {
		return ShellConfig{}, errors.New("window size exceeds 16384")
	}
	return cfg, nil
}
