package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host.Kind != HostMemory {
		t.Fatalf("expected memory host by default, got %q", cfg.Host.Kind)
	}
	if len(cfg.Windows.Locations) != 6 || cfg.Windows.Locations["im"] != "/im" {
		t.Fatalf("expected built-in locations, got %+v", cfg.Windows.Locations)
	}
	if cfg.Windows.Options.Width != 1200 || cfg.Windows.Options.Height != 800 || cfg.Windows.Options.Decorations {
		t.Fatalf("unexpected window options %+v", cfg.Windows.Options)
	}
}

func TestLoadRejectsUnsupportedConfigVersion(t *testing.T) {
	path := writeConfig(t, `
config_version: 9
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported config_version") {
		t.Fatalf("expected config_version error, got %v", err)
	}
}

func TestLoadRequiresConfigVersion(t *testing.T) {
	path := writeConfig(t, `
http:
  addr: 127.0.0.1:1
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "config_version is required") {
		t.Fatalf("expected config_version required error, got %v", err)
	}
}

func TestLoadRejectsUnsupportedHostKind(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
host:
  kind: electron
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "unsupported host.kind") {
		t.Fatalf("expected host kind error, got %v", err)
	}
}

func TestLoadRejectsInvalidBaseURL(t *testing.T) {
	path := writeConfig(t, `
config_version: 1
windows:
  base_url: localhost
`)
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "windows.base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestLoadLocationsReplaceDefaults(t *testing.T) {
	t.Setenv("OPTIMUS_UI", "http://ui.local:3000")
	path := writeConfig(t, `
config_version: 1
shell:
  command_targets: [im, orders]
  debug: true
windows:
  locations:
    im: $OPTIMUS_UI/im
    orders: /orders
  options:
    width: 640
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Windows.Locations) != 2 {
		t.Fatalf("expected two locations, got %+v", cfg.Windows.Locations)
	}
	if cfg.Windows.Locations["im"] != "http://ui.local:3000/im" {
		t.Fatalf("expected env expansion, got %q", cfg.Windows.Locations["im"])
	}
	shell := cfg.ShellSettings()
	if len(shell.CommandTargets) != 2 || shell.CommandTargets[1] != "orders" {
		t.Fatalf("unexpected command targets %+v", shell.CommandTargets)
	}
	if !shell.Debug || shell.WindowOptions.Width != 640 || shell.WindowOptions.Height != 800 {
		t.Fatalf("unexpected shell settings %+v", shell)
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FOO", "bar")
	value := expandEnv("$FOO/$UID/$GID/$MISSING")
	if !strings.HasPrefix(value, "bar/") {
		t.Fatalf("expected env expansion, got %q", value)
	}
	if strings.Contains(value, "$UID") || strings.Contains(value, "$GID") {
		t.Fatalf("expected UID/GID expansion, got %q", value)
	}
	if !strings.HasSuffix(value, "/$MISSING") {
		t.Fatalf("expected missing vars to remain, got %q", value)
	}
}

func TestWriteDefaultRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")
	written, err := WriteDefault(path, false)
	if err != nil {
		t.Fatalf("write default: %v", err)
	}
	if written != path {
		t.Fatalf("expected path %q, got %q", path, written)
	}
	if _, err := WriteDefault(path, false); err == nil {
		t.Fatalf("expected error when config exists")
	}
	if _, err := WriteDefault(path, true); err != nil {
		t.Fatalf("expected overwrite to succeed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load written default: %v", err)
	}
	if cfg.ConfigVersion != CurrentConfigVersion || cfg.Windows.Locations["ml-charts"] != "/ml-charts" {
		t.Fatalf("unexpected round-tripped config %+v", cfg)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
