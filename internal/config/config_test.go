package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	clearEnv(t)
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Path != "" {
		t.Fatalf("expected no config file, got %q", cfg.Path)
	}
	if cfg.Calling.DisplayName != "Guest" || cfg.Calling.BridgeURL != "" {
		t.Fatalf("unexpected calling config: %+v", cfg.Calling)
	}
	if cfg.Calling.ParticipantThrottle != 1250*time.Millisecond {
		t.Fatalf("unexpected throttle: %s", cfg.Calling.ParticipantThrottle)
	}
	wantHistory := filepath.Join(home, ".local", "share", "callcomposite", "history.db")
	if cfg.History.Path != wantHistory || cfg.History.Retention != 31*24*time.Hour {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Simulation.ConnectDelay != 400*time.Millisecond || cfg.Simulation.Lobby || cfg.Simulation.Participants != 2 {
		t.Fatalf("unexpected simulation config: %+v", cfg.Simulation)
	}
}

func TestLoadReadsFileUnderHome(t *testing.T) {
	home := t.TempDir()
	clearEnv(t)
	t.Setenv("HOME", home)

	path := filepath.Join(home, ".config", "callcomposite", "config.yml")
	writeFile(t, path, `
calling:
  display_name: Ada
  bridge_url: ws://127.0.0.1:9000
  participant_throttle_ms: 500
history:
  path: ~/calls.db
  retention_days: 7
logging:
  level: debug
  format: json
simulation:
  lobby: true
  participants: 0
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Path != path {
		t.Fatalf("expected config path %q, got %q", path, cfg.Path)
	}
	if cfg.Calling.DisplayName != "Ada" || cfg.Calling.BridgeURL != "ws://127.0.0.1:9000" {
		t.Fatalf("unexpected calling config: %+v", cfg.Calling)
	}
	if cfg.Calling.ParticipantThrottle != 500*time.Millisecond {
		t.Fatalf("unexpected throttle: %s", cfg.Calling.ParticipantThrottle)
	}
	if cfg.History.Path != filepath.Join(home, "calls.db") || cfg.History.Retention != 7*24*time.Hour {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if !cfg.Simulation.Lobby || cfg.Simulation.Participants != 0 {
		t.Fatalf("unexpected simulation config from file: %+v", cfg.Simulation)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	home := t.TempDir()
	clearEnv(t)
	t.Setenv("HOME", home)

	path := filepath.Join(home, "custom.yml")
	writeFile(t, path, "calling:\n  display_name: FromFile\n  token: file-token\nsimulation:\n  lobby: true\n")

	t.Setenv("CALLCOMPOSITE_CONFIG", path)
	t.Setenv("CALLCOMPOSITE_DISPLAY_NAME", "FromEnv")
	t.Setenv("CALLCOMPOSITE_METRICS_ADDR", ":9102")
	t.Setenv("CALLCOMPOSITE_SIM_CONNECT_DELAY_MS", "25")
	t.Setenv("CALLCOMPOSITE_SIM_LOBBY", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Calling.DisplayName != "FromEnv" || cfg.Calling.Token != "file-token" {
		t.Fatalf("unexpected calling config: %+v", cfg.Calling)
	}
	if cfg.Metrics.Addr != ":9102" {
		t.Fatalf("unexpected metrics addr: %q", cfg.Metrics.Addr)
	}
	if cfg.Simulation.ConnectDelay != 25*time.Millisecond || cfg.Simulation.Lobby {
		t.Fatalf("unexpected simulation config: %+v", cfg.Simulation)
	}
}

func TestLoadInvalidValuesFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CALLCOMPOSITE_PARTICIPANT_THROTTLE_MS", "bad")
	t.Setenv("CALLCOMPOSITE_HISTORY_RETENTION_DAYS", "-3")
	t.Setenv("CALLCOMPOSITE_SIM_CONNECT_DELAY_MS", "0")
	t.Setenv("CALLCOMPOSITE_LOG_FORMAT", "xml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Calling.ParticipantThrottle != 1250*time.Millisecond {
		t.Fatalf("expected default throttle, got %s", cfg.Calling.ParticipantThrottle)
	}
	if cfg.History.Retention != 31*24*time.Hour {
		t.Fatalf("expected default retention, got %s", cfg.History.Retention)
	}
	if cfg.Simulation.ConnectDelay != 400*time.Millisecond {
		t.Fatalf("expected default connect delay, got %s", cfg.Simulation.ConnectDelay)
	}
	if cfg.Logging.Format != "text" {
		t.Fatalf("expected text format fallback, got %q", cfg.Logging.Format)
	}
}

func TestLoadFailsOnMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CALLCOMPOSITE_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestLoadFailsOnMalformedFile(t *testing.T) {
	home := t.TempDir()
	clearEnv(t)
	t.Setenv("HOME", home)

	path := filepath.Join(home, "bad.yml")
	writeFile(t, path, "calling: [not, a, map\n")
	t.Setenv("CALLCOMPOSITE_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CALLCOMPOSITE_CONFIG",
		"CALLCOMPOSITE_DISPLAY_NAME",
		"CALLCOMPOSITE_BRIDGE_URL",
		"CALLCOMPOSITE_TOKEN",
		"CALLCOMPOSITE_PARTICIPANT_THROTTLE_MS",
		"CALLCOMPOSITE_HISTORY_PATH",
		"CALLCOMPOSITE_HISTORY_RETENTION_DAYS",
		"CALLCOMPOSITE_LOG_LEVEL",
		"CALLCOMPOSITE_LOG_FORMAT",
		"CALLCOMPOSITE_LOG_FILE",
		"CALLCOMPOSITE_METRICS_ADDR",
		"CALLCOMPOSITE_SIM_CONNECT_DELAY_MS",
		"CALLCOMPOSITE_SIM_LOBBY",
		"CALLCOMPOSITE_SIM_PARTICIPANTS",
		"XDG_DATA_HOME",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}
