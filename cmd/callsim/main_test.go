package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/domain"
	"callcomposite/internal/redux"
)

func TestRunThenHistory(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"run", "--participants", "2", "--duration", "10ms", "--timeout", "5s"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "participants: 2") {
		t.Fatalf("unexpected run output: %q", out.String())
	}

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"history", "--json"})
	if err := root.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	var records []domain.CallHistoryRecord
	if err := json.Unmarshal(out.Bytes(), &records); err != nil {
		t.Fatalf("bad history output %q: %v", out.String(), err)
	}
	if len(records) != 1 || len(records[0].CallIDs) != 1 {
		t.Fatalf("unexpected history: %+v", records)
	}
}

func TestHistoryEmpty(t *testing.T) {
	isolate(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"history"})
	if err := root.Execute(); err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "no calls recorded" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "callsim.yml")
	if err := os.WriteFile(path, []byte("calling:\n  display_name: Grace\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	root := newRootCmd()
	if err := root.ParseFlags([]string{"--config", path, "--verbose", "--json"}); err != nil {
		t.Fatalf("parse flags failed: %v", err)
	}
	cfg, err := loadConfig(root)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Calling.DisplayName != "Grace" || cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestAwaitFailsWhenCallExits(t *testing.T) {
	store := redux.NewStore(appstate.Reduce, nil, appstate.New("Ada"))
	t.Cleanup(store.Close)

	d := &driver{store: store, timeout: time.Second}
	store.Dispatch(action.CompositeExit{})

	_, err := d.await(context.Background(), "connected", func(st appstate.AppState) bool {
		return st.Calling.Status == domain.CallingStatusConnected
	})
	if err == nil || !strings.Contains(err.Error(), "before connected") {
		t.Fatalf("expected early exit error, got %v", err)
	}
}

func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	for _, key := range []string{
		"CALLCOMPOSITE_CONFIG",
		"CALLCOMPOSITE_BRIDGE_URL",
		"CALLCOMPOSITE_HISTORY_PATH",
		"CALLCOMPOSITE_METRICS_ADDR",
		"CALLCOMPOSITE_LOG_FILE",
		"CALLCOMPOSITE_SIM_PARTICIPANTS",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("CALLCOMPOSITE_LOG_LEVEL", "error")
	t.Setenv("CALLCOMPOSITE_PARTICIPANT_THROTTLE_MS", "10")
	t.Setenv("CALLCOMPOSITE_SIM_CONNECT_DELAY_MS", "5")
}
