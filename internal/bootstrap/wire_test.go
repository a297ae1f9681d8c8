package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"callcomposite/internal/action"
	"callcomposite/internal/config"
	"callcomposite/internal/domain"
)

func TestBuildSimulatedByDefault(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("CALLCOMPOSITE_CONFIG", "")
	t.Setenv("CALLCOMPOSITE_BRIDGE_URL", "")
	t.Setenv("CALLCOMPOSITE_DISPLAY_NAME", "Ada")

	services, err := Build(context.Background())
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })

	if services.Simulated == nil {
		t.Fatalf("expected simulated service without a bridge url")
	}
	if services.Store == nil || services.Handler == nil || services.History == nil || services.Metrics == nil {
		t.Fatalf("expected assembled services: %+v", services)
	}
	if got := services.Store.State().LocalUser.DisplayName; got != "Ada" {
		t.Fatalf("unexpected display name: %q", got)
	}
}

func TestBuildRecordsCallHistory(t *testing.T) {
	cfg := config.Config{
		Calling: config.CallingConfig{DisplayName: "Ada", ParticipantThrottle: 10 * time.Millisecond},
		History: config.HistoryConfig{Path: filepath.Join(t.TempDir(), "history.db")},
		Logging: config.LoggingConfig{Level: "error"},
		Simulation: config.SimulationConfig{
			ConnectDelay: 5 * time.Millisecond,
		},
	}

	services, err := BuildWith(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })

	services.Store.Dispatch(action.CallStartRequested{})

	deadline := time.Now().Add(3 * time.Second)
	for services.Store.State().Calling.Status != domain.CallingStatusConnected {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for connected")
		}
		time.Sleep(2 * time.Millisecond)
	}
	callID := services.Store.State().Calling.CallID

	for {
		records, err := services.History.All(context.Background())
		if err != nil {
			t.Fatalf("history query failed: %v", err)
		}
		if len(records) == 1 && len(records[0].CallIDs) == 1 && records[0].CallIDs[0] == callID {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for history, got %+v", records)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestBuildFailsOnUnreachableBridge(t *testing.T) {
	cfg := config.Config{
		Calling: config.CallingConfig{BridgeURL: "ftp://nowhere"},
		History: config.HistoryConfig{Path: filepath.Join(t.TempDir(), "history.db")},
	}

	if _, err := BuildWith(context.Background(), cfg); err == nil {
		t.Fatalf("expected bridge error")
	}
}
