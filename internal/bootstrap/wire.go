package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/config"
	"callcomposite/internal/domain"
	"callcomposite/internal/history"
	"callcomposite/internal/logging"
	"callcomposite/internal/metrics"
	"callcomposite/internal/ports"
	"callcomposite/internal/providers/bridge"
	"callcomposite/internal/providers/simulated"
	"callcomposite/internal/redux"
	"callcomposite/internal/usecase"
)

// Store is the calling store type shared by the UI layer and the CLI.
type Store = redux.Store[appstate.AppState, action.Action]

// Services is the assembled runtime graph.
type Services struct {
	Store    *Store
	Handler  *usecase.CallingMiddlewareHandler
	Config   config.Config
	History  *history.Repository
	Recorder *usecase.HistoryRecorder
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	// Simulated is set when no bridge url is configured.
	Simulated *simulated.Service

	closeService func() error
}

// Build wires all backend dependencies for the current runtime. Cancelling
// ctx drops the bridge connection.
func Build(ctx context.Context) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return BuildWith(ctx, cfg)
}

// BuildWith wires the graph from an already loaded configuration.
func BuildWith(ctx context.Context, cfg config.Config) (*Services, error) {
	if err := logging.Configure(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}); err != nil {
		return nil, err
	}

	services := &Services{Config: cfg}

	var service ports.CallingService
	if cfg.Calling.BridgeURL != "" {
		conn, err := bridge.Dial(ctx, bridge.Config{URL: cfg.Calling.BridgeURL, Token: cfg.Calling.Token}, logging.NewLogger("bridge"))
		if err != nil {
			return nil, err
		}
		service = conn
		services.closeService = conn.Close
	} else {
		sim := simulated.New(simulated.Config{
			ConnectDelay: cfg.Simulation.ConnectDelay,
			Lobby:        cfg.Simulation.Lobby,
			Participants: simulatedRoster(cfg.Simulation.Participants),
		})
		service = sim
		services.Simulated = sim
		services.closeService = func() error {
			sim.Close()
			return nil
		}
	}

	repo, err := history.Open(cfg.History.Path, cfg.History.Retention)
	if err != nil {
		_ = services.closeService()
		return nil, err
	}
	services.History = repo

	registry := prometheus.NewRegistry()
	collectors, err := metrics.New(registry)
	if err != nil {
		_ = repo.Close()
		_ = services.closeService()
		return nil, err
	}
	services.Registry = registry
	services.Metrics = collectors

	services.Handler = usecase.NewCallingMiddlewareHandler(service, usecase.Config{
		ParticipantThrottle: cfg.Calling.ParticipantThrottle,
		Logger:              logging.NewLogger("calling"),
	})

	services.Store = redux.NewStore(
		appstate.Reduce,
		[]redux.Middleware[appstate.AppState, action.Action]{
			redux.LoggingMiddleware[appstate.AppState](logging.NewLogger("store"), action.Name),
			collectors.Middleware(),
			usecase.NewCallingMiddleware(services.Handler),
		},
		appstate.New(cfg.Calling.DisplayName),
		redux.WithLogger[appstate.AppState, action.Action](logging.NewLogger("store")),
	)

	services.Recorder = usecase.NewHistoryRecorder(repo, logging.NewLogger("history"), nil)
	services.Store.Subscribe(services.Recorder.Observe)

	return services, nil
}

func simulatedRoster(n int) []domain.ParticipantInfo {
	roster := make([]domain.ParticipantInfo, 0, n)
	for i := 1; i <= n; i++ {
		roster = append(roster, domain.ParticipantInfo{
			UserIdentifier: fmt.Sprintf("sim-%d", i),
			DisplayName:    fmt.Sprintf("Participant %d", i),
			Status:         domain.ParticipantConnected,
		})
	}
	return roster
}

// Close shuts the graph down in dependency order.
func (s *Services) Close() error {
	s.Handler.Close()
	s.Store.Close()
	s.Recorder.Close()
	return errors.Join(s.closeService(), s.History.Close())
}
