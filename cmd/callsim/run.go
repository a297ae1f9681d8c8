package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/bootstrap"
	"callcomposite/internal/domain"
	"callcomposite/internal/logging"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play one simulated call from setup to exit",
		Long: `Runs setup, camera preview, join, hold and resume, then leaves the call,
logging every status transition.

Examples:
  # A quick call with three participants
  callsim run --participants 3 --duration 1s

  # Expose prometheus metrics while the call runs
  callsim run --metrics-addr 127.0.0.1:9102 --duration 30s
`,
		RunE: runCallE,
	}

	cmd.Flags().String("metrics-addr", "", "Serve /metrics on this address while the call runs")
	cmd.Flags().Int("participants", 0, "Remote participants joining the call (default from config)")
	cmd.Flags().Bool("lobby", false, "Route the call through the lobby")
	cmd.Flags().Bool("camera", true, "Turn the camera preview on before joining")
	cmd.Flags().Bool("muted", false, "Join with the microphone off")
	cmd.Flags().Bool("hold", true, "Hold and resume once while connected")
	cmd.Flags().Duration("duration", 2*time.Second, "Time spent connected before leaving")
	cmd.Flags().Duration("connect-delay", 0, "Delay between simulated call steps (default from config)")
	cmd.Flags().Duration("timeout", 30*time.Second, "Upper bound for each step")

	return cmd
}

func runCallE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Calling.BridgeURL = ""

	flags := cmd.Flags()
	if flags.Changed("participants") {
		cfg.Simulation.Participants, _ = flags.GetInt("participants")
	}
	if flags.Changed("lobby") {
		cfg.Simulation.Lobby, _ = flags.GetBool("lobby")
	}
	if flags.Changed("connect-delay") {
		cfg.Simulation.ConnectDelay, _ = flags.GetDuration("connect-delay")
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = flags.GetString("metrics-addr")
	}
	camera, _ := flags.GetBool("camera")
	muted, _ := flags.GetBool("muted")
	hold, _ := flags.GetBool("hold")
	duration, _ := flags.GetDuration("duration")
	timeout, _ := flags.GetDuration("timeout")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	services, err := bootstrap.BuildWith(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = services.Close() }()

	logger := logging.NewLogger("callsim")

	if cfg.Metrics.Addr != "" {
		stopMetrics, err := serveMetrics(cfg.Metrics.Addr, services, logger)
		if err != nil {
			return err
		}
		defer stopMetrics()
	}

	unsubscribe := services.Store.Subscribe(transitionLogger(logger))
	defer unsubscribe()

	d := &driver{store: services.Store, timeout: timeout}
	final, err := d.play(ctx, script{
		camera:       camera,
		muted:        muted,
		hold:         hold,
		duration:     duration,
		participants: cfg.Simulation.Participants,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "call %s ended\n", final.Calling.CallID)
	fmt.Fprintf(out, "  participants: %d\n", len(final.RemoteParticipants.Participants))
	if final.Error.Category != domain.ErrorCategoryNone {
		fmt.Fprintf(out, "  error: %s (%s)\n", final.Error.Internal, final.Error.Category)
	}
	return nil
}

type script struct {
	camera       bool
	muted        bool
	hold         bool
	duration     time.Duration
	participants int
}

type driver struct {
	store   *bootstrap.Store
	timeout time.Duration
}

func (d *driver) play(ctx context.Context, s script) (appstate.AppState, error) {
	d.store.Dispatch(action.SetupCall{})

	if s.camera {
		d.store.Dispatch(action.CameraPreviewOnTriggered{})
		if _, err := d.await(ctx, "camera permission prompt", func(st appstate.AppState) bool {
			return st.Permission.Camera == domain.PermissionRequesting
		}); err != nil {
			return appstate.AppState{}, err
		}
		d.store.Dispatch(action.CameraPermissionGranted{})
		if _, err := d.await(ctx, "camera preview", func(st appstate.AppState) bool {
			return st.LocalUser.Camera.Operation == domain.CameraOn
		}); err != nil {
			return appstate.AppState{}, err
		}
	}
	if !s.muted {
		d.store.Dispatch(action.MicrophonePreviewOn{})
	}

	d.store.Dispatch(action.CallStartRequested{})
	if _, err := d.await(ctx, "connected", func(st appstate.AppState) bool {
		return st.Calling.Status == domain.CallingStatusConnected
	}); err != nil {
		return appstate.AppState{}, err
	}
	if _, err := d.await(ctx, "roster", func(st appstate.AppState) bool {
		return len(st.RemoteParticipants.Participants) >= s.participants
	}); err != nil {
		return appstate.AppState{}, err
	}

	if s.hold {
		d.store.Dispatch(action.HoldRequested{})
		if _, err := d.await(ctx, "hold", func(st appstate.AppState) bool {
			return st.Calling.Status == domain.CallingStatusLocalHold
		}); err != nil {
			return appstate.AppState{}, err
		}
		d.store.Dispatch(action.ResumeRequested{})
		if _, err := d.await(ctx, "resume", func(st appstate.AppState) bool {
			return st.Calling.Status == domain.CallingStatusConnected
		}); err != nil {
			return appstate.AppState{}, err
		}
	}

	if s.duration > 0 {
		timer := time.NewTimer(s.duration)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	d.store.Dispatch(action.CallEndRequested{})
	// The caller's context may be cancelled by now; still wait for the exit.
	return d.await(context.WithoutCancel(ctx), "exit", func(st appstate.AppState) bool {
		return st.Navigation.Status == domain.NavigationExit
	})
}

var errCallEnded = errors.New("call ended")

// await returns the first state matching ready. It fails early when the
// composite exits before ready holds.
func (d *driver) await(ctx context.Context, what string, ready func(appstate.AppState) bool) (appstate.AppState, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	matched := make(chan appstate.AppState, 1)
	check := func(st appstate.AppState) {
		if ready(st) || st.Navigation.Status == domain.NavigationExit {
			select {
			case matched <- st:
			default:
			}
		}
	}
	unsubscribe := d.store.Subscribe(check)
	defer unsubscribe()
	check(d.store.State())

	select {
	case st := <-matched:
		if !ready(st) {
			return st, fmt.Errorf("%w before %s: %s", errCallEnded, what, st.Error.Internal)
		}
		return st, nil
	case <-ctx.Done():
		return d.store.State(), fmt.Errorf("waiting for %s: %w", what, ctx.Err())
	}
}

// transitionLogger logs call status, navigation and roster changes. It runs
// on the store worker.
func transitionLogger(logger *logrus.Entry) func(appstate.AppState) {
	var (
		status       domain.CallingStatus
		navigation   domain.NavigationStatus
		participants = -1
	)
	return func(st appstate.AppState) {
		if st.Calling.Status != status || st.Navigation.Status != navigation {
			status, navigation = st.Calling.Status, st.Navigation.Status
			logger.WithFields(logrus.Fields{
				"status":     status,
				"navigation": navigation,
				"call_id":    st.Calling.CallID,
			}).Info("call state")
		}
		if n := len(st.RemoteParticipants.Participants); n != participants {
			participants = n
			logger.WithField("participants", n).Info("roster")
		}
	}
}

func serveMetrics(addr string, services *bootstrap.Services, logger *logrus.Entry) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(services.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server stopped")
		}
	}()
	logger.WithField("addr", listener.Addr().String()).Info("serving metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}, nil
}
