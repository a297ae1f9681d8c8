package simulated

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/domain"
	"callcomposite/internal/redux"
	"callcomposite/internal/usecase"
)

func TestSimulatedCallRunsThroughStore(t *testing.T) {
	t.Parallel()

	service := New(Config{
		ConnectDelay: 5 * time.Millisecond,
		Participants: []domain.ParticipantInfo{
			{UserIdentifier: "u-1", DisplayName: "Grace", Status: domain.ParticipantConnected},
			{UserIdentifier: "u-2", DisplayName: "Linus", Status: domain.ParticipantConnected},
		},
	})
	store, handler := newStore(t, service)

	store.Dispatch(action.SetupCall{})
	store.Dispatch(action.CallStartRequested{})
	waitFor(t, "connected", func() bool {
		return store.State().Calling.Status == domain.CallingStatusConnected
	})
	waitFor(t, "roster", func() bool {
		return len(store.State().RemoteParticipants.Participants) == 2
	})

	state := store.State()
	if state.Navigation.Status != domain.NavigationInCall {
		t.Fatalf("unexpected navigation: %s", state.Navigation.Status)
	}
	if state.Calling.CallID == "" {
		t.Fatalf("expected call id")
	}
	if got := state.RemoteParticipants.Participants[0].DisplayName; got != "Grace" {
		t.Fatalf("unexpected first participant: %s", got)
	}

	store.Dispatch(action.MicrophoneOnTriggered{})
	waitFor(t, "unmuted", func() bool { return store.State().LocalUser.Audio.Operation == domain.AudioOn })

	store.Dispatch(action.HoldRequested{})
	waitFor(t, "hold", func() bool { return store.State().Calling.Status == domain.CallingStatusLocalHold })
	store.Dispatch(action.ResumeRequested{})
	waitFor(t, "resume", func() bool { return store.State().Calling.Status == domain.CallingStatusConnected })

	store.Dispatch(action.CallEndRequested{})
	waitFor(t, "exit", func() bool { return store.State().Navigation.Status == domain.NavigationExit })

	if handler.Subscribed() {
		t.Fatalf("expected subscriptions torn down after disconnect")
	}
	if got := store.State().Error.Category; got != domain.ErrorCategoryNone {
		t.Fatalf("unexpected error category: %s", got)
	}
}

func TestSimulatedLobbyLaunchesViewOnce(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	launches := 0
	service := New(Config{ConnectDelay: 5 * time.Millisecond, Lobby: true})
	store, _ := newStore(t, service, func(a action.Action) {
		if _, ok := a.(action.CallingViewLaunched); ok {
			mu.Lock()
			launches++
			mu.Unlock()
		}
	})

	store.Dispatch(action.CallStartRequested{})
	waitFor(t, "connected", func() bool {
		return store.State().Calling.Status == domain.CallingStatusConnected
	})
	syncStore(t, store)

	if got := store.State().Navigation.Status; got != domain.NavigationInCall {
		t.Fatalf("unexpected navigation: %s", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if launches != 1 {
		t.Fatalf("expected one view launch across lobby and connected, got %d", launches)
	}
}

func TestSimulatedBackendErrorCodeEndsCall(t *testing.T) {
	t.Parallel()

	service := New(Config{ConnectDelay: 5 * time.Millisecond})
	store, handler := newStore(t, service)

	store.Dispatch(action.CallStartRequested{})
	waitFor(t, "connected", func() bool {
		return store.State().Calling.Status == domain.CallingStatusConnected
	})

	service.EmitCallInfo(domain.CallInfo{Status: domain.CallingStatusDisconnected, ErrorCode: domain.CodeCallDenied})
	waitFor(t, "reset", func() bool { return store.State().Error.Category == domain.ErrorCategoryCallState })

	if handler.Subscribed() {
		t.Fatalf("expected subscriptions cancelled")
	}
	if got := store.State().Error.Internal; got != domain.ErrCallDenied {
		t.Fatalf("unexpected internal error: %s", got)
	}
}

func TestSimulatedFailureInjection(t *testing.T) {
	t.Parallel()

	service := New(Config{ConnectDelay: 5 * time.Millisecond})
	service.Fail("StartCall", errors.New("token rejected"))

	store, _ := newStore(t, service)
	store.Dispatch(action.CallStartRequested{})
	waitFor(t, "exit", func() bool { return store.State().Navigation.Status == domain.NavigationExit })

	if got := store.State().Error.Category; got != domain.ErrorCategoryFatal {
		t.Fatalf("unexpected error category: %s", got)
	}
	if got := service.Calls("StartCall"); got != 1 {
		t.Fatalf("expected one StartCall, got %d", got)
	}

	service.Fail("StartCall", nil)
	if err := service.StartCall(context.Background(), false, false); err != nil {
		t.Fatalf("expected cleared failure, got %v", err)
	}
}

func TestSimulatedSwitchCameraToggles(t *testing.T) {
	t.Parallel()

	service := New(Config{})
	t.Cleanup(service.Close)

	first, err := service.SwitchCamera(context.Background())
	if err != nil || first != domain.CameraBack {
		t.Fatalf("unexpected first switch: %s, %v", first, err)
	}
	second, _ := service.SwitchCamera(context.Background())
	if second != domain.CameraFront {
		t.Fatalf("unexpected second switch: %s", second)
	}

	service.Close()
	if _, err := service.SwitchCamera(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected closed error, got %v", err)
	}
}

func newStore(t *testing.T, service *Service, observe ...func(action.Action)) (*redux.Store[appstate.AppState, action.Action], *usecase.CallingMiddlewareHandler) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	handler := usecase.NewCallingMiddlewareHandler(service, usecase.Config{
		ParticipantThrottle: 10 * time.Millisecond,
		Logger:              logrus.NewEntry(logger),
	})
	var middlewares []redux.Middleware[appstate.AppState, action.Action]
	for _, fn := range observe {
		middlewares = append(middlewares, redux.ObserverMiddleware[appstate.AppState](fn))
	}
	middlewares = append(middlewares, usecase.NewCallingMiddleware(handler))
	store := redux.NewStore(appstate.Reduce, middlewares, appstate.New("Ada"))
	t.Cleanup(func() {
		handler.Close()
		service.Close()
		store.Close()
	})
	return store, handler
}

func syncStore(t *testing.T, store *redux.Store[appstate.AppState, action.Action]) {
	t.Helper()
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := store.Sync(ctx)
		cancel()
		if err != nil {
			t.Fatalf("sync failed: %v", err)
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
