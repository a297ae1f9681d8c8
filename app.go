package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/bootstrap"
	"callcomposite/internal/domain"
)

const (
	eventState = "callcomposite:state"
	eventExit  = "callcomposite:exit"
	eventError = "callcomposite:error"
)

// App is the Wails application root.
type App struct {
	ctx  context.Context
	emit func(ctx context.Context, name string, data ...interface{})

	services *bootstrap.Services
	bootErr  error

	mu          sync.Mutex
	last        appstate.AppState
	hasLast     bool
	exitSent    bool
	unsubscribe func()
}

func NewApp() *App {
	return &App{emit: runtime.EventsEmit}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(ctx)
	if err != nil {
		a.bootErr = err
		a.emitError("startup", "", err.Error())
		return
	}
	a.attach(services)
	a.services.Store.Dispatch(action.SetupCall{})
}

func (a *App) shutdown(context.Context) {
	if a.services == nil {
		return
	}
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	_ = a.services.Close()
}

func (a *App) attach(services *bootstrap.Services) {
	a.services = services
	a.unsubscribe = services.Store.Subscribe(a.observe)
}

// StartCall joins the call with the current camera and microphone choices.
func (a *App) StartCall() error { return a.dispatch(action.CallStartRequested{}) }

// EndCall leaves the call.
func (a *App) EndCall() error { return a.dispatch(action.CallEndRequested{}) }

func (a *App) HoldCall() error { return a.dispatch(action.HoldRequested{}) }

func (a *App) ResumeCall() error { return a.dispatch(action.ResumeRequested{}) }

// SetMicrophone turns the local microphone on or off.
func (a *App) SetMicrophone(on bool) error {
	if on {
		return a.dispatch(action.MicrophoneOnTriggered{})
	}
	return a.dispatch(action.MicrophoneOffTriggered{})
}

// SetCamera turns the local camera on or off. Before the call starts, on
// means preview.
func (a *App) SetCamera(on bool) error {
	if !on {
		return a.dispatch(action.CameraOffTriggered{})
	}
	state, err := a.GetState()
	if err != nil {
		return err
	}
	if state.Calling.Status == domain.CallingStatusNone {
		return a.dispatch(action.CameraPreviewOnTriggered{})
	}
	return a.dispatch(action.CameraOnTriggered{})
}

func (a *App) SwitchCamera() error { return a.dispatch(action.CameraSwitchTriggered{}) }

// SetCameraPermission reports the operating system's camera permission answer.
func (a *App) SetCameraPermission(granted bool) error {
	if granted {
		return a.dispatch(action.CameraPermissionGranted{})
	}
	return a.dispatch(action.CameraPermissionDenied{})
}

// SetAudioPermission reports the operating system's microphone permission answer.
func (a *App) SetAudioPermission(granted bool) error {
	if granted {
		return a.dispatch(action.AudioPermissionGranted{})
	}
	return a.dispatch(action.AudioPermissionDenied{})
}

// SetForeground reports window visibility changes.
func (a *App) SetForeground(foreground bool) error {
	if foreground {
		return a.dispatch(action.ForegroundEntered{})
	}
	return a.dispatch(action.BackgroundEntered{})
}

// SetAudioInterrupted reports audio session interruptions from the host.
func (a *App) SetAudioInterrupted(interrupted bool) error {
	if interrupted {
		return a.dispatch(action.AudioInterruptionBegan{})
	}
	return a.dispatch(action.AudioInterruptionEnded{})
}

// GetState returns the latest state snapshot.
func (a *App) GetState() (appstate.AppState, error) {
	if err := a.requireReady(); err != nil {
		return appstate.AppState{}, err
	}
	return a.services.Store.State(), nil
}

// GetHistory returns stored call history, oldest first.
func (a *App) GetHistory() ([]domain.CallHistoryRecord, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.services.History.All(a.ctx)
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if a.services == nil {
		return map[string]string{}
	}

	provider := "Simulated"
	if a.services.Simulated == nil {
		provider = "Bridge"
	}
	return map[string]string{
		"provider":    provider,
		"bridgeUrl":   a.services.Config.Calling.BridgeURL,
		"displayName": a.services.Config.Calling.DisplayName,
		"historyFile": a.services.Config.History.Path,
		"configFile":  a.services.Config.Path,
	}
}

func (a *App) dispatch(act action.Action) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.services.Store.Dispatch(act)
	return nil
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// observe runs on the store worker for every published state.
func (a *App) observe(state appstate.AppState) {
	a.mu.Lock()
	prev, hadPrev := a.last, a.hasLast
	a.last, a.hasLast = state, true
	sendExit := state.Navigation.Status == domain.NavigationExit && !a.exitSent
	if sendExit {
		a.exitSent = true
	}
	if state.Navigation.Status != domain.NavigationExit {
		a.exitSent = false
	}
	a.mu.Unlock()

	a.emitEvent(eventState, state)

	if state.Error.Category != domain.ErrorCategoryNone &&
		(!hadPrev || prev.Error.Internal != state.Error.Internal || prev.Error.Category != state.Error.Category) {
		detail := ""
		if state.Error.Err != nil {
			detail = state.Error.Err.Error()
		}
		a.emitError(string(state.Error.Category), state.Error.Internal, detail)
	}

	if sendExit {
		payload := map[string]string{"callId": state.Calling.CallID}
		if state.Error.Category == domain.ErrorCategoryFatal {
			payload["code"] = state.Error.Internal.PublicCode()
		}
		a.emitEvent(eventExit, payload)
	}
}

func (a *App) emitError(category string, kind domain.InternalError, detail string) {
	a.emitEvent(eventError, map[string]string{
		"category": category,
		"kind":     string(kind),
		"code":     kind.PublicCode(),
		"message":  errorMessage(kind, detail),
		"detail":   detail,
	})
}

func (a *App) emitEvent(name string, data interface{}) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, name, data)
}

func errorMessage(kind domain.InternalError, detail string) string {
	switch kind {
	case domain.ErrCallTokenFailed:
		return "Your session expired"
	case domain.ErrCallJoinFailed, domain.ErrCallJoinConnectionFailed:
		return "Could not join the call"
	case domain.ErrCallEndFailed:
		return "Could not leave the call"
	case domain.ErrCallHoldFailed:
		return "Could not put the call on hold"
	case domain.ErrCallResumeFailed:
		return "Could not resume the call"
	case domain.ErrCallEvicted:
		return "You were removed from the call"
	case domain.ErrCallDenied:
		return "You were not admitted to the call"
	case domain.ErrCallJoinFailedByMicPermission:
		return "Microphone access is required to join"
	case domain.ErrNetworkConnectionNotAvailable:
		return "No network connection"
	case domain.ErrDeviceManagerFailed, domain.ErrCameraOnFailed:
		return "Camera is unavailable"
	case domain.ErrCameraOffFailed:
		return "Could not turn the camera off"
	case domain.ErrCameraSwitchFailed:
		return "Could not switch cameras"
	case domain.ErrMicrophoneOnFailed:
		return "Could not unmute"
	case domain.ErrMicrophoneOffFailed:
		return "Could not mute"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
