package usecase

import (
	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/domain"
	"callcomposite/internal/redux"
)

// CallingHandler is the set of operations the calling middleware routes to.
type CallingHandler interface {
	SetupCall(state appstate.AppState, dispatch Dispatch)
	StartCall(state appstate.AppState, dispatch Dispatch)
	EndCall(state appstate.AppState, dispatch Dispatch)
	HoldCall(state appstate.AppState, dispatch Dispatch)
	ResumeCall(state appstate.AppState, dispatch Dispatch)
	EnterBackground(state appstate.AppState, dispatch Dispatch)
	EnterForeground(state appstate.AppState, dispatch Dispatch)
	WillTerminate(state appstate.AppState, dispatch Dispatch)
	AudioSessionInterrupted(state appstate.AppState, dispatch Dispatch)
	AudioSessionInterruptEnded(state appstate.AppState, dispatch Dispatch)
	RequestCameraPreviewOn(state appstate.AppState, dispatch Dispatch)
	RequestCameraOn(state appstate.AppState, dispatch Dispatch)
	RequestCameraOff(state appstate.AppState, dispatch Dispatch)
	RequestCameraSwitch(state appstate.AppState, dispatch Dispatch)
	RequestMicrophoneMute(state appstate.AppState, dispatch Dispatch)
	RequestMicrophoneUnmute(state appstate.AppState, dispatch Dispatch)
	OnCameraPermissionIsSet(state appstate.AppState, dispatch Dispatch)
	CancelSubscriptions()
}

var _ CallingHandler = (*CallingMiddlewareHandler)(nil)

// NewCallingMiddleware routes intent actions to handler with the snapshot
// current at interception, then forwards the action unchanged.
func NewCallingMiddleware(handler CallingHandler) redux.Middleware[appstate.AppState, action.Action] {
	return func(dispatch redux.Dispatch[action.Action], getState func() appstate.AppState) func(redux.Dispatch[action.Action]) redux.Dispatch[action.Action] {
		return func(next redux.Dispatch[action.Action]) redux.Dispatch[action.Action] {
			return func(a action.Action) {
				switch act := a.(type) {
				case action.CallingAction:
					routeCalling(act, handler, getState(), dispatch)
				case action.LocalUserAction:
					routeLocalUser(act, handler, getState(), dispatch)
				case action.PermissionAction:
					if _, ok := act.(action.CameraPermissionGranted); ok {
						handler.OnCameraPermissionIsSet(getState(), dispatch)
					}
				case action.LifecycleAction:
					routeLifecycle(act, handler, getState(), dispatch)
				case action.AudioSessionAction:
					switch act.(type) {
					case action.AudioInterruptionBegan:
						handler.AudioSessionInterrupted(getState(), dispatch)
					case action.AudioInterruptionEnded:
						handler.AudioSessionInterruptEnded(getState(), dispatch)
					}
				case action.CompositeExit:
					handler.CancelSubscriptions()
				}

				if _, ok := a.(action.StateUpdated); ok {
					before := getState().Navigation.Status
					next(a)
					launchCallView(before, getState().Navigation.Status, dispatch)
					return
				}
				next(a)
			}
		}
	}
}

func routeCalling(a action.CallingAction, handler CallingHandler, state appstate.AppState, dispatch Dispatch) {
	switch a.(type) {
	case action.SetupCall:
		handler.SetupCall(state, dispatch)
	case action.CallStartRequested:
		handler.StartCall(state, dispatch)
	case action.CallEndRequested:
		handler.EndCall(state, dispatch)
	case action.HoldRequested:
		handler.HoldCall(state, dispatch)
	case action.ResumeRequested:
		handler.ResumeCall(state, dispatch)
	}
}

func routeLocalUser(a action.LocalUserAction, handler CallingHandler, state appstate.AppState, dispatch Dispatch) {
	switch a.(type) {
	case action.CameraPreviewOnTriggered:
		handler.RequestCameraPreviewOn(state, dispatch)
	case action.CameraOnTriggered:
		handler.RequestCameraOn(state, dispatch)
	case action.CameraOffTriggered:
		handler.RequestCameraOff(state, dispatch)
	case action.CameraSwitchTriggered:
		handler.RequestCameraSwitch(state, dispatch)
	case action.MicrophoneOffTriggered:
		handler.RequestMicrophoneMute(state, dispatch)
	case action.MicrophoneOnTriggered:
		handler.RequestMicrophoneUnmute(state, dispatch)
	}
}

func routeLifecycle(a action.LifecycleAction, handler CallingHandler, state appstate.AppState, dispatch Dispatch) {
	switch a.(type) {
	case action.BackgroundEntered:
		handler.EnterBackground(state, dispatch)
	case action.ForegroundEntered:
		handler.EnterForeground(state, dispatch)
	case action.WillTerminate:
		handler.WillTerminate(state, dispatch)
	}
}

// launchCallView fires once per session. The reducer moves navigation from
// setup to inCall on the first connected or inLobby status, so only the
// action that made that move announces the view.
func launchCallView(before, after domain.NavigationStatus, dispatch Dispatch) {
	if before == domain.NavigationSetup && after == domain.NavigationInCall {
		dispatch(action.CallingViewLaunched{})
	}
}
