package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"callcomposite/internal/action"
	"callcomposite/internal/appstate"
	"callcomposite/internal/domain"
	"callcomposite/internal/ports"
	"callcomposite/internal/redux"
)

// Dispatch re-enters the calling store.
type Dispatch = redux.Dispatch[action.Action]

// Config controls the calling middleware handler.
type Config struct {
	ParticipantThrottle time.Duration
	Logger              *logrus.Entry
	Now                 func() time.Time
}

// CallingMiddlewareHandler turns intent actions into CallingService calls and
// service events into actions. Durable state lives in the store; the handler
// owns only its subscription group.
//
// Every operation receives the snapshot read when the action was intercepted
// and returns immediately. Results are dispatched as new actions from the
// goroutine that ran the service call.
type CallingMiddlewareHandler struct {
	service             ports.CallingService
	logger              *logrus.Entry
	participantThrottle time.Duration
	now                 func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	opMu   sync.Mutex
	closed bool
	wg     sync.WaitGroup

	subs subscriptionGroup
}

func NewCallingMiddlewareHandler(service ports.CallingService, cfg Config) *CallingMiddlewareHandler {
	if cfg.ParticipantThrottle <= 0 {
		cfg.ParticipantThrottle = DefaultParticipantThrottle
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "calling")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CallingMiddlewareHandler{
		service:             service,
		logger:              cfg.Logger,
		participantThrottle: cfg.ParticipantThrottle,
		now:                 cfg.Now,
		ctx:                 ctx,
		cancel:              cancel,
	}
}

// Close cancels in-flight service calls and the subscription group, then
// waits for outstanding operations to return.
func (h *CallingMiddlewareHandler) Close() {
	h.opMu.Lock()
	h.closed = true
	h.opMu.Unlock()

	h.cancel()
	h.subs.cancel()
	h.wg.Wait()
}

// Subscribed reports whether an event-source subscription set is active.
func (h *CallingMiddlewareHandler) Subscribed() bool {
	return h.subs.active()
}

// CancelSubscriptions tears down the subscription group. Safe to call repeatedly.
func (h *CallingMiddlewareHandler) CancelSubscriptions() {
	if h.subs.cancel() {
		h.logger.Debug("subscriptions cancelled")
	}
}

func (h *CallingMiddlewareHandler) SetupCall(state appstate.AppState, dispatch Dispatch) {
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.SetupCall(ctx); err != nil {
			h.logger.WithError(err).Warn("setup call failed")
			post(action.CallStateErrorUpdated{
				Internal: domain.ErrCallJoinFailed,
				Err:      domain.WrapError(err, domain.ErrCallJoinFailed),
			})
			return
		}
		if state.Permission.Camera == domain.PermissionGranted &&
			state.LocalUser.Camera.Operation == domain.CameraOff &&
			state.Error.Internal == "" {
			post(action.CameraPreviewOnTriggered{})
		}
	})
}

func (h *CallingMiddlewareHandler) StartCall(state appstate.AppState, dispatch Dispatch) {
	switch state.Calling.Status {
	case domain.CallingStatusNone, domain.CallingStatusDisconnected:
	default:
		h.rejected("start call", state)
		return
	}
	if state.Calling.OperationStatus == domain.CallOperationCallStartRequested {
		h.rejected("start call", state)
		return
	}

	cameraPreferred := state.LocalUser.Camera.Operation == domain.CameraOn
	audioPreferred := state.LocalUser.Audio.Operation == domain.AudioOn
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.StartCall(ctx, cameraPreferred, audioPreferred); err != nil {
			h.fatal(post, domain.ErrCallJoinFailed, err)
			return
		}
		h.subscribe(dispatch)
	})
}

func (h *CallingMiddlewareHandler) EndCall(_ appstate.AppState, dispatch Dispatch) {
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.EndCall(ctx); err != nil {
			h.fatal(post, domain.ErrCallEndFailed, err)
		}
	})
}

func (h *CallingMiddlewareHandler) HoldCall(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusConnected {
		h.rejected("hold call", state)
		return
	}
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.HoldCall(ctx); err != nil {
			post(action.CallStateErrorUpdated{
				Internal: domain.ErrCallHoldFailed,
				Err:      domain.WrapError(err, domain.ErrCallHoldFailed),
			})
			return
		}
		h.subscribe(dispatch)
		h.pauseCamera(ctx, state, post)
	})
}

func (h *CallingMiddlewareHandler) ResumeCall(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusLocalHold {
		h.rejected("resume call", state)
		return
	}
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.ResumeCall(ctx); err != nil {
			post(action.CallStateErrorUpdated{
				Internal: domain.ErrCallResumeFailed,
				Err:      domain.WrapError(err, domain.ErrCallResumeFailed),
			})
			return
		}
		h.subscribe(dispatch)
		if state.LocalUser.Camera.Operation == domain.CameraPaused {
			h.startVideo(ctx, state, post)
		}
	})
}

func (h *CallingMiddlewareHandler) EnterBackground(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusConnected || state.LocalUser.Camera.Operation != domain.CameraOn {
		return
	}
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		h.pauseCamera(ctx, state, post)
	})
}

func (h *CallingMiddlewareHandler) EnterForeground(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusConnected || state.LocalUser.Camera.Operation != domain.CameraPaused {
		return
	}
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		h.startVideo(ctx, state, post)
	})
}

// WillTerminate requests the end of a connected call before the host
// process exits.
func (h *CallingMiddlewareHandler) WillTerminate(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusConnected {
		return
	}
	dispatch(action.CallEndRequested{})
}

func (h *CallingMiddlewareHandler) RequestCameraPreviewOn(state appstate.AppState, dispatch Dispatch) {
	if state.Permission.Camera == domain.PermissionNotAsked {
		dispatch(action.CameraPermissionRequested{})
		return
	}
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		streamID, err := h.service.RequestCameraPreviewOn(ctx)
		if err != nil {
			post(action.CameraOnFailed{Err: domain.WrapError(err, domain.ErrCameraOnFailed)})
			return
		}
		post(action.CameraOnSucceeded{VideoStreamID: streamID})
	})
}

func (h *CallingMiddlewareHandler) RequestCameraOn(state appstate.AppState, dispatch Dispatch) {
	if state.Permission.Camera == domain.PermissionNotAsked {
		dispatch(action.CameraPermissionRequested{})
		return
	}
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		h.startVideo(ctx, state, post)
	})
}

func (h *CallingMiddlewareHandler) RequestCameraOff(_ appstate.AppState, dispatch Dispatch) {
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.StopLocalVideoStream(ctx); err != nil {
			post(action.CameraOffFailed{Err: domain.WrapError(err, domain.ErrCameraOffFailed)})
			return
		}
		post(action.CameraOffSucceeded{})
	})
}

func (h *CallingMiddlewareHandler) RequestCameraSwitch(state appstate.AppState, dispatch Dispatch) {
	previous := state.LocalUser.Camera.Device
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		device, err := h.service.SwitchCamera(ctx)
		if err != nil {
			post(action.CameraSwitchFailed{
				PreviousDevice: previous,
				Err:            domain.WrapError(err, domain.ErrCameraSwitchFailed),
			})
			return
		}
		post(action.CameraSwitchSucceeded{Device: device})
	})
}

// RequestMicrophoneMute produces no success action; the mute stream is authoritative.
func (h *CallingMiddlewareHandler) RequestMicrophoneMute(_ appstate.AppState, dispatch Dispatch) {
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.MuteLocalMic(ctx); err != nil {
			post(action.MicrophoneOffFailed{Err: domain.WrapError(err, domain.ErrMicrophoneOffFailed)})
		}
	})
}

func (h *CallingMiddlewareHandler) RequestMicrophoneUnmute(_ appstate.AppState, dispatch Dispatch) {
	h.async(dispatch, func(ctx context.Context, post Dispatch) {
		if err := h.service.UnmuteLocalMic(ctx); err != nil {
			post(action.MicrophoneOnFailed{Err: domain.WrapError(err, domain.ErrMicrophoneOnFailed)})
		}
	})
}

// OnCameraPermissionIsSet resumes the camera request that asked for permission.
func (h *CallingMiddlewareHandler) OnCameraPermissionIsSet(state appstate.AppState, dispatch Dispatch) {
	if state.Permission.Camera != domain.PermissionRequesting {
		return
	}
	switch state.LocalUser.Camera.Transmission {
	case domain.CameraTransmissionRemote:
		dispatch(action.CameraOnTriggered{})
	default:
		dispatch(action.CameraPreviewOnTriggered{})
	}
}

func (h *CallingMiddlewareHandler) AudioSessionInterrupted(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusConnected {
		return
	}
	dispatch(action.HoldRequested{})
}

func (h *CallingMiddlewareHandler) AudioSessionInterruptEnded(state appstate.AppState, dispatch Dispatch) {
	if state.Calling.Status != domain.CallingStatusLocalHold {
		return
	}
	dispatch(action.ResumeRequested{})
}

func (h *CallingMiddlewareHandler) startVideo(ctx context.Context, _ appstate.AppState, post Dispatch) {
	streamID, err := h.service.StartLocalVideoStream(ctx)
	if err != nil {
		post(action.CameraOnFailed{Err: domain.WrapError(err, domain.ErrCameraOnFailed)})
		return
	}
	post(action.CameraOnSucceeded{VideoStreamID: streamID})
}

func (h *CallingMiddlewareHandler) pauseCamera(ctx context.Context, state appstate.AppState, post Dispatch) {
	if state.LocalUser.Camera.Operation != domain.CameraOn {
		return
	}
	if err := h.service.StopLocalVideoStream(ctx); err != nil {
		post(action.CameraPausedFailed{Err: domain.WrapError(err, domain.ErrCameraOffFailed)})
		return
	}
	post(action.CameraPausedSucceeded{})
}

// fatal reports a session-ending failure. FatalErrorUpdated is always
// followed by CompositeExit, and the subscription group is torn down.
func (h *CallingMiddlewareHandler) fatal(post Dispatch, kind domain.InternalError, err error) {
	callErr := domain.WrapError(err, kind)
	h.logger.WithError(callErr).WithField("error_kind", kind).Warn("fatal calling error")
	post(action.FatalErrorUpdated{Internal: kind, Err: callErr})
	post(action.CompositeExit{})
	h.subs.cancel()
}

func (h *CallingMiddlewareHandler) rejected(op string, state appstate.AppState) {
	h.logger.WithFields(logrus.Fields{
		"operation": op,
		"status":    state.Calling.Status,
		"op_status": state.Calling.OperationStatus,
	}).Debug("operation ignored in current state")
}

// async runs op on its own goroutine. post drops results once the handler
// is closed.
func (h *CallingMiddlewareHandler) async(dispatch Dispatch, op func(ctx context.Context, post Dispatch)) {
	h.opMu.Lock()
	if h.closed {
		h.opMu.Unlock()
		return
	}
	h.wg.Add(1)
	h.opMu.Unlock()

	post := func(a action.Action) {
		if h.ctx.Err() == nil {
			dispatch(a)
		}
	}
	go func() {
		defer h.wg.Done()
		op(h.ctx, post)
	}()
}
