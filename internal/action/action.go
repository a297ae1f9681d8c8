// Package action defines the closed set of actions accepted by the calling store.
//
// Every action is an immutable value. Group interfaces let reducers and
// middleware route by concern before switching on the concrete variant.
package action

import (
	"time"

	"callcomposite/internal/domain"
)

// Action is implemented only by the types in this package.
type Action interface {
	isAction()
}

// CallingAction drives the call lifecycle slice.
type CallingAction interface {
	Action
	isCallingAction()
}

// LocalUserAction drives the local camera and microphone slice.
type LocalUserAction interface {
	Action
	isLocalUserAction()
}

// PermissionAction drives the permission slice.
type PermissionAction interface {
	Action
	isPermissionAction()
}

// LifecycleAction reports host application lifecycle changes.
type LifecycleAction interface {
	Action
	isLifecycleAction()
}

// AudioSessionAction reports audio session interruptions.
type AudioSessionAction interface {
	Action
	isAudioSessionAction()
}

// ErrorAction records classified errors.
type ErrorAction interface {
	Action
	isErrorAction()
}

type calling struct{}

func (calling) isAction()        {}
func (calling) isCallingAction() {}

type SetupCall struct{ calling }
type CallStartRequested struct{ calling }
type CallEndRequested struct{ calling }
type HoldRequested struct{ calling }
type ResumeRequested struct{ calling }

// StateUpdated carries a status from the call-info stream.
type StateUpdated struct {
	calling
	Status domain.CallingStatus
}

type RecordingStateUpdated struct {
	calling
	IsRecordingActive bool
}

type TranscriptionStateUpdated struct {
	calling
	IsTranscriptionActive bool
}

type CallIDUpdated struct {
	calling
	CallID string
}

// ParticipantListUpdated carries the whole roster. ReceivedAt is stamped by
// the producer so the reducer stays a pure function.
type ParticipantListUpdated struct {
	calling
	Participants []domain.ParticipantInfo
	ReceivedAt   time.Time
}

type localUser struct{}

func (localUser) isAction()          {}
func (localUser) isLocalUserAction() {}

type CameraPreviewOnTriggered struct{ localUser }
type CameraOnTriggered struct{ localUser }
type CameraOffTriggered struct{ localUser }
type CameraSwitchTriggered struct{ localUser }

type CameraOnSucceeded struct {
	localUser
	VideoStreamID string
}

type CameraOnFailed struct {
	localUser
	Err *domain.CallError
}

type CameraOffSucceeded struct{ localUser }

type CameraOffFailed struct {
	localUser
	Err *domain.CallError
}

type CameraPausedSucceeded struct{ localUser }

type CameraPausedFailed struct {
	localUser
	Err *domain.CallError
}

type CameraSwitchSucceeded struct {
	localUser
	Device domain.CameraDevice
}

type CameraSwitchFailed struct {
	localUser
	PreviousDevice domain.CameraDeviceSelectionStatus
	Err            *domain.CallError
}

type MicrophoneOnTriggered struct{ localUser }
type MicrophoneOffTriggered struct{ localUser }

type MicrophoneOnFailed struct {
	localUser
	Err *domain.CallError
}

type MicrophoneOffFailed struct {
	localUser
	Err *domain.CallError
}

type MicrophoneMuteStateUpdated struct {
	localUser
	IsMuted bool
}

type MicrophonePreviewOn struct{ localUser }
type MicrophonePreviewOff struct{ localUser }

type AudioDeviceChangeRequested struct {
	localUser
	Device domain.AudioDeviceType
}

type AudioDeviceChangeSucceeded struct {
	localUser
	Device domain.AudioDeviceType
}

type AudioDeviceChangeFailed struct {
	localUser
	Err *domain.CallError
}

type permission struct{}

func (permission) isAction()           {}
func (permission) isPermissionAction() {}

type AudioPermissionRequested struct{ permission }
type AudioPermissionGranted struct{ permission }
type AudioPermissionDenied struct{ permission }
type AudioPermissionNotAsked struct{ permission }
type CameraPermissionRequested struct{ permission }
type CameraPermissionGranted struct{ permission }
type CameraPermissionDenied struct{ permission }
type CameraPermissionNotAsked struct{ permission }

type lifecycle struct{}

func (lifecycle) isAction()          {}
func (lifecycle) isLifecycleAction() {}

type BackgroundEntered struct{ lifecycle }
type ForegroundEntered struct{ lifecycle }
type WillTerminate struct{ lifecycle }

type audioSession struct{}

func (audioSession) isAction()             {}
func (audioSession) isAudioSessionAction() {}

type AudioInterruptionBegan struct{ audioSession }
type AudioInterruptionEnded struct{ audioSession }
type AudioEngaged struct{ audioSession }

type errorAction struct{}

func (errorAction) isAction()      {}
func (errorAction) isErrorAction() {}

// FatalErrorUpdated is always followed by CompositeExit.
type FatalErrorUpdated struct {
	errorAction
	Internal domain.InternalError
	Err      *domain.CallError
}

// StatusErrorAndCallReset records a call-state error and resets the call slices.
type StatusErrorAndCallReset struct {
	errorAction
	Internal domain.InternalError
	Err      *domain.CallError
}

// CallStateErrorUpdated records a non-fatal error without resetting the call.
type CallStateErrorUpdated struct {
	errorAction
	Internal domain.InternalError
	Err      *domain.CallError
}

type topLevel struct{}

func (topLevel) isAction() {}

// CompositeExit ends the calling UI flow.
type CompositeExit struct{ topLevel }

// CallingViewLaunched asks the UI layer to replace the pre-call screen.
type CallingViewLaunched struct{ topLevel }
