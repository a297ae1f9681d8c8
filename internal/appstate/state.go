// Package appstate holds the calling AppState and the reducers that produce it.
//
// States are values. Reducers never mutate the slices or maps of their input;
// a changed roster is always a freshly allocated one.
package appstate

import (
	"time"

	"callcomposite/internal/domain"
)

// AppState is the aggregate of independent slices, each owned by one reducer.
type AppState struct {
	Calling            CallingState            `json:"calling"`
	LocalUser          LocalUserState          `json:"localUser"`
	RemoteParticipants RemoteParticipantsState `json:"remoteParticipants"`
	Permission         PermissionState         `json:"permission"`
	Error              ErrorState              `json:"error"`
	LifeCycle          LifeCycleState          `json:"lifeCycle"`
	AudioSession       AudioSessionState       `json:"audioSession"`
	Navigation         NavigationState         `json:"navigation"`
}

type CallingState struct {
	Status                domain.CallingStatus       `json:"status"`
	OperationStatus       domain.CallOperationStatus `json:"operationStatus"`
	IsRecordingActive     bool                       `json:"isRecordingActive"`
	IsTranscriptionActive bool                       `json:"isTranscriptionActive"`
	CallID                string                     `json:"callId,omitempty"`
}

type CameraState struct {
	Operation    domain.CameraOperationalStatus     `json:"operation"`
	Device       domain.CameraDeviceSelectionStatus `json:"device"`
	Transmission domain.CameraTransmissionStatus    `json:"transmission"`
	Err          *domain.CallError                  `json:"error,omitempty"`
}

type AudioState struct {
	Operation domain.AudioOperationalStatus     `json:"operation"`
	Device    domain.AudioDeviceSelectionStatus `json:"device"`
	Err       *domain.CallError                 `json:"error,omitempty"`
}

type LocalUserState struct {
	Camera                     CameraState `json:"camera"`
	Audio                      AudioState  `json:"audio"`
	DisplayName                string      `json:"displayName,omitempty"`
	LocalVideoStreamIdentifier string      `json:"localVideoStreamId,omitempty"`
}

// RemoteParticipantsState keeps participants in insertion order.
// LastUpdateTimeStamp moves only when the roster or a participant's fields change.
type RemoteParticipantsState struct {
	Participants        []domain.ParticipantInfo `json:"participants"`
	LastUpdateTimeStamp time.Time                `json:"lastUpdateTimeStamp"`
}

// Participant looks up a participant by identifier.
func (s RemoteParticipantsState) Participant(id string) (domain.ParticipantInfo, bool) {
	for _, p := range s.Participants {
		if p.UserIdentifier == id {
			return p, true
		}
	}
	return domain.ParticipantInfo{}, false
}

type PermissionState struct {
	Camera domain.PermissionStatus `json:"camera"`
	Audio  domain.PermissionStatus `json:"audio"`
}

type ErrorState struct {
	Internal domain.InternalError `json:"internalError,omitempty"`
	Err      *domain.CallError    `json:"error,omitempty"`
	Category domain.ErrorCategory `json:"category"`
}

type LifeCycleState struct {
	Status domain.AppStatus `json:"status"`
}

type AudioSessionState struct {
	Status domain.AudioSessionStatus `json:"status"`
}

type NavigationState struct {
	Status domain.NavigationStatus `json:"status"`
}

// New returns the state a store is created with.
func New(displayName string) AppState {
	return AppState{
		Calling: CallingState{
			Status:          domain.CallingStatusNone,
			OperationStatus: domain.CallOperationNone,
		},
		LocalUser: LocalUserState{
			Camera: CameraState{
				Operation:    domain.CameraOff,
				Device:       domain.CameraDeviceFront,
				Transmission: domain.CameraTransmissionLocal,
			},
			Audio: AudioState{
				Operation: domain.AudioOff,
				Device:    domain.AudioDeviceSelectionStatus{Device: domain.AudioDeviceReceiver, Selected: true},
			},
			DisplayName: displayName,
		},
		Permission: PermissionState{
			Camera: domain.PermissionNotAsked,
			Audio:  domain.PermissionNotAsked,
		},
		Error:        ErrorState{Category: domain.ErrorCategoryNone},
		LifeCycle:    LifeCycleState{Status: domain.AppForeground},
		AudioSession: AudioSessionState{Status: domain.AudioSessionActive},
		Navigation:   NavigationState{Status: domain.NavigationSetup},
	}
}
