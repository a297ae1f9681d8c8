package domain

import "time"

// CallingStatus models the call state machine driven by the backend call-info stream.
type CallingStatus string

const (
	CallingStatusNone          CallingStatus = "none"
	CallingStatusEarlyMedia    CallingStatus = "earlyMedia"
	CallingStatusConnecting    CallingStatus = "connecting"
	CallingStatusRinging       CallingStatus = "ringing"
	CallingStatusConnected     CallingStatus = "connected"
	CallingStatusLocalHold     CallingStatus = "localHold"
	CallingStatusDisconnecting CallingStatus = "disconnecting"
	CallingStatusDisconnected  CallingStatus = "disconnected"
	CallingStatusInLobby       CallingStatus = "inLobby"
	CallingStatusRemoteHold    CallingStatus = "remoteHold"
)

// LaunchesCallView reports whether entering the status replaces the pre-call screen.
func (s CallingStatus) LaunchesCallView() bool {
	return s == CallingStatusConnected || s == CallingStatusInLobby
}

// CallOperationStatus tracks lifecycle requests that are still in flight.
type CallOperationStatus string

const (
	CallOperationNone               CallOperationStatus = "none"
	CallOperationCallStartRequested CallOperationStatus = "callStartRequested"
	CallOperationCallEndRequested   CallOperationStatus = "callEndRequested"
)

type CameraOperationalStatus string

const (
	CameraOff     CameraOperationalStatus = "off"
	CameraPending CameraOperationalStatus = "pending"
	CameraOn      CameraOperationalStatus = "on"
	CameraPaused  CameraOperationalStatus = "paused"
)

type CameraDeviceSelectionStatus string

const (
	CameraDeviceFront     CameraDeviceSelectionStatus = "front"
	CameraDeviceBack      CameraDeviceSelectionStatus = "back"
	CameraDeviceSwitching CameraDeviceSelectionStatus = "switching"
)

// CameraDevice is a physical camera reported by the calling service.
type CameraDevice string

const (
	CameraFront CameraDevice = "front"
	CameraBack  CameraDevice = "back"
)

// SelectionStatus maps a physical device to its selected state.
func (d CameraDevice) SelectionStatus() CameraDeviceSelectionStatus {
	if d == CameraBack {
		return CameraDeviceBack
	}
	return CameraDeviceFront
}

// CameraTransmissionStatus says whether the local video feeds the preview or the call.
type CameraTransmissionStatus string

const (
	CameraTransmissionLocal  CameraTransmissionStatus = "local"
	CameraTransmissionRemote CameraTransmissionStatus = "remote"
)

type AudioOperationalStatus string

const (
	AudioOff     AudioOperationalStatus = "off"
	AudioPending AudioOperationalStatus = "pending"
	AudioOn      AudioOperationalStatus = "on"
)

type AudioDeviceType string

const (
	AudioDeviceSpeaker    AudioDeviceType = "speaker"
	AudioDeviceReceiver   AudioDeviceType = "receiver"
	AudioDeviceBluetooth  AudioDeviceType = "bluetooth"
	AudioDeviceHeadphones AudioDeviceType = "headphones"
)

// AudioDeviceSelectionStatus is a device plus whether the switch completed.
type AudioDeviceSelectionStatus struct {
	Device   AudioDeviceType `json:"device"`
	Selected bool            `json:"selected"`
}

type PermissionStatus string

const (
	PermissionNotAsked   PermissionStatus = "notAsked"
	PermissionRequesting PermissionStatus = "requesting"
	PermissionGranted    PermissionStatus = "granted"
	PermissionDenied     PermissionStatus = "denied"
)

// AppStatus is the host application's foreground/background state.
type AppStatus string

const (
	AppForeground AppStatus = "foreground"
	AppBackground AppStatus = "background"
)

type AudioSessionStatus string

const (
	AudioSessionActive      AudioSessionStatus = "active"
	AudioSessionInterrupted AudioSessionStatus = "interrupted"
)

type NavigationStatus string

const (
	NavigationSetup  NavigationStatus = "setup"
	NavigationInCall NavigationStatus = "inCall"
	NavigationExit   NavigationStatus = "exit"
)

type ParticipantStatus string

const (
	ParticipantIdle         ParticipantStatus = "idle"
	ParticipantConnecting   ParticipantStatus = "connecting"
	ParticipantRinging      ParticipantStatus = "ringing"
	ParticipantConnected    ParticipantStatus = "connected"
	ParticipantHold         ParticipantStatus = "hold"
	ParticipantInLobby      ParticipantStatus = "inLobby"
	ParticipantDisconnected ParticipantStatus = "disconnected"
)

// ParticipantInfo describes one remote participant as reported by the roster stream.
type ParticipantInfo struct {
	UserIdentifier      string            `json:"userIdentifier"`
	DisplayName         string            `json:"displayName"`
	IsMuted             bool              `json:"isMuted"`
	IsSpeaking          bool              `json:"isSpeaking"`
	Status              ParticipantStatus `json:"status"`
	CameraStreamID      string            `json:"cameraStreamId,omitempty"`
	ScreenShareStreamID string            `json:"screenShareStreamId,omitempty"`
}

// CallInfo is one value of the call-info stream.
type CallInfo struct {
	Status    CallingStatus `json:"status"`
	ErrorCode string        `json:"errorCode,omitempty"`
	CallID    string        `json:"callId,omitempty"`
}

// CallHistoryRecord groups the call ids that started at the same instant.
type CallHistoryRecord struct {
	CallStartedOn time.Time `json:"callStartedOn"`
	CallIDs       []string  `json:"callIds"`
}
