package ports

import (
	"context"
	"time"

	"callcomposite/internal/domain"
)

// Subscription is a live registration on a Stream.
type Subscription interface {
	Cancel()
}

// Stream is an unbounded event source. Handlers may be called from any goroutine.
type Stream[T any] interface {
	Subscribe(handler func(T)) Subscription
}

// CallingService abstracts the native calling backend. Every operation completes
// exactly once with success or failure.
type CallingService interface {
	SetupCall(ctx context.Context) error
	StartCall(ctx context.Context, cameraPreferred, audioPreferred bool) error
	EndCall(ctx context.Context) error

	RequestCameraPreviewOn(ctx context.Context) (string, error)
	StartLocalVideoStream(ctx context.Context) (string, error)
	StopLocalVideoStream(ctx context.Context) error
	SwitchCamera(ctx context.Context) (domain.CameraDevice, error)

	MuteLocalMic(ctx context.Context) error
	UnmuteLocalMic(ctx context.Context) error

	HoldCall(ctx context.Context) error
	ResumeCall(ctx context.Context) error

	ParticipantsInfoList() Stream[[]domain.ParticipantInfo]
	CallInfo() Stream[domain.CallInfo]
	IsRecordingActive() Stream[bool]
	IsTranscriptionActive() Stream[bool]
	IsLocalUserMuted() Stream[bool]
}

// HistoryRepository persists the calls started on this device.
type HistoryRepository interface {
	Insert(ctx context.Context, startedOn time.Time, callID string) error
	All(ctx context.Context) ([]domain.CallHistoryRecord, error)
}
