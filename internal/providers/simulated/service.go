// Package simulated is an in-process CallingService that plays a scripted
// call. It backs the demo binary and end-to-end tests.
package simulated

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"callcomposite/internal/domain"
	"callcomposite/internal/ports"
	"callcomposite/internal/stream"
)

// Config shapes the scripted call.
type Config struct {
	// ConnectDelay separates the connecting, ringing and connected steps.
	ConnectDelay time.Duration
	// Participants join one per ConnectDelay after the call connects.
	Participants []domain.ParticipantInfo
	// Lobby routes the call through inLobby before connected.
	Lobby bool
}

var ErrClosed = errors.New("simulated service is closed")

// Service plays the script on its own goroutine. Values are only emitted
// once the call-info stream has a subscriber.
type Service struct {
	cfg Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	failures map[string]error
	calls    map[string]int
	device   domain.CameraDevice
	roster   []domain.ParticipantInfo
	callID   string

	participants  *stream.Subject[[]domain.ParticipantInfo]
	callInfo      *stream.Subject[domain.CallInfo]
	recording     *stream.Subject[bool]
	transcription *stream.Subject[bool]
	localMuted    *stream.Subject[bool]
}

var _ ports.CallingService = (*Service)(nil)

func New(cfg Config) *Service {
	if cfg.ConnectDelay <= 0 {
		cfg.ConnectDelay = 200 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cfg:           cfg,
		ctx:           ctx,
		cancel:        cancel,
		failures:      make(map[string]error),
		calls:         make(map[string]int),
		device:        domain.CameraFront,
		participants:  stream.NewSubject[[]domain.ParticipantInfo](),
		callInfo:      stream.NewSubject[domain.CallInfo](),
		recording:     stream.NewSubject[bool](),
		transcription: stream.NewSubject[bool](),
		localMuted:    stream.NewSubject[bool](),
	}
}

// Fail makes every later call of op return err. A nil err clears it.
func (s *Service) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

// Calls returns how often op was invoked.
func (s *Service) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// EmitCallInfo pushes a call-info value, for example a backend error code.
func (s *Service) EmitCallInfo(info domain.CallInfo) {
	s.callInfo.Send(info)
}

// SetRecording toggles the recording flag stream.
func (s *Service) SetRecording(active bool) {
	s.recording.Send(active)
}

// SetTranscription toggles the transcription flag stream.
func (s *Service) SetTranscription(active bool) {
	s.transcription.Send(active)
}

// Close stops the script.
func (s *Service) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Service) SetupCall(context.Context) error {
	return s.begin("SetupCall")
}

func (s *Service) StartCall(_ context.Context, _, audioPreferred bool) error {
	if err := s.begin("StartCall"); err != nil {
		return err
	}

	s.mu.Lock()
	s.callID = uuid.NewString()
	callID := s.callID
	s.mu.Unlock()

	s.run(func(ctx context.Context) {
		if !s.awaitListener(ctx) {
			return
		}
		s.localMuted.Send(!audioPreferred)
		steps := []domain.CallingStatus{domain.CallingStatusConnecting, domain.CallingStatusRinging}
		if s.cfg.Lobby {
			steps = append(steps, domain.CallingStatusInLobby)
		}
		steps = append(steps, domain.CallingStatusConnected)
		for _, status := range steps {
			s.callInfo.Send(domain.CallInfo{Status: status, CallID: callID})
			if !s.sleep(ctx) {
				return
			}
		}
		for _, p := range s.cfg.Participants {
			s.mu.Lock()
			s.roster = append(append([]domain.ParticipantInfo(nil), s.roster...), p)
			roster := s.roster
			s.mu.Unlock()
			s.participants.Send(roster)
			if !s.sleep(ctx) {
				return
			}
		}
	})
	return nil
}

func (s *Service) EndCall(context.Context) error {
	if err := s.begin("EndCall"); err != nil {
		return err
	}
	s.mu.Lock()
	callID := s.callID
	s.roster = nil
	s.mu.Unlock()

	s.run(func(ctx context.Context) {
		s.callInfo.Send(domain.CallInfo{Status: domain.CallingStatusDisconnecting, CallID: callID})
		if !s.sleep(ctx) {
			return
		}
		s.callInfo.Send(domain.CallInfo{Status: domain.CallingStatusDisconnected, CallID: callID})
	})
	return nil
}

func (s *Service) RequestCameraPreviewOn(context.Context) (string, error) {
	if err := s.begin("RequestCameraPreviewOn"); err != nil {
		return "", err
	}
	return "preview-" + uuid.NewString(), nil
}

func (s *Service) StartLocalVideoStream(context.Context) (string, error) {
	if err := s.begin("StartLocalVideoStream"); err != nil {
		return "", err
	}
	return "video-" + uuid.NewString(), nil
}

func (s *Service) StopLocalVideoStream(context.Context) error {
	return s.begin("StopLocalVideoStream")
}

func (s *Service) SwitchCamera(context.Context) (domain.CameraDevice, error) {
	if err := s.begin("SwitchCamera"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.device == domain.CameraFront {
		s.device = domain.CameraBack
	} else {
		s.device = domain.CameraFront
	}
	return s.device, nil
}

func (s *Service) MuteLocalMic(context.Context) error {
	return s.setMuted("MuteLocalMic", true)
}

func (s *Service) UnmuteLocalMic(context.Context) error {
	return s.setMuted("UnmuteLocalMic", false)
}

func (s *Service) HoldCall(context.Context) error {
	return s.setStatus("HoldCall", domain.CallingStatusLocalHold)
}

func (s *Service) ResumeCall(context.Context) error {
	return s.setStatus("ResumeCall", domain.CallingStatusConnected)
}

func (s *Service) ParticipantsInfoList() ports.Stream[[]domain.ParticipantInfo] {
	return s.participants
}

func (s *Service) CallInfo() ports.Stream[domain.CallInfo] { return s.callInfo }

func (s *Service) IsRecordingActive() ports.Stream[bool] { return s.recording }

func (s *Service) IsTranscriptionActive() ports.Stream[bool] { return s.transcription }

func (s *Service) IsLocalUserMuted() ports.Stream[bool] { return s.localMuted }

func (s *Service) begin(op string) error {
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	return s.failures[op]
}

func (s *Service) setMuted(op string, muted bool) error {
	if err := s.begin(op); err != nil {
		return err
	}
	s.localMuted.Send(muted)
	return nil
}

// setStatus reports the new status after the operation returns, the way a
// backend confirms hold and resume asynchronously.
func (s *Service) setStatus(op string, status domain.CallingStatus) error {
	if err := s.begin(op); err != nil {
		return err
	}
	s.mu.Lock()
	callID := s.callID
	s.mu.Unlock()

	s.run(func(ctx context.Context) {
		if !s.sleep(ctx) {
			return
		}
		s.callInfo.Send(domain.CallInfo{Status: status, CallID: callID})
	})
	return nil
}

func (s *Service) run(step func(ctx context.Context)) {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		step(s.ctx)
	}()
}

func (s *Service) sleep(ctx context.Context) bool {
	timer := time.NewTimer(s.cfg.ConnectDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) awaitListener(ctx context.Context) bool {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for s.callInfo.Active() == 0 {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
