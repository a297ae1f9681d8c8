// Package bridge implements ports.CallingService over a websocket connection
// to the native calling host.
//
// Requests are JSON objects {"id","op","params"} answered by
// {"id","ok","error","value"}. The host pushes stream values as
// {"event","data"}.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"callcomposite/internal/domain"
	"callcomposite/internal/ports"
	"callcomposite/internal/stream"
)

// Config controls the bridge connection.
type Config struct {
	URL   string
	Token string
}

// ErrClosed is returned for requests issued after the connection ended.
var ErrClosed = errors.New("calling bridge is closed")

// RemoteError is a failure reported by the calling host.
type RemoteError struct {
	Op      string
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s failed: %s: %s", e.Op, e.Code, e.Message)
}

// Service is a CallingService backed by one websocket connection.
type Service struct {
	conn   *websocket.Conn
	logger *logrus.Entry

	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]chan response
	closed    bool

	done      chan struct{}
	closeOnce sync.Once

	errMu sync.Mutex
	err   error

	participants  *stream.Subject[[]domain.ParticipantInfo]
	callInfo      *stream.Subject[domain.CallInfo]
	recording     *stream.Subject[bool]
	transcription *stream.Subject[bool]
	muted         *stream.Subject[bool]
}

var _ ports.CallingService = (*Service)(nil)

// Dial connects to the calling host. Cancelling ctx closes the connection.
func Dial(ctx context.Context, cfg Config, logger *logrus.Entry) (*Service, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("calling bridge url is not configured")
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "bridge")
	}

	wsURL, err := buildBridgeURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	if cfg.Token != "" {
		headers.Set("Authorization", "Bearer "+cfg.Token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to calling bridge: %w", err)
	}

	s := &Service{
		conn:          conn,
		logger:        logger,
		pending:       make(map[string]chan response),
		done:          make(chan struct{}),
		participants:  stream.NewSubject[[]domain.ParticipantInfo](),
		callInfo:      stream.NewSubject[domain.CallInfo](),
		recording:     stream.NewSubject[bool](),
		transcription: stream.NewSubject[bool](),
		muted:         stream.NewSubject[bool](),
	}

	go s.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()

	return s, nil
}

// Close ends the connection and fails outstanding requests.
func (s *Service) Close() error {
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		_ = s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.writeMu.Unlock()
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

// Done is closed when the connection ends.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

func (s *Service) SetupCall(ctx context.Context) error {
	return s.call(ctx, "setupCall", nil, nil)
}

func (s *Service) StartCall(ctx context.Context, cameraPreferred, audioPreferred bool) error {
	return s.call(ctx, "startCall", startCallParams{
		CameraPreferred: cameraPreferred,
		AudioPreferred:  audioPreferred,
	}, nil)
}

func (s *Service) EndCall(ctx context.Context) error {
	return s.call(ctx, "endCall", nil, nil)
}

func (s *Service) RequestCameraPreviewOn(ctx context.Context) (string, error) {
	var streamID string
	err := s.call(ctx, "requestCameraPreviewOn", nil, &streamID)
	return streamID, err
}

func (s *Service) StartLocalVideoStream(ctx context.Context) (string, error) {
	var streamID string
	err := s.call(ctx, "startLocalVideoStream", nil, &streamID)
	return streamID, err
}

func (s *Service) StopLocalVideoStream(ctx context.Context) error {
	return s.call(ctx, "stopLocalVideoStream", nil, nil)
}

func (s *Service) SwitchCamera(ctx context.Context) (domain.CameraDevice, error) {
	var device domain.CameraDevice
	if err := s.call(ctx, "switchCamera", nil, &device); err != nil {
		return "", err
	}
	return device, nil
}

func (s *Service) MuteLocalMic(ctx context.Context) error {
	return s.call(ctx, "muteLocalMic", nil, nil)
}

func (s *Service) UnmuteLocalMic(ctx context.Context) error {
	return s.call(ctx, "unmuteLocalMic", nil, nil)
}

func (s *Service) HoldCall(ctx context.Context) error {
	return s.call(ctx, "holdCall", nil, nil)
}

func (s *Service) ResumeCall(ctx context.Context) error {
	return s.call(ctx, "resumeCall", nil, nil)
}

func (s *Service) ParticipantsInfoList() ports.Stream[[]domain.ParticipantInfo] {
	return s.participants
}

func (s *Service) CallInfo() ports.Stream[domain.CallInfo] { return s.callInfo }

func (s *Service) IsRecordingActive() ports.Stream[bool] { return s.recording }

func (s *Service) IsTranscriptionActive() ports.Stream[bool] { return s.transcription }

func (s *Service) IsLocalUserMuted() ports.Stream[bool] { return s.muted }

type startCallParams struct {
	CameraPreferred bool `json:"cameraPreferred"`
	AudioPreferred  bool `json:"audioPreferred"`
}

type request struct {
	ID     string `json:"id"`
	Op     string `json:"op"`
	Params any    `json:"params,omitempty"`
}

type response struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Value   json.RawMessage `json:"value,omitempty"`
}

type envelope struct {
	ID    string          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	response
}

func (s *Service) call(ctx context.Context, op string, params any, out any) error {
	id := uuid.NewString()
	reply := make(chan response, 1)

	s.pendingMu.Lock()
	if s.closed {
		s.pendingMu.Unlock()
		return ErrClosed
	}
	s.pending[id] = reply
	s.pendingMu.Unlock()
	defer s.forget(id)

	payload, err := json.Marshal(request{ID: id, Op: op, Params: params})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	s.writeMu.Lock()
	err = s.conn.WriteMessage(websocket.TextMessage, payload)
	s.writeMu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", op, err)
	}

	select {
	case resp := <-reply:
		if !resp.OK {
			code := strings.TrimSpace(resp.Error)
			if code == "" {
				code = "unknown"
			}
			return &RemoteError{Op: op, Code: code, Message: resp.Message}
		}
		if out != nil && len(resp.Value) > 0 {
			if err := json.Unmarshal(resp.Value, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", op, err)
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		if err := s.waitErr(); err != nil {
			return err
		}
		return ErrClosed
	}
}

func (s *Service) forget(id string) {
	s.pendingMu.Lock()
	delete(s.pending, id)
	s.pendingMu.Unlock()
}

func (s *Service) readLoop() {
	defer func() {
		s.pendingMu.Lock()
		s.closed = true
		s.pendingMu.Unlock()
		close(s.done)
		_ = s.conn.Close()
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.setErr(fmt.Errorf("failed to read bridge message: %w", err))
			return
		}

		var msg envelope
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.WithError(err).Debug("ignoring malformed bridge message")
			continue
		}

		if msg.Event != "" {
			s.publish(msg.Event, msg.Data)
			continue
		}

		s.pendingMu.Lock()
		reply, ok := s.pending[msg.ID]
		s.pendingMu.Unlock()
		if !ok {
			continue
		}
		select {
		case reply <- msg.response:
		default:
		}
	}
}

// publish runs on the read loop, so values of one stream keep their order.
func (s *Service) publish(event string, data json.RawMessage) {
	var err error
	switch event {
	case "participants":
		var list []domain.ParticipantInfo
		if err = json.Unmarshal(data, &list); err == nil {
			s.participants.Send(list)
		}
	case "callInfo":
		var info domain.CallInfo
		if err = json.Unmarshal(data, &info); err == nil {
			s.callInfo.Send(info)
		}
	case "recording":
		err = publishBool(data, s.recording)
	case "transcription":
		err = publishBool(data, s.transcription)
	case "muted":
		err = publishBool(data, s.muted)
	default:
		s.logger.WithField("event", event).Debug("ignoring unknown bridge event")
		return
	}
	if err != nil {
		s.logger.WithError(err).WithField("event", event).Warn("bad bridge event payload")
	}
}

func publishBool(data json.RawMessage, subject *stream.Subject[bool]) error {
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	subject.Send(v)
	return nil
}

func (s *Service) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *Service) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) || errors.Is(err, net.ErrClosed) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func buildBridgeURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid calling bridge url: %w", err)
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("invalid calling bridge url scheme %q", parsed.Scheme)
	}
	if parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = "/calling"
	}
	return parsed.String(), nil
}
