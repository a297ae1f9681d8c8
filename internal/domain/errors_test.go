package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseBackendErrorCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   string
		want   InternalError
		wantOK bool
	}{
		{code: "", want: "", wantOK: false},
		{code: "   ", want: "", wantOK: false},
		{code: "\t\n", want: "", wantOK: false},
		{code: CodeTokenExpired, want: ErrCallTokenFailed, wantOK: true},
		{code: CodeCallJoin, want: ErrCallJoinFailed, wantOK: true},
		{code: CodeCallEnd, want: ErrCallEndFailed, wantOK: true},
		{code: CodeCallEvicted, want: ErrCallEvicted, wantOK: true},
		{code: CodeCallDenied, want: ErrCallDenied, wantOK: true},
		{code: CodeCameraFailure, want: ErrDeviceManagerFailed, wantOK: true},
		{code: CodeMicrophonePermissionNotGranted, want: ErrCallJoinFailedByMicPermission, wantOK: true},
		{code: CodeNetworkConnectionNotAvailable, want: ErrNetworkConnectionNotAvailable, wantOK: true},
		{code: " callDenied ", want: ErrCallDenied, wantOK: true},
		{code: "somethingElse", want: ErrCallJoinConnectionFailed, wantOK: true},
		{code: "CALLDENIED", want: ErrCallJoinConnectionFailed, wantOK: true},
	}

	for _, tt := range tests {
		got, ok := ParseBackendErrorCode(tt.code)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseBackendErrorCode(%q) = %q, %v; want %q, %v", tt.code, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestInternalErrorTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind   InternalError
		fatal  bool
		public string
	}{
		{kind: ErrDeviceManagerFailed, fatal: true, public: CodeCameraFailure},
		{kind: ErrCallJoinConnectionFailed, fatal: false, public: CodeCallJoin},
		{kind: ErrCallTokenFailed, fatal: true, public: CodeTokenExpired},
		{kind: ErrCallJoinFailed, fatal: true, public: CodeCallJoin},
		{kind: ErrCallEndFailed, fatal: true, public: CodeCallEnd},
		{kind: ErrCallHoldFailed, fatal: false, public: ""},
		{kind: ErrCallResumeFailed, fatal: false, public: ""},
		{kind: ErrCallEvicted, fatal: false, public: ""},
		{kind: ErrCallDenied, fatal: false, public: ""},
		{kind: ErrCallJoinFailedByMicPermission, fatal: true, public: CodeMicrophonePermissionNotGranted},
		{kind: ErrCameraSwitchFailed, fatal: false, public: ""},
		{kind: ErrCameraOnFailed, fatal: false, public: CodeCameraFailure},
		{kind: ErrCameraOffFailed, fatal: false, public: ""},
		{kind: ErrMicrophoneOnFailed, fatal: false, public: ""},
		{kind: ErrMicrophoneOffFailed, fatal: false, public: ""},
		{kind: ErrNetworkConnectionNotAvailable, fatal: true, public: CodeNetworkConnectionNotAvailable},
		{kind: InternalError("unknown"), fatal: false, public: ""},
	}

	for _, tt := range tests {
		if got := tt.kind.IsFatal(); got != tt.fatal {
			t.Fatalf("%s: IsFatal() = %v, want %v", tt.kind, got, tt.fatal)
		}
		if got := tt.kind.PublicCode(); got != tt.public {
			t.Fatalf("%s: PublicCode() = %q, want %q", tt.kind, got, tt.public)
		}
	}
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	if WrapError(nil, ErrCallJoinFailed) != nil {
		t.Fatalf("expected nil for a nil error")
	}

	cause := errors.New("socket closed")
	wrapped := WrapError(cause, ErrCallHoldFailed)
	if wrapped.Kind != ErrCallHoldFailed || !errors.Is(wrapped, cause) {
		t.Fatalf("unexpected wrap: %+v", wrapped)
	}
	if wrapped.Error() != "callHoldFailed: socket closed (caused by: socket closed)" {
		t.Fatalf("unexpected message: %q", wrapped.Error())
	}

	existing := NewError(ErrCallTokenFailed, "expired")
	rewrapped := WrapError(fmt.Errorf("start call: %w", existing), ErrCallJoinFailed)
	if rewrapped != existing {
		t.Fatalf("expected the existing CallError to be kept, got %+v", rewrapped)
	}
	if rewrapped.Kind != ErrCallTokenFailed {
		t.Fatalf("expected kind to be kept, got %s", rewrapped.Kind)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	if got := KindOf(fmt.Errorf("outer: %w", NewError(ErrCallDenied, ""))); got != ErrCallDenied {
		t.Fatalf("unexpected kind: %s", got)
	}
	if got := KindOf(errors.New("plain")); got != "" {
		t.Fatalf("expected no kind, got %s", got)
	}
	if got := NewError(ErrCallEvicted, "").Error(); got != "callEvicted" {
		t.Fatalf("unexpected message: %q", got)
	}
}
