package domain

import (
	"errors"
	"fmt"
	"strings"
)

// InternalError identifies a well-known failure kind. Raw backend errors are
// always wrapped in one of these before they reach actions or state.
type InternalError string

const (
	ErrDeviceManagerFailed           InternalError = "deviceManagerFailed"
	ErrCallJoinConnectionFailed      InternalError = "callJoinConnectionFailed"
	ErrCallTokenFailed               InternalError = "callTokenFailed"
	ErrCallJoinFailed                InternalError = "callJoinFailed"
	ErrCallEndFailed                 InternalError = "callEndFailed"
	ErrCallHoldFailed                InternalError = "callHoldFailed"
	ErrCallResumeFailed              InternalError = "callResumeFailed"
	ErrCallEvicted                   InternalError = "callEvicted"
	ErrCallDenied                    InternalError = "callDenied"
	ErrCallJoinFailedByMicPermission InternalError = "callJoinFailedByMicPermission"
	ErrCameraSwitchFailed            InternalError = "cameraSwitchFailed"
	ErrCameraOnFailed                InternalError = "cameraOnFailed"
	ErrCameraOffFailed               InternalError = "cameraOffFailed"
	ErrMicrophoneOnFailed            InternalError = "microphoneOnFailed"
	ErrMicrophoneOffFailed           InternalError = "microphoneOffFailed"
	ErrNetworkConnectionNotAvailable InternalError = "networkConnectionNotAvailable"
)

// Public error codes surfaced to the host application.
const (
	CodeCameraFailure                  = "cameraFailure"
	CodeTokenExpired                   = "tokenExpired"
	CodeCallJoin                       = "callJoin"
	CodeCallEnd                        = "callEnd"
	CodeMicrophonePermissionNotGranted = "microphonePermissionNotGranted"
	CodeNetworkConnectionNotAvailable  = "networkConnectionNotAvailable"
	CodeCallEvicted                    = "callEvicted"
	CodeCallDenied                     = "callDenied"
)

// IsFatal reports whether the kind always ends the call session.
func (e InternalError) IsFatal() bool {
	switch e {
	case ErrDeviceManagerFailed,
		ErrCallTokenFailed,
		ErrCallJoinFailed,
		ErrCallJoinFailedByMicPermission,
		ErrNetworkConnectionNotAvailable,
		ErrCallEndFailed:
		return true
	default:
		return false
	}
}

// PublicCode returns the host-facing code, or "" when the kind has none.
func (e InternalError) PublicCode() string {
	switch e {
	case ErrDeviceManagerFailed, ErrCameraOnFailed:
		return CodeCameraFailure
	case ErrCallTokenFailed:
		return CodeTokenExpired
	case ErrCallJoinFailed, ErrCallJoinConnectionFailed:
		return CodeCallJoin
	case ErrCallEndFailed:
		return CodeCallEnd
	case ErrCallJoinFailedByMicPermission:
		return CodeMicrophonePermissionNotGranted
	case ErrNetworkConnectionNotAvailable:
		return CodeNetworkConnectionNotAvailable
	default:
		return ""
	}
}

// ParseBackendErrorCode maps a call-info errorCode to an internal kind.
// Returns false for an empty code.
func ParseBackendErrorCode(code string) (InternalError, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	switch code {
	case CodeTokenExpired:
		return ErrCallTokenFailed, true
	case CodeCallJoin:
		return ErrCallJoinFailed, true
	case CodeCallEnd:
		return ErrCallEndFailed, true
	case CodeCallEvicted:
		return ErrCallEvicted, true
	case CodeCallDenied:
		return ErrCallDenied, true
	case CodeCameraFailure:
		return ErrDeviceManagerFailed, true
	case CodeMicrophonePermissionNotGranted:
		return ErrCallJoinFailedByMicPermission, true
	case CodeNetworkConnectionNotAvailable:
		return ErrNetworkConnectionNotAvailable, true
	}
	return ErrCallJoinConnectionFailed, true
}

// ErrorCategory is the classification recorded in ErrorState.
type ErrorCategory string

const (
	ErrorCategoryNone      ErrorCategory = "none"
	ErrorCategoryCallState ErrorCategory = "callState"
	ErrorCategoryFatal     ErrorCategory = "fatal"
)

// CallError is the only error shape carried by actions and state.
type CallError struct {
	Kind    InternalError `json:"kind"`
	Message string        `json:"message,omitempty"`
	Cause   error         `json:"-"`
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// NewError creates a CallError without a cause.
func NewError(kind InternalError, message string) *CallError {
	return &CallError{Kind: kind, Message: message}
}

// WrapError wraps a collaborator error. An error that already carries a
// CallError keeps its kind.
func WrapError(err error, kind InternalError) *CallError {
	if err == nil {
		return nil
	}
	var existing *CallError
	if errors.As(err, &existing) {
		return existing
	}
	return &CallError{Kind: kind, Message: err.Error(), Cause: err}
}

// KindOf extracts the internal kind from an error chain.
func KindOf(err error) InternalError {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return ""
}
