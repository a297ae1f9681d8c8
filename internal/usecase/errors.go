package usecase

import "callcomposite/internal/domain"

// classifiedError is a backend error code resolved to an internal kind.
type classifiedError struct {
	kind     domain.InternalError
	category domain.ErrorCategory
	err      *domain.CallError
}

// classifyCallInfo resolves the errorCode of a call-info value. ok is false
// when the value carries no error.
func classifyCallInfo(info domain.CallInfo) (classifiedError, bool) {
	kind, ok := domain.ParseBackendErrorCode(info.ErrorCode)
	if !ok {
		return classifiedError{}, false
	}

	category := domain.ErrorCategoryCallState
	if kind.IsFatal() {
		category = domain.ErrorCategoryFatal
	}
	return classifiedError{
		kind:     kind,
		category: category,
		err:      domain.NewError(kind, "call ended with code "+info.ErrorCode),
	}, true
}
