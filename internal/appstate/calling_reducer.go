package appstate

import (
	"callcomposite/internal/action"
	"callcomposite/internal/domain"
)

func reduceCalling(state CallingState, a action.Action) CallingState {
	switch act := a.(type) {
	case action.StateUpdated:
		state.Status = act.Status
		if act.Status == domain.CallingStatusDisconnected {
			state.OperationStatus = domain.CallOperationNone
		}
	case action.RecordingStateUpdated:
		state.IsRecordingActive = act.IsRecordingActive
	case action.TranscriptionStateUpdated:
		state.IsTranscriptionActive = act.IsTranscriptionActive
	case action.CallIDUpdated:
		state.CallID = act.CallID
	case action.CallStartRequested:
		state.OperationStatus = domain.CallOperationCallStartRequested
	case action.CallEndRequested:
		state.OperationStatus = domain.CallOperationCallEndRequested
	case action.SetupCall, action.StatusErrorAndCallReset:
		state = CallingState{
			Status:          domain.CallingStatusNone,
			OperationStatus: domain.CallOperationNone,
		}
	case action.FatalErrorUpdated, action.CompositeExit:
		state.OperationStatus = domain.CallOperationNone
	}
	return state
}

func reduceNavigation(state NavigationState, a action.Action) NavigationState {
	switch act := a.(type) {
	case action.StateUpdated:
		if state.Status == domain.NavigationSetup && act.Status.LaunchesCallView() {
			state.Status = domain.NavigationInCall
		}
	case action.CallingViewLaunched:
		state.Status = domain.NavigationInCall
	case action.CompositeExit:
		state.Status = domain.NavigationExit
	case action.SetupCall, action.StatusErrorAndCallReset:
		state.Status = domain.NavigationSetup
	}
	return state
}

func reduceError(state ErrorState, a action.Action) ErrorState {
	switch act := a.(type) {
	case action.FatalErrorUpdated:
		return ErrorState{Internal: act.Internal, Err: act.Err, Category: domain.ErrorCategoryFatal}
	case action.StatusErrorAndCallReset:
		return ErrorState{Internal: act.Internal, Err: act.Err, Category: domain.ErrorCategoryCallState}
	case action.CallStateErrorUpdated:
		return ErrorState{Internal: act.Internal, Err: act.Err, Category: domain.ErrorCategoryCallState}
	case action.CameraOnFailed:
		return ErrorState{Internal: domain.ErrCameraOnFailed, Err: act.Err, Category: domain.ErrorCategoryCallState}
	case action.CallStartRequested, action.SetupCall:
		return ErrorState{Category: domain.ErrorCategoryNone}
	}
	return state
}
