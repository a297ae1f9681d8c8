package appstate

import (
	"callcomposite/internal/action"
	"callcomposite/internal/domain"
)

func reduceLocalUser(state LocalUserState, a action.LocalUserAction) LocalUserState {
	camera := state.Camera
	audio := state.Audio

	switch act := a.(type) {
	case action.CameraPreviewOnTriggered:
		camera.Transmission = domain.CameraTransmissionLocal
		camera.Operation = domain.CameraPending
	case action.CameraOnTriggered:
		camera.Transmission = domain.CameraTransmissionRemote
		camera.Operation = domain.CameraPending
	case action.CameraOffTriggered:
		camera.Operation = domain.CameraPending
	case action.CameraOnSucceeded:
		state.LocalVideoStreamIdentifier = act.VideoStreamID
		camera.Operation = domain.CameraOn
	case action.CameraOnFailed:
		camera.Operation = domain.CameraOff
		camera.Err = act.Err
	case action.CameraOffSucceeded:
		state.LocalVideoStreamIdentifier = ""
		camera.Operation = domain.CameraOff
	case action.CameraOffFailed:
		camera.Operation = domain.CameraOn
		camera.Err = act.Err
	case action.CameraPausedSucceeded:
		camera.Operation = domain.CameraPaused
	case action.CameraPausedFailed:
		camera.Err = act.Err
	case action.CameraSwitchTriggered:
		camera.Device = domain.CameraDeviceSwitching
	case action.CameraSwitchSucceeded:
		camera.Device = act.Device.SelectionStatus()
	case action.CameraSwitchFailed:
		camera.Device = act.PreviousDevice
		if camera.Device == "" || camera.Device == domain.CameraDeviceSwitching {
			camera.Device = domain.CameraDeviceFront
		}
		camera.Err = act.Err
	case action.MicrophoneOnTriggered, action.MicrophoneOffTriggered:
		audio.Operation = domain.AudioPending
	case action.MicrophonePreviewOn:
		audio.Operation = domain.AudioOn
	case action.MicrophonePreviewOff:
		audio.Operation = domain.AudioOff
	case action.MicrophoneOnFailed:
		audio.Operation = domain.AudioOff
		audio.Err = act.Err
	case action.MicrophoneOffFailed:
		audio.Operation = domain.AudioOn
		audio.Err = act.Err
	case action.MicrophoneMuteStateUpdated:
		if act.IsMuted {
			audio.Operation = domain.AudioOff
		} else {
			audio.Operation = domain.AudioOn
		}
	case action.AudioDeviceChangeRequested:
		audio.Device = domain.AudioDeviceSelectionStatus{Device: act.Device, Selected: false}
	case action.AudioDeviceChangeSucceeded:
		audio.Device = domain.AudioDeviceSelectionStatus{Device: act.Device, Selected: true}
	case action.AudioDeviceChangeFailed:
		audio.Err = act.Err
	}

	state.Camera = camera
	state.Audio = audio
	return state
}

func reducePermission(state PermissionState, a action.PermissionAction) PermissionState {
	switch a.(type) {
	case action.AudioPermissionRequested:
		state.Audio = domain.PermissionRequesting
	case action.AudioPermissionGranted:
		state.Audio = domain.PermissionGranted
	case action.AudioPermissionDenied:
		state.Audio = domain.PermissionDenied
	case action.AudioPermissionNotAsked:
		state.Audio = domain.PermissionNotAsked
	case action.CameraPermissionRequested:
		state.Camera = domain.PermissionRequesting
	case action.CameraPermissionGranted:
		state.Camera = domain.PermissionGranted
	case action.CameraPermissionDenied:
		state.Camera = domain.PermissionDenied
	case action.CameraPermissionNotAsked:
		state.Camera = domain.PermissionNotAsked
	}
	return state
}

func reduceLifeCycle(state LifeCycleState, a action.LifecycleAction) LifeCycleState {
	switch a.(type) {
	case action.BackgroundEntered:
		state.Status = domain.AppBackground
	case action.ForegroundEntered:
		state.Status = domain.AppForeground
	}
	return state
}

func reduceAudioSession(state AudioSessionState, a action.AudioSessionAction) AudioSessionState {
	switch a.(type) {
	case action.AudioInterruptionBegan:
		state.Status = domain.AudioSessionInterrupted
	case action.AudioInterruptionEnded, action.AudioEngaged:
		state.Status = domain.AudioSessionActive
	}
	return state
}
