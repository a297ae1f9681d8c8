package appstate

import "callcomposite/internal/action"

// Reduce computes the next AppState. It is total: unknown actions return the
// input unchanged.
func Reduce(state AppState, a action.Action) AppState {
	next := state

	switch act := a.(type) {
	case action.PermissionAction:
		next.Permission = reducePermission(state.Permission, act)
	case action.LocalUserAction:
		next.LocalUser = reduceLocalUser(state.LocalUser, act)
	case action.LifecycleAction:
		next.LifeCycle = reduceLifeCycle(state.LifeCycle, act)
	case action.AudioSessionAction:
		next.AudioSession = reduceAudioSession(state.AudioSession, act)
	}

	next.Calling = reduceCalling(state.Calling, a)
	next.Navigation = reduceNavigation(state.Navigation, a)
	next.Error = reduceError(state.Error, a)
	next.RemoteParticipants = reduceRemoteParticipants(state.RemoteParticipants, a)
	return next
}
