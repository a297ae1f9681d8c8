package appstate

import (
	"slices"
	"time"

	"github.com/samber/lo"

	"callcomposite/internal/action"
	"callcomposite/internal/domain"
)

func reduceRemoteParticipants(state RemoteParticipantsState, a action.Action) RemoteParticipantsState {
	switch act := a.(type) {
	case action.ParticipantListUpdated:
		roster := reconcileRoster(state.Participants, act.Participants)
		if slices.Equal(roster, state.Participants) {
			return state
		}
		return RemoteParticipantsState{
			Participants:        roster,
			LastUpdateTimeStamp: nextTimeStamp(state.LastUpdateTimeStamp, act.ReceivedAt),
		}
	case action.StatusErrorAndCallReset, action.SetupCall:
		if len(state.Participants) == 0 {
			return state
		}
		return RemoteParticipantsState{
			LastUpdateTimeStamp: nextTimeStamp(state.LastUpdateTimeStamp, time.Time{}),
		}
	}
	return state
}

// reconcileRoster keeps surviving participants at their original positions
// and appends newcomers in the order the roster reported them.
func reconcileRoster(current, incoming []domain.ParticipantInfo) []domain.ParticipantInfo {
	incoming = lo.UniqBy(incoming, func(p domain.ParticipantInfo) string { return p.UserIdentifier })
	byID := lo.KeyBy(incoming, func(p domain.ParticipantInfo) string { return p.UserIdentifier })
	known := lo.KeyBy(current, func(p domain.ParticipantInfo) string { return p.UserIdentifier })

	roster := lo.FilterMap(current, func(p domain.ParticipantInfo, _ int) (domain.ParticipantInfo, bool) {
		updated, ok := byID[p.UserIdentifier]
		return updated, ok
	})
	newcomers := lo.Filter(incoming, func(p domain.ParticipantInfo, _ int) bool {
		_, ok := known[p.UserIdentifier]
		return !ok
	})
	return append(roster, newcomers...)
}

// nextTimeStamp is strictly greater than prev.
func nextTimeStamp(prev, at time.Time) time.Time {
	if at.After(prev) {
		return at
	}
	return prev.Add(time.Nanosecond)
}
