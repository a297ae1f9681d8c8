package usecase

import (
	"slices"
	"sync"
	"sync/atomic"

	"callcomposite/internal/action"
	"callcomposite/internal/domain"
	"callcomposite/internal/ports"
)

// subscriptionSet holds the five event-source subscriptions of one call.
// Callbacks check live before dispatching, so a cancelled set never leaks
// actions into the store.
type subscriptionSet struct {
	roster *latestThrottle[[]domain.ParticipantInfo]

	mu     sync.Mutex
	subs   []ports.Subscription
	callID string

	done atomic.Bool
	once sync.Once
}

func (s *subscriptionSet) live() bool {
	return !s.done.Load()
}

func (s *subscriptionSet) add(sub ports.Subscription) {
	s.mu.Lock()
	if s.done.Load() {
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()
}

// observeCallID reports whether id differs from the last one seen.
func (s *subscriptionSet) observeCallID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" || id == s.callID {
		return false
	}
	s.callID = id
	return true
}

// cancel tears the set down and returns the roster the throttle had not
// emitted yet.
func (s *subscriptionSet) cancel() (roster []domain.ParticipantInfo, pending bool) {
	s.once.Do(func() {
		if s.roster != nil {
			s.roster.Stop()
		}

		s.mu.Lock()
		s.done.Store(true)
		subs := s.subs
		s.subs = nil
		s.mu.Unlock()

		for _, sub := range subs {
			sub.Cancel()
		}
		if s.roster != nil {
			roster, pending = s.roster.Drain()
		}
	})
	return roster, pending
}

// subscriptionGroup owns the current set. Replacing or cancelling it tears
// the whole set down as a unit.
type subscriptionGroup struct {
	mu      sync.Mutex
	current *subscriptionSet
}

// replace installs set and cancels the previous one, handing back its
// unemitted roster.
func (g *subscriptionGroup) replace(set *subscriptionSet) ([]domain.ParticipantInfo, bool) {
	g.mu.Lock()
	old := g.current
	g.current = set
	g.mu.Unlock()

	if old == nil {
		return nil, false
	}
	return old.cancel()
}

// release cancels set and clears it if it is still current.
func (g *subscriptionGroup) release(set *subscriptionSet) {
	g.mu.Lock()
	if g.current == set {
		g.current = nil
	}
	g.mu.Unlock()

	set.cancel()
}

// cancel tears down the current set. It reports whether one was active.
func (g *subscriptionGroup) cancel() bool {
	g.mu.Lock()
	set := g.current
	g.current = nil
	g.mu.Unlock()

	if set == nil {
		return false
	}
	set.cancel()
	return true
}

func (g *subscriptionGroup) active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current != nil
}

// subscribe (re)establishes the event-source bridge. Any previous set is
// cancelled first, so repeated calls never duplicate delivery.
func (h *CallingMiddlewareHandler) subscribe(dispatch Dispatch) {
	if h.ctx.Err() != nil {
		return
	}
	set := &subscriptionSet{}
	post := func(a action.Action) {
		if set.live() && h.ctx.Err() == nil {
			dispatch(a)
		}
	}

	set.roster = newLatestThrottle(h.participantThrottle, func(list []domain.ParticipantInfo) {
		post(action.ParticipantListUpdated{Participants: slices.Clone(list), ReceivedAt: h.now()})
	})
	recording := newDistinct(func(active bool) {
		post(action.RecordingStateUpdated{IsRecordingActive: active})
	})
	transcription := newDistinct(func(active bool) {
		post(action.TranscriptionStateUpdated{IsTranscriptionActive: active})
	})
	muted := newDistinct(func(isMuted bool) {
		post(action.MicrophoneMuteStateUpdated{IsMuted: isMuted})
	})

	if roster, ok := h.subs.replace(set); ok {
		set.roster.Push(roster)
	}
	h.logger.Debug("subscribing to calling service streams")

	set.add(h.service.ParticipantsInfoList().Subscribe(set.roster.Push))
	set.add(h.service.CallInfo().Subscribe(func(info domain.CallInfo) {
		h.onCallInfo(set, info, post)
	}))
	set.add(h.service.IsRecordingActive().Subscribe(recording.Push))
	set.add(h.service.IsTranscriptionActive().Subscribe(transcription.Push))
	set.add(h.service.IsLocalUserMuted().Subscribe(muted.Push))

	if h.ctx.Err() != nil {
		h.subs.release(set)
	}
}

func (h *CallingMiddlewareHandler) onCallInfo(set *subscriptionSet, info domain.CallInfo, post func(action.Action)) {
	if !set.live() {
		return
	}

	post(action.StateUpdated{Status: info.Status})
	if set.observeCallID(info.CallID) {
		post(action.CallIDUpdated{CallID: info.CallID})
	}

	if classified, ok := classifyCallInfo(info); ok {
		h.logger.WithField("error_kind", classified.kind).
			WithField("category", classified.category).
			Debug("call info reported an error, cancelling subscriptions")
		if classified.category == domain.ErrorCategoryFatal {
			post(action.FatalErrorUpdated{Internal: classified.kind, Err: classified.err})
			post(action.CompositeExit{})
		} else {
			post(action.StatusErrorAndCallReset{Internal: classified.kind, Err: classified.err})
		}
		h.subs.release(set)
		return
	}

	if info.Status == domain.CallingStatusDisconnected {
		h.logger.Debug("call disconnected, cancelling subscriptions")
		post(action.CompositeExit{})
		h.subs.release(set)
	}
}
