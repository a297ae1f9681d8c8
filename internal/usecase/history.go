package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"callcomposite/internal/appstate"
	"callcomposite/internal/ports"
)

// HistoryRecorder stores every new call id published by the store. Observe
// runs on the store worker; inserts run on their own goroutines.
type HistoryRecorder struct {
	repo   ports.HistoryRepository
	logger *logrus.Entry
	now    func() time.Time

	lastCallID string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHistoryRecorder(repo ports.HistoryRepository, logger *logrus.Entry, now func() time.Time) *HistoryRecorder {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "history")
	}
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &HistoryRecorder{repo: repo, logger: logger, now: now, ctx: ctx, cancel: cancel}
}

// Observe is a store subscriber.
func (r *HistoryRecorder) Observe(state appstate.AppState) {
	callID := state.Calling.CallID
	if callID == "" || callID == r.lastCallID {
		return
	}
	r.lastCallID = callID
	startedOn := r.now()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.repo.Insert(r.ctx, startedOn, callID); err != nil {
			r.logger.WithError(err).WithField("call_id", callID).Warn("record call history")
		}
	}()
}

// Wait blocks until pending inserts finish.
func (r *HistoryRecorder) Wait() {
	r.wg.Wait()
}

// Close abandons pending inserts and waits for them to return. Call it after
// the store is closed.
func (r *HistoryRecorder) Close() {
	r.cancel()
	r.wg.Wait()
}
