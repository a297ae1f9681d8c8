// Package redux is a small unidirectional state runtime.
//
// A Store owns one state value. Every dispatched action is queued and then run
// through the middleware chain and the reducer on a single worker goroutine,
// so reducers, middleware state reads and subscriber callbacks never race.
package redux

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrClosed = errors.New("store is closed")

// Reducer computes the next state. It must be total and side-effect free.
type Reducer[S, A any] func(state S, action A) S

// Dispatch submits an action.
type Dispatch[A any] func(action A)

// Middleware wraps dispatch. dispatch re-enters the store from the top of the
// chain; next forwards to the following link.
type Middleware[S, A any] func(dispatch Dispatch[A], getState func() S) func(next Dispatch[A]) Dispatch[A]

// Store serializes all state mutations through its reducer.
type Store[S, A any] struct {
	reducer  Reducer[S, A]
	dispatch Dispatch[A]
	logger   *logrus.Entry

	stateMu sync.RWMutex
	state   S

	queueMu sync.Mutex
	queue   []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}

	subsMu  sync.Mutex
	subs    map[uint64]func(S)
	subSeq  uint64
	subList []uint64
}

// Option configures a Store.
type Option[S, A any] func(*Store[S, A])

// WithLogger sets the logger used for subscriber panics.
func WithLogger[S, A any](logger *logrus.Entry) Option[S, A] {
	return func(s *Store[S, A]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore builds the middleware chain and starts the dispatch worker.
// Middlewares run in slice order.
func NewStore[S, A any](reducer Reducer[S, A], middlewares []Middleware[S, A], initial S, opts ...Option[S, A]) *Store[S, A] {
	s := &Store[S, A]{
		reducer: reducer,
		state:   initial,
		logger:  logrus.NewEntry(logrus.StandardLogger()),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		subs:    make(map[uint64]func(S)),
	}
	for _, opt := range opts {
		opt(s)
	}

	chain := Dispatch[A](s.apply)
	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i](s.Dispatch, s.State)(chain)
	}
	s.dispatch = chain

	go s.run()
	return s
}

// Dispatch enqueues an action and returns immediately. Actions from the same
// goroutine are applied in submission order.
func (s *Store[S, A]) Dispatch(a A) {
	s.enqueue(func() { s.dispatch(a) })
}

// State returns the latest published snapshot.
func (s *Store[S, A]) State() S {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Subscribe registers an observer called on the dispatch worker after every
// reduced action. The returned func unsubscribes.
func (s *Store[S, A]) Subscribe(observer func(S)) func() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	s.subSeq++
	id := s.subSeq
	s.subs[id] = observer
	s.subList = append(s.subList, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			delete(s.subs, id)
			for i, sid := range s.subList {
				if sid == id {
					s.subList = append(s.subList[:i:i], s.subList[i+1:]...)
					break
				}
			}
		})
	}
}

// Sync waits until every action dispatched before the call has been reduced
// and published. Actions those actions dispatch in turn are not awaited.
func (s *Store[S, A]) Sync(ctx context.Context) error {
	reached := make(chan struct{})
	if !s.enqueue(func() { close(reached) }) {
		return ErrClosed
	}
	select {
	case <-reached:
		return nil
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker after the already queued actions. Later dispatches
// are dropped. Close must not be called from a subscriber or middleware.
func (s *Store[S, A]) Close() {
	s.queueMu.Lock()
	if s.closed {
		s.queueMu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.queueMu.Unlock()

	s.signal()
	<-s.done
}

func (s *Store[S, A]) enqueue(job func()) bool {
	s.queueMu.Lock()
	if s.closed {
		s.queueMu.Unlock()
		return false
	}
	s.queue = append(s.queue, job)
	s.queueMu.Unlock()

	s.signal()
	return true
}

func (s *Store[S, A]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store[S, A]) run() {
	defer close(s.done)

	for {
		s.queueMu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.queueMu.Unlock()
			if closed {
				return
			}
			<-s.wake
			continue
		}
		job := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.queueMu.Unlock()

		job()
	}
}

// apply runs on the worker goroutine, the only writer of s.state.
func (s *Store[S, A]) apply(a A) {
	next := s.reducer(s.state, a)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	s.publish(next)
}

func (s *Store[S, A]) publish(state S) {
	s.subsMu.Lock()
	observers := make([]func(S), 0, len(s.subList))
	for _, id := range s.subList {
		observers = append(observers, s.subs[id])
	}
	s.subsMu.Unlock()

	for _, observer := range observers {
		s.notify(observer, state)
	}
}

func (s *Store[S, A]) notify(observer func(S), state S) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("store subscriber panicked")
		}
	}()
	observer(state)
}
