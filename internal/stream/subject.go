// Package stream provides a concrete multi-subscriber event source.
package stream

import (
	"sync"

	"callcomposite/internal/ports"
)

// Subject fans every sent value out to its current subscribers, synchronously
// and in subscription order.
type Subject[T any] struct {
	mu       sync.Mutex
	seq      uint64
	handlers map[uint64]func(T)
	order    []uint64
	total    int
	canceled int
}

var _ ports.Stream[int] = (*Subject[int])(nil)

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{handlers: make(map[uint64]func(T))}
}

// Send delivers v to every subscriber registered before the call.
func (s *Subject[T]) Send(v T) {
	s.mu.Lock()
	handlers := make([]func(T), 0, len(s.order))
	for _, id := range s.order {
		handlers = append(handlers, s.handlers[id])
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(v)
	}
}

func (s *Subject[T]) Subscribe(handler func(T)) ports.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	id := s.seq
	s.handlers[id] = handler
	s.order = append(s.order, id)
	s.total++
	return &subscription[T]{subject: s, id: id}
}

// Active returns the number of subscriptions not yet cancelled.
func (s *Subject[T]) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Total returns the number of subscriptions ever made.
func (s *Subject[T]) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Canceled returns the number of cancelled subscriptions.
func (s *Subject[T]) Canceled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

func (s *Subject[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handlers[id]; !ok {
		return
	}
	delete(s.handlers, id)
	for i, sid := range s.order {
		if sid == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.canceled++
}

type subscription[T any] struct {
	subject *Subject[T]
	id      uint64
	once    sync.Once
}

func (s *subscription[T]) Cancel() {
	s.once.Do(func() { s.subject.remove(s.id) })
}

// Func adapts a plain function to ports.Subscription.
type Func func()

func (f Func) Cancel() {
	if f != nil {
		f()
	}
}
