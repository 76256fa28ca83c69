package world

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Timers runs one-shot callbacks. scheduler.Scheduler satisfies it.
type Timers interface {
	AddDelay(name string, delay time.Duration, fn func())
	Remove(name string)
}

// Store owns the World and serializes every read and mutation. Mutations are
// expressed as functions of the current state so concurrent periodic
// processes never act on a stale copy.
type Store struct {
	mu     sync.Mutex
	w      *World
	timers Timers
	events chan Event
	logger *zap.Logger
	closed bool
}

// NewStore wraps w. Events are buffered up to eventBuffer and dropped when
// nobody drains them.
func NewStore(w *World, timers Timers, eventBuffer int, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eventBuffer <= 0 {
		eventBuffer = 256
	}
	return &Store{
		w:      w,
		timers: timers,
		events: make(chan Event, eventBuffer),
		logger: logger,
	}
}

// Update applies fn under the lock. It reports false once the store is closed.
// A panic in fn unlocks the store and drops the timers and events fn queued.
func (s *Store) Update(fn func(w *World)) bool {
	pending, cancelled, events, ok := s.apply(fn)
	if !ok {
		return false
	}
	s.flush(pending, cancelled, events)
	return true
}

func (s *Store) apply(fn func(w *World)) (pending []delayRequest, cancelled []string, events []Event, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, nil, false
	}
	defer func() {
		pending, cancelled, events = s.w.pending, s.w.cancelled, s.w.events
		s.w.pending, s.w.cancelled, s.w.events = nil, nil, nil
	}()
	fn(s.w)
	return nil, nil, nil, true
}

// View runs fn under the lock without allowing scheduling side effects to
// escape. fn must not mutate.
func (s *Store) View(fn func(w *World)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.w)
}

// Events is the stream of world events. It is never closed.
func (s *Store) Events() <-chan Event { return s.events }

// Close stops all further mutation. Timers that fire later become no-ops.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Closed reports whether Close was called.
func (s *Store) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Store) flush(pending []delayRequest, cancelled []string, events []Event) {
	if s.timers != nil {
		for _, name := range cancelled {
			s.timers.Remove(name)
		}
		for _, req := range pending {
			fn := req.fn
			s.timers.AddDelay(req.name, req.delay, func() {
				s.Update(fn)
			})
		}
	} else if len(pending) > 0 {
		s.logger.Warn("no timers configured, dropping delayed work", zap.Int("count", len(pending)))
	}
	for _, ev := range events {
		select {
		case s.events <- ev:
		default:
			s.logger.Debug("event dropped", zap.String("kind", ev.Kind))
		}
	}
}
