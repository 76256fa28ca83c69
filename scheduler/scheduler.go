package scheduler

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn = func()

// Scheduler manages periodic and delayed tasks.
// Tickers and delays are keyed by name; registering a name again replaces
// (and cancels) the previous task. After Stop every pending task is cancelled
// and new registrations are ignored.
type Scheduler struct {
	mu      sync.Mutex
	tickers map[string]*tickerEntry
	timers  map[string]*delayEntry
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped bool
}

type tickerEntry struct {
	ticker   *time.Ticker
	interval time.Duration
	stopCh   chan struct{}
}

type delayEntry struct {
	timer *time.Timer
	due   time.Time
}

// New creates a new Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		tickers: make(map[string]*tickerEntry),
		timers:  make(map[string]*delayEntry),
		stopCh:  make(chan struct{}),
		logger:  logger,
	}
}

// AddTicker registers a task to run on a fixed interval.
// If a task with the same name exists, it is replaced.
func (s *Scheduler) AddTicker(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if old, ok := s.tickers[name]; ok {
		close(old.stopCh)
		delete(s.tickers, name)
	}

	entry := &tickerEntry{
		ticker:   time.NewTicker(interval),
		interval: interval,
		stopCh:   make(chan struct{}),
	}
	s.tickers[name] = entry

	go func() {
		for {
			select {
			case <-entry.ticker.C:
				s.run(name, fn)
			case <-entry.stopCh:
				entry.ticker.Stop()
				return
			case <-s.stopCh:
				entry.ticker.Stop()
				return
			}
		}
	}()
	s.logger.Info("scheduler task registered", zap.String("name", name), zap.Duration("interval", interval))
}

// AddDelay runs fn once after the given delay.
// A pending delay with the same name is cancelled first.
func (s *Scheduler) AddDelay(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if old, ok := s.timers[name]; ok {
		old.timer.Stop()
	}
	entry := &delayEntry{due: time.Now().Add(delay)}
	entry.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		live := s.timers[name] == entry && !s.stopped
		if live {
			delete(s.timers, name)
		}
		s.mu.Unlock()
		if live {
			s.run(name, fn)
		}
	})
	s.timers[name] = entry
}

func (s *Scheduler) run(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name),
				zap.Any("recover", r))
		}
	}()
	fn()
}

// Remove stops and removes a ticker or delay task by name.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.tickers[name]; ok {
		close(entry.stopCh)
		delete(s.tickers, name)
	}
	if t, ok := s.timers[name]; ok {
		t.timer.Stop()
		delete(s.timers, name)
	}
}

// Stop cancels all tickers and pending delays. It is safe to call twice.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
	for name, t := range s.timers {
		t.timer.Stop()
		delete(s.timers, name)
	}
	s.tickers = make(map[string]*tickerEntry)
}

// ListTickers returns the names of all registered ticker tasks, sorted.
func (s *Scheduler) ListTickers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.tickers))
	for name := range s.tickers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PendingDelay describes a one-shot task that has not fired yet.
type PendingDelay struct {
	Name string    `json:"name"`
	Due  time.Time `json:"due"`
}

// ListDelays returns pending one-shot tasks ordered by due time.
func (s *Scheduler) ListDelays() []PendingDelay {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingDelay, 0, len(s.timers))
	for name, t := range s.timers {
		out = append(out, PendingDelay{Name: name, Due: t.due})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Due.Before(out[j].Due) })
	return out
}
