package testutil

import (
	"sort"
	"sync"
	"time"
)

// ManualTimers is a hand-cranked scheduler for deterministic tests.
// Delays run only when the test calls Advance or Fire; tickers only when it
// calls Tick.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Duration
	pending map[string]manualEntry
	tickers map[string]manualEntry
	stopped bool
}

type manualEntry struct {
	due time.Duration
	fn  func()
}

func NewManualTimers() *ManualTimers {
	return &ManualTimers{
		pending: make(map[string]manualEntry),
		tickers: make(map[string]manualEntry),
	}
}

func (m *ManualTimers) AddDelay(name string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.pending[name] = manualEntry{due: m.now + delay, fn: fn}
}

// AddTicker records a periodic task; due holds its interval.
func (m *ManualTimers) AddTicker(name string, interval time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.tickers[name] = manualEntry{due: interval, fn: fn}
}

func (m *ManualTimers) Remove(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, name)
	delete(m.tickers, name)
}

// Stop drops everything and ignores later registrations.
func (m *ManualTimers) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.pending = make(map[string]manualEntry)
	m.tickers = make(map[string]manualEntry)
}

// Tickers returns registered ticker names with their intervals.
func (m *ManualTimers) Tickers() map[string]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Duration, len(m.tickers))
	for name, e := range m.tickers {
		out[name] = e.due
	}
	return out
}

// Tick runs the named ticker once.
func (m *ManualTimers) Tick(name string) bool {
	m.mu.Lock()
	e, ok := m.tickers[name]
	m.mu.Unlock()
	if ok {
		e.fn()
	}
	return ok
}

// Pending returns the scheduled names ordered by due time.
func (m *ManualTimers) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.pending))
	for name := range m.pending {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := m.pending[names[i]], m.pending[names[j]]
		if a.due != b.due {
			return a.due < b.due
		}
		return names[i] < names[j]
	})
	return names
}

// Due returns how far in the future name fires.
func (m *ManualTimers) Due(name string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pending[name]
	return e.due - m.now, ok
}

// Fire runs name immediately, regardless of its due time.
func (m *ManualTimers) Fire(name string) bool {
	m.mu.Lock()
	e, ok := m.pending[name]
	delete(m.pending, name)
	m.mu.Unlock()
	if ok {
		e.fn()
	}
	return ok
}

// Advance moves the clock forward and runs everything that came due, in due
// order. Callbacks may schedule more work; it runs if it also falls due.
func (m *ManualTimers) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()
	fired := 0
	for {
		m.mu.Lock()
		var (
			next  string
			entry manualEntry
			found bool
		)
		for name, e := range m.pending {
			if e.due > target {
				continue
			}
			if !found || e.due < entry.due || (e.due == entry.due && name < next) {
				next, entry, found = name, e, true
			}
		}
		if !found {
			m.now = target
			m.mu.Unlock()
			return fired
		}
		delete(m.pending, next)
		if entry.due > m.now {
			m.now = entry.due
		}
		m.mu.Unlock()
		entry.fn()
		fired++
	}
}
