// Package hook lets components react to gameplay lifecycle events without
// importing each other.
package hook

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ErrInterrupt stops the remaining handlers for one Trigger.
var ErrInterrupt = errors.New("hook interrupted")

// Fn handles an event. It returns data (possibly replaced) for the next
// handler, or ErrInterrupt to stop the chain.
type Fn func(ctx context.Context, event string, data any) (any, error)

type entry struct {
	priority int
	name     string
	fn       Fn
}

// Center keeps handlers per event, lowest priority first. Handlers with the
// same priority run in registration order.
type Center struct {
	mu       sync.RWMutex
	handlers map[string][]entry
}

func NewCenter() *Center {
	return &Center{handlers: make(map[string][]entry)}
}

func (c *Center) Register(event string, priority int, name string, fn Fn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	list := append(c.handlers[event], entry{priority: priority, name: name, fn: fn})
	sort.SliceStable(list, func(i, j int) bool { return list[i].priority < list[j].priority })
	c.handlers[event] = list
}

// Unregister drops every handler called name. An empty event matches all
// events.
func (c *Center) Unregister(event, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ev, list := range c.handlers {
		if event != "" && ev != event {
			continue
		}
		kept := list[:0]
		for _, e := range list {
			if e.name != name {
				kept = append(kept, e)
			}
		}
		c.handlers[ev] = kept
	}
}

// Names lists handler names for event in run order.
func (c *Center) Names(event string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.handlers[event]))
	for _, e := range c.handlers[event] {
		out = append(out, e.name)
	}
	return out
}

// Trigger runs the handlers for event. Errors other than ErrInterrupt are
// collected and returned joined once every handler has run.
func (c *Center) Trigger(ctx context.Context, event string, data any) (any, error) {
	c.mu.RLock()
	list := append([]entry(nil), c.handlers[event]...)
	c.mu.RUnlock()

	var errs []error
	for _, e := range list {
		out, err := e.fn(ctx, event, data)
		if errors.Is(err, ErrInterrupt) {
			return out, err
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		data = out
	}
	return data, errors.Join(errs...)
}

// Lifecycle events raised by the engine.
const (
	OnPlayerLogin = "on_player_login"
	OnCashOut     = "on_cash_out"
	OnAgentDeath  = "on_agent_death"
	OnPotEmpty    = "on_pot_empty"
)
