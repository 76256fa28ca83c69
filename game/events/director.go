// Package events runs the global environment state machine: random storms
// and scripted ad breaks that pay into the pot.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/game/world"
	"go.uber.org/zap"
)

const (
	TimerStormEnd = "storm_end"
	TimerAdBreak  = "ad_break"

	historyKey  = "world:env_history"
	historySize = 20
)

// Config tunes event frequency and length.
type Config struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	StormChance   float64       `mapstructure:"storm_chance"`
	StormDuration time.Duration `mapstructure:"storm_duration"`
	AdDuration    time.Duration `mapstructure:"ad_duration"`
	AdRevenue     float64       `mapstructure:"ad_revenue"`
}

func DefaultConfig() Config {
	return Config{
		CheckInterval: 30 * time.Second,
		StormChance:   0.15,
		StormDuration: 20 * time.Second,
		AdDuration:    4 * time.Second,
		AdRevenue:     1000,
	}
}

// Director owns transitions between NORMAL, STORM and AD_BREAK.
type Director struct {
	cfg     Config
	store   *world.Store
	timers  world.Timers
	history cache.Cache
	logger  *zap.Logger

	// mu orders starts so delays are scheduled in epoch order.
	mu sync.Mutex
}

// NewDirector wires a director to store. history may be nil.
func NewDirector(cfg Config, store *world.Store, timers world.Timers, history cache.Cache, logger *zap.Logger) *Director {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Director{cfg: cfg, store: store, timers: timers, history: history, logger: logger}
}

// Check is the periodic roll. From NORMAL it may start a storm.
func (d *Director) Check() bool {
	return d.startStorm(true)
}

// ForceStorm starts a storm unless another event is running.
func (d *Director) ForceStorm() bool {
	return d.startStorm(false)
}

func (d *Director) startStorm(roll bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	var epoch uint64
	d.store.Update(func(w *world.World) {
		if w.Env != world.EnvNormal || (roll && w.Rand().Float64() >= d.cfg.StormChance) {
			return
		}
		epoch = w.EnterEnvironment(world.EnvStorm)
		w.Logf("STORM WARNING: mining rigs offline")
	})
	if epoch == 0 {
		return false
	}
	reason := "forced"
	if roll {
		reason = "random"
	}
	d.record(world.EnvStorm, reason)
	d.timers.AddDelay(TimerStormEnd, d.cfg.StormDuration, func() { d.endStorm(epoch) })
	return true
}

func (d *Director) endStorm(epoch uint64) {
	ended := false
	d.store.Update(func(w *world.World) {
		if w.Env != world.EnvStorm || w.EnvEpoch() != epoch {
			return
		}
		w.SetEnvironment(world.EnvNormal)
		w.Logf("Storm passed, rigs back online")
		ended = true
	})
	if ended {
		d.record(world.EnvNormal, "storm over")
	}
}

// TriggerAd forces an ad break whatever the current state. A trigger during
// a running break restarts its clock; the payout happens once when it ends.
func (d *Director) TriggerAd(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var epoch uint64
	if !d.store.Update(func(w *world.World) {
		epoch = w.EnterEnvironment(world.EnvAdBreak)
		w.Logf("AD BREAK (%s)", reason)
	}) {
		return
	}
	d.record(world.EnvAdBreak, reason)
	d.timers.AddDelay(TimerAdBreak, d.cfg.AdDuration, func() { d.endAd(epoch) })
}

func (d *Director) endAd(epoch uint64) {
	paid := false
	d.store.Update(func(w *world.World) {
		if w.Env != world.EnvAdBreak || w.EnvEpoch() != epoch {
			return
		}
		w.SetEnvironment(world.EnvNormal)
		w.ApplyAdPayout(d.cfg.AdRevenue)
		w.Logf("Ad revenue %.0f split between pot and owner", d.cfg.AdRevenue)
		paid = true
	})
	if paid {
		d.record(world.EnvNormal, "ad over")
	}
}

func (d *Director) record(env world.Environment, reason string) {
	if d.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	entry := fmt.Sprintf("%s|%s|%s", time.Now().UTC().Format(time.RFC3339), env, reason)
	if err := d.history.LPush(ctx, historyKey, entry); err != nil {
		d.logger.Warn("record environment history", zap.Error(err))
		return
	}
	if err := d.history.LTrim(ctx, historyKey, 0, historySize-1); err != nil {
		d.logger.Warn("trim environment history", zap.Error(err))
	}
}

// History returns recent transitions, newest first.
func (d *Director) History(ctx context.Context) ([]string, error) {
	if d.history == nil {
		return nil, nil
	}
	return d.history.LRange(ctx, historyKey, 0, historySize-1)
}
