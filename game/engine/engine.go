// Package engine runs the simulation: it owns the periodic processes that
// drive the world store and routes world events to subscribers, hooks and
// the ledger.
package engine

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/game/ai"
	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/events"
	"github.com/kasuganosora/rigworld/server/game/market"
	"github.com/kasuganosora/rigworld/server/game/world"
	"github.com/kasuganosora/rigworld/server/hook"
	"github.com/kasuganosora/rigworld/server/ledger"
	"github.com/kasuganosora/rigworld/server/model"
	"go.uber.org/zap"
)

// Periodic task names, as listed by the admin scheduler endpoint.
const (
	TaskAgents      = "agents"
	TaskEconomy     = "economy"
	TaskEnvironment = "environment"
	TaskMarket      = "market"
)

// EventsChannel is the pub/sub channel world events are published on.
const EventsChannel = "world.events"

// Scheduler runs named periodic and one-shot tasks.
type Scheduler interface {
	world.Timers
	AddTicker(name string, interval time.Duration, fn func())
	Stop()
}

// Ledger is where economic events end up.
type Ledger interface {
	Record(e ledger.Entry)
}

type Config struct {
	AgentTick   time.Duration
	EconomyTick time.Duration
	EnvCheck    time.Duration
	MarketPoll  time.Duration
}

func DefaultConfig() Config {
	return Config{
		AgentTick:   100 * time.Millisecond,
		EconomyTick: time.Second,
		EnvCheck:    30 * time.Second,
		MarketPoll:  30 * time.Second,
	}
}

// Deps are the collaborators an Engine drives. Ledger, PubSub and Market
// may be nil.
type Deps struct {
	Store     *world.Store
	Scheduler Scheduler
	Brain     *ai.Brain
	Director  *events.Director
	Market    *market.Adapter
	Ledger    Ledger
	Hooks     *hook.Center
	PubSub    cache.PubSub
	Logger    *zap.Logger
}

type Engine struct {
	cfg      Config
	store    *world.Store
	sched    Scheduler
	brain    *ai.Brain
	director *events.Director
	market   *market.Adapter
	ledger   Ledger
	hooks    *hook.Center
	pubsub   cache.PubSub
	logger   *zap.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	pumpStop  chan struct{}
	pumpDone  chan struct{}
}

// LoginInfo is the payload of hook.OnPlayerLogin.
type LoginInfo struct {
	SessionID string
	TraceID   string
}

// CashOutInfo is the payload of hook.OnCashOut.
type CashOutInfo struct {
	Amount       float64
	GlobalPot    float64
	OwnerBalance float64
	TraceID      string
}

func New(cfg Config, d Deps) *Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Hooks == nil {
		d.Hooks = hook.NewCenter()
	}
	if d.Brain == nil {
		d.Brain = ai.NewBrain(d.Logger)
	}
	e := &Engine{
		cfg:      cfg,
		store:    d.Store,
		sched:    d.Scheduler,
		brain:    d.Brain,
		director: d.Director,
		market:   d.Market,
		ledger:   d.Ledger,
		hooks:    d.Hooks,
		pubsub:   d.PubSub,
		logger:   d.Logger,
		pumpStop: make(chan struct{}),
		pumpDone: make(chan struct{}),
	}
	e.registerHooks()
	return e
}

func (e *Engine) Store() *world.Store        { return e.store }
func (e *Engine) Director() *events.Director { return e.director }
func (e *Engine) Hooks() *hook.Center        { return e.hooks }

// Start registers the periodic processes and begins forwarding events.
// It is a no-op after the first call.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.sched.AddTicker(TaskAgents, e.cfg.AgentTick, e.tickAgents)
		e.sched.AddTicker(TaskEconomy, e.cfg.EconomyTick, e.tickEconomy)
		if e.director != nil {
			e.sched.AddTicker(TaskEnvironment, e.cfg.EnvCheck, func() { e.director.Check() })
		}
		if e.market != nil {
			e.sched.AddTicker(TaskMarket, e.cfg.MarketPoll, e.market.Poll)
			e.market.Poll()
		}
		go e.pump()
		e.logger.Info("engine started",
			zap.Duration("agent_tick", e.cfg.AgentTick),
			zap.Duration("economy_tick", e.cfg.EconomyTick))
	})
}

// Stop cancels every timer, freezes the world and drains pending events.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.sched.Stop()
		e.store.Close()
		close(e.pumpStop)
		started := true
		e.startOnce.Do(func() { started = false })
		if started {
			<-e.pumpDone
		}
		e.logger.Info("engine stopped")
	})
}

func (e *Engine) tickAgents() {
	e.store.Update(e.brain.Tick)
}

func (e *Engine) tickEconomy() {
	e.store.Update(func(w *world.World) { w.EconomicTick() })
}

// Login runs the login hooks; by default that starts an ad break.
func (e *Engine) Login(ctx context.Context, sessionID, traceID string) error {
	_, err := e.hooks.Trigger(ctx, hook.OnPlayerLogin, LoginInfo{SessionID: sessionID, TraceID: traceID})
	return err
}

// CashOut empties the wallet and, when anything was cashed out, runs the
// cash-out hooks.
func (e *Engine) CashOut(ctx context.Context, traceID string) (float64, error) {
	var info CashOutInfo
	if !e.store.Update(func(w *world.World) {
		info.Amount = w.CashOut()
		info.GlobalPot = w.Econ.GlobalPot
		info.OwnerBalance = w.Econ.OwnerBalance
	}) {
		return 0, world.ErrClosed
	}
	if info.Amount <= 0 {
		return 0, nil
	}
	info.TraceID = traceID
	if _, herr := e.hooks.Trigger(ctx, hook.OnCashOut, info); herr != nil {
		e.logger.Warn("cash-out hooks", zap.Error(herr))
	}
	return info.Amount, nil
}

// TriggerAd starts an ad break for reason.
func (e *Engine) TriggerAd(reason string) {
	if e.director != nil {
		e.director.TriggerAd(reason)
	}
}

// ForceStorm starts a storm now unless another event is running.
func (e *Engine) ForceStorm() bool {
	return e.director != nil && e.director.ForceStorm()
}

func (e *Engine) registerHooks() {
	e.hooks.Register(hook.OnPlayerLogin, 100, "ad_break", func(_ context.Context, _ string, data any) (any, error) {
		e.TriggerAd("login")
		return data, nil
	})
	e.hooks.Register(hook.OnCashOut, 10, "ledger", func(_ context.Context, _ string, data any) (any, error) {
		if info, ok := data.(CashOutInfo); ok {
			e.record(ledger.Entry{
				TraceID:      info.TraceID,
				Kind:         model.LedgerCashOut,
				Amount:       info.Amount,
				GlobalPot:    info.GlobalPot,
				OwnerBalance: info.OwnerBalance,
			})
		}
		return data, nil
	})
	e.hooks.Register(hook.OnCashOut, 100, "ad_break", func(_ context.Context, _ string, data any) (any, error) {
		e.TriggerAd("cash_out")
		return data, nil
	})
	e.hooks.Register(hook.OnPotEmpty, 10, "ledger", func(_ context.Context, _ string, data any) (any, error) {
		pot, owner := e.balances()
		e.record(ledger.Entry{Kind: model.LedgerPotEmpty, GlobalPot: pot, OwnerBalance: owner})
		return data, nil
	})
	e.hooks.Register(hook.OnAgentDeath, 10, "log", func(_ context.Context, _ string, data any) (any, error) {
		if ev, ok := data.(world.Event); ok {
			e.logger.Info("agent died", zap.String("agent", ev.Subject), zap.String("name", ev.Message))
		}
		return data, nil
	})
	e.hooks.Register(hook.OnAgentDeath, 100, "ad_break", func(_ context.Context, _ string, data any) (any, error) {
		e.TriggerAd("death")
		return data, nil
	})
}

func (e *Engine) record(entry ledger.Entry) {
	if e.ledger != nil {
		e.ledger.Record(entry)
	}
}

func (e *Engine) balances() (pot, owner float64) {
	e.store.View(func(w *world.World) {
		pot, owner = w.Econ.GlobalPot, w.Econ.OwnerBalance
	})
	return pot, owner
}

func (e *Engine) pump() {
	defer close(e.pumpDone)
	for {
		select {
		case ev := <-e.store.Events():
			e.dispatch(ev)
		case <-e.pumpStop:
			for {
				select {
				case ev := <-e.store.Events():
					e.dispatch(ev)
				default:
					return
				}
			}
		}
	}
}

func (e *Engine) dispatch(ev world.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if e.pubsub != nil {
		if b, err := json.Marshal(ev); err == nil {
			if err := e.pubsub.Publish(ctx, EventsChannel, string(b)); err != nil {
				e.logger.Debug("publish world event", zap.String("kind", ev.Kind), zap.Error(err))
			}
		}
	}

	switch ev.Kind {
	case world.EventAgentDeath:
		e.trigger(ctx, hook.OnAgentDeath, ev)
	case world.EventPotEmpty:
		e.trigger(ctx, hook.OnPotEmpty, ev)
	case world.EventAdPayout:
		pot, owner := e.balances()
		e.record(ledger.Entry{
			Kind:         model.LedgerAdPayout,
			Amount:       ev.Amount,
			GlobalPot:    pot,
			OwnerBalance: owner,
		})
	case world.EventBuilt:
		var item catalog.Item
		e.store.View(func(w *world.World) {
			if s := w.Structure(ev.Subject); s != nil {
				item = s.Item
			}
		})
		if item == catalog.MiningRig {
			e.record(ledger.Entry{Kind: model.LedgerRigBuilt, Details: map[string]string{"structure": ev.Subject}})
		}
	}
}

func (e *Engine) trigger(ctx context.Context, event string, data any) {
	if _, err := e.hooks.Trigger(ctx, event, data); err != nil {
		e.logger.Warn("hook chain", zap.String("event", event), zap.Error(err))
	}
}
