package market

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/game/world"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const lastReportKey = "market:last_report"

// Config for the market poll.
type Config struct {
	Endpoint    string        `mapstructure:"endpoint"`
	APIKey      string        `mapstructure:"api_key"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

func DefaultConfig() Config {
	return Config{
		Interval:    30 * time.Second,
		Timeout:     5 * time.Second,
		MinInterval: 10 * time.Second,
		CacheTTL:    10 * time.Minute,
	}
}

// Adapter polls an oracle and writes the result into the world. Remote
// failures fall back to the local generator; calls faster than MinInterval
// reuse the last remote report.
type Adapter struct {
	cfg      Config
	primary  Oracle
	fallback Oracle
	limiter  *rate.Limiter
	cache    cache.Cache
	store    *world.Store
	logger   *zap.Logger
	inflight atomic.Bool
}

// NewAdapter builds an adapter. c may be nil.
func NewAdapter(cfg Config, primary, fallback Oracle, c cache.Cache, store *world.Store, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Adapter{
		cfg:      cfg,
		primary:  primary,
		fallback: fallback,
		limiter:  rate.NewLimiter(limit, 1),
		cache:    c,
		store:    store,
		logger:   logger,
	}
}

// Poll refreshes in the background. A poll that finds the previous one
// still running is skipped.
func (a *Adapter) Poll() {
	if !a.inflight.CompareAndSwap(false, true) {
		a.logger.Debug("market poll skipped, previous still running")
		return
	}
	go func() {
		defer a.inflight.Store(false)
		a.Refresh(context.Background())
	}()
}

// Refresh fetches a report and applies it to the world.
func (a *Adapter) Refresh(ctx context.Context) Report {
	current := 1.0
	a.store.View(func(w *world.World) { current = w.Econ.MarketModifier })

	r := a.fetch(ctx, current)
	a.store.Update(func(w *world.World) { w.SetMarket(r.Headline, r.Modifier) })
	return r
}

func (a *Adapter) fetch(ctx context.Context, current float64) Report {
	if !a.limiter.Allow() {
		if r, ok := a.cached(ctx); ok {
			return r
		}
		return a.local(ctx, current)
	}
	if a.primary != nil {
		fctx, cancel := withTimeout(ctx, a.cfg.Timeout)
		r, err := a.primary.Fetch(fctx, current)
		cancel()
		if err == nil {
			a.remember(ctx, r)
			return r
		}
		a.logger.Debug("market oracle unavailable, using local report", zap.Error(err))
	}
	return a.local(ctx, current)
}

func (a *Adapter) local(ctx context.Context, current float64) Report {
	r, err := a.fallback.Fetch(ctx, current)
	if err != nil || !r.valid() {
		return Report{Headline: "Markets quiet", Modifier: 1.0, Source: "local"}
	}
	return r
}

func (a *Adapter) remember(ctx context.Context, r Report) {
	if a.cache == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, lastReportKey, string(b), a.cfg.CacheTTL); err != nil {
		a.logger.Warn("cache market report", zap.Error(err))
	}
}

func (a *Adapter) cached(ctx context.Context) (Report, bool) {
	if a.cache == nil {
		return Report{}, false
	}
	s, err := a.cache.Get(ctx, lastReportKey)
	if err != nil {
		return Report{}, false
	}
	var r Report
	if json.Unmarshal([]byte(s), &r) != nil || !r.valid() {
		return Report{}, false
	}
	r.Source = "cache"
	return r, true
}
