package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/rigworld/server/api/rest"
	"github.com/kasuganosora/rigworld/server/api/sse"
	apiws "github.com/kasuganosora/rigworld/server/api/ws"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
	dbadapter "github.com/kasuganosora/rigworld/server/db"
	"github.com/kasuganosora/rigworld/server/game/engine"
	"github.com/kasuganosora/rigworld/server/game/events"
	"github.com/kasuganosora/rigworld/server/game/market"
	"github.com/kasuganosora/rigworld/server/game/world"
	"github.com/kasuganosora/rigworld/server/ledger"
	mw "github.com/kasuganosora/rigworld/server/middleware"
	"github.com/kasuganosora/rigworld/server/model"
	"github.com/kasuganosora/rigworld/server/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

func main() {
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		logger.Fatal("security.jwt_secret is required")
	}
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	if cfg.Security.PassphraseHash == "" {
		logger.Warn("security.passphrase_hash is not set; login is open")
	}

	// ---- Database / Ledger ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	ledgerSvc := ledger.New(db, logger)
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Scheduler ----
	sched := scheduler.New(logger)

	// ---- World ----
	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	w := world.Generate(worldConfig(cfg), rand.New(rand.NewSource(seed)), logger)
	store := world.NewStore(w, sched, cfg.World.EventBuffer, logger)
	logger.Info("World generated", zap.Int64("seed", seed))

	director := events.NewDirector(events.Config{
		CheckInterval: cfg.Events.CheckInterval,
		StormChance:   cfg.Events.StormChance,
		StormDuration: cfg.Events.StormDuration,
		AdDuration:    cfg.Events.AdDuration,
		AdRevenue:     cfg.Economy.AdRevenue,
	}, store, sched, c, logger)

	marketCfg := market.Config{
		Endpoint:    cfg.Market.Endpoint,
		APIKey:      cfg.Market.APIKey,
		Interval:    cfg.Market.Interval,
		Timeout:     cfg.Market.Timeout,
		MinInterval: cfg.Market.MinInterval,
		CacheTTL:    cfg.Market.CacheTTL,
	}
	oracle := &market.HTTPOracle{
		Endpoint: marketCfg.Endpoint,
		APIKey:   marketCfg.APIKey,
		Client:   &http.Client{Timeout: marketCfg.Timeout},
	}
	mkt := market.NewAdapter(marketCfg, oracle, market.NewFallback(seed), c, store, logger)
	if marketCfg.APIKey == "" {
		logger.Info("market api key not set; using local headlines")
	}

	eng := engine.New(engine.Config{
		AgentTick:   cfg.World.AgentTick,
		EconomyTick: cfg.Economy.Tick,
		EnvCheck:    cfg.Events.CheckInterval,
		MarketPoll:  cfg.Market.Interval,
	}, engine.Deps{
		Store:     store,
		Scheduler: sched,
		Director:  director,
		Market:    mkt,
		Ledger:    ledgerSvc,
		PubSub:    pubsub,
		Logger:    logger,
	})
	eng.Start()

	// ---- HTTP ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	limiters := mw.NewLimiters(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	sched.AddTicker("limiter_gc", time.Minute, func() {
		if n := limiters.Forget(time.Now().Add(-limiterIdle)); n > 0 {
			logger.Debug("rate limiters pruned", zap.Int("count", n))
		}
	})

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger), mw.RateLimit(limiters))

	apirest.Register(r, apirest.Handlers{
		Auth:  apirest.NewAuthHandler(c, cfg.Security, eng, logger),
		World: apirest.NewWorldHandler(eng),
		Admin: apirest.NewAdminHandler(eng, sched, ledgerSvc, logger),
	}, cfg, c)

	wsRouter := apiws.NewRouter(logger)
	apiws.RegisterWorldHandlers(wsRouter, eng)
	wsH := apiws.NewHandler(c, pubsub, cfg.Security, eng, wsRouter, limiters, logger)
	r.GET("/ws", wsH.ServeWS)

	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("Server listening", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", zap.Error(err))
	}

	eng.Stop()
	ledgerSvc.Stop(context.Background())
	logger.Info("Server stopped")
}

func worldConfig(cfg *config.Config) world.Config {
	wc := world.DefaultConfig()
	wc.Bound = cfg.World.Bound
	wc.NodeCount = cfg.World.NodeCount
	wc.AgentCount = cfg.World.AgentCount
	wc.LogSize = cfg.World.LogSize
	wc.MaxPot = cfg.Economy.MaxPot
	wc.InitialPot = cfg.Economy.InitialPot
	wc.BaseRate = cfg.Economy.BaseRate
	wc.OwnerFee = cfg.Economy.OwnerFee
	wc.DepletedFactor = cfg.Economy.DepletedFactor
	return wc
}
