package rest_test

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rigworld/server/api/rest"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
	"github.com/kasuganosora/rigworld/server/game/engine"
	"github.com/kasuganosora/rigworld/server/game/events"
	"github.com/kasuganosora/rigworld/server/game/world"
	"github.com/kasuganosora/rigworld/server/scheduler"
	"github.com/kasuganosora/rigworld/server/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	r      *gin.Engine
	eng    *engine.Engine
	w      *world.World
	timers *testutil.ManualTimers
	cache  cache.Cache
	cfg    *config.Config
}

func newEnv(t *testing.T, mutate func(cfg *config.Config), ledger rest.LedgerReader) *env {
	t.Helper()
	cfg := config.Default()
	cfg.Security.JWTSecret = "test-secret"
	cfg.Security.JWTTTL = time.Hour
	cfg.Server.AdminKey = "admin"
	if mutate != nil {
		mutate(cfg)
	}

	w := world.New(world.DefaultConfig(), rand.New(rand.NewSource(5)), zap.NewNop())
	timers := testutil.NewManualTimers()
	store := world.NewStore(w, timers, 256, zap.NewNop())
	c, _ := testutil.SetupTestCache(t)
	eng := engine.New(engine.DefaultConfig(), engine.Deps{
		Store:     store,
		Scheduler: timers,
		Director:  events.NewDirector(events.DefaultConfig(), store, timers, c, zap.NewNop()),
	})
	t.Cleanup(eng.Stop)

	sched := scheduler.New(zap.NewNop())
	t.Cleanup(sched.Stop)
	sched.AddTicker("agents", time.Hour, func() {})

	r := gin.New()
	rest.Register(r, rest.Handlers{
		Auth:  rest.NewAuthHandler(c, cfg.Security, eng, zap.NewNop()),
		World: rest.NewWorldHandler(eng),
		Admin: rest.NewAdminHandler(eng, sched, ledger, zap.NewNop()),
	}, cfg, c)
	return &env{r: r, eng: eng, w: w, timers: timers, cache: c, cfg: cfg}
}

func (e *env) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// login returns a bearer token and lets the login ad break run out.
func (e *env) login(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodPost, "/api/auth/login", map[string]string{"passphrase": "x"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	e.timers.Advance(4 * time.Second)
	return resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
