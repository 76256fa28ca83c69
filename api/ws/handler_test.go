package ws_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasuganosora/rigworld/server/api/ws"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/engine"
	"github.com/kasuganosora/rigworld/server/game/world"
	mw "github.com/kasuganosora/rigworld/server/middleware"
	"github.com/kasuganosora/rigworld/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type wsEnv struct {
	srv   *httptest.Server
	eng   *engine.Engine
	w     *world.World
	cache cache.Cache
	sec   config.SecurityConfig
}

func newWSEnv(t *testing.T, limiters *mw.Limiters) *wsEnv {
	t.Helper()
	sec := config.SecurityConfig{JWTSecret: "ws-secret", JWTTTL: time.Hour}
	w := world.Generate(world.DefaultConfig(), rand.New(rand.NewSource(9)), zap.NewNop())
	timers := testutil.NewManualTimers()
	store := world.NewStore(w, timers, 256, zap.NewNop())
	c, ps := testutil.SetupTestCache(t)
	eng := engine.New(engine.DefaultConfig(), engine.Deps{
		Store:     store,
		Scheduler: timers,
		PubSub:    ps,
	})
	eng.Start()
	t.Cleanup(eng.Stop)

	router := ws.NewRouter(zap.NewNop())
	ws.RegisterWorldHandlers(router, eng)
	h := ws.NewHandler(c, ps, sec, eng, router, limiters, zap.NewNop())

	r := gin.New()
	r.GET("/ws", h.ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &wsEnv{srv: srv, eng: eng, w: w, cache: c, sec: sec}
}

func (e *wsEnv) token(t *testing.T, sid string) string {
	t.Helper()
	tok, err := mw.GenerateToken(sid, e.sec.JWTSecret, e.sec.JWTTTL)
	require.NoError(t, err)
	require.NoError(t, e.cache.Set(context.Background(), mw.SessionKey(sid), "127.0.0.1", time.Hour))
	return tok
}

func (e *wsEnv) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// next reads packets until one of type typ arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) ws.Packet {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var pkt ws.Packet
		require.NoError(t, conn.ReadJSON(&pkt))
		if pkt.Type == typ {
			return pkt
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, seq uint64, typ string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	require.NoError(t, conn.WriteJSON(ws.Packet{Seq: seq, Type: typ, Payload: raw}))
}

func TestServeWS_RejectsBadTokens(t *testing.T) {
	e := newWSEnv(t, nil)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, _ := mw.GenerateToken("gone", e.sec.JWTSecret, time.Hour)
	_, resp, err = websocket.DefaultDialer.Dial(url+"?token="+tok, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_SnapshotOnConnect(t *testing.T) {
	e := newWSEnv(t, nil)
	conn := e.dial(t, e.token(t, "s1"))

	pkt := next(t, conn, "snapshot")
	var snap struct {
		Nodes []json.RawMessage `json:"nodes"`
		Log   []string          `json:"log"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &snap))
	assert.NotEmpty(t, snap.Nodes)
}

func TestServeWS_PingPong(t *testing.T) {
	e := newWSEnv(t, nil)
	conn := e.dial(t, e.token(t, "s1"))
	next(t, conn, "snapshot")

	send(t, conn, 7, "ping", nil)
	pkt := next(t, conn, "pong")
	assert.EqualValues(t, 7, pkt.Seq)
}

func TestServeWS_ActionResultAndEvent(t *testing.T) {
	e := newWSEnv(t, nil)
	conn := e.dial(t, e.token(t, "s1"))
	next(t, conn, "snapshot")

	send(t, conn, 1, engine.ActCraft, map[string]any{"item": catalog.Crate})
	pkt := next(t, conn, engine.ActCraft+"_result")
	var reply struct {
		OK    bool     `json:"ok"`
		Error string   `json:"error"`
		Log   []string `json:"log"`
	}
	require.NoError(t, json.Unmarshal(pkt.Payload, &reply))
	assert.False(t, reply.OK, "empty inventory cannot craft")
	assert.Equal(t, "rejected", reply.Error)
	assert.NotEmpty(t, reply.Log)

	send(t, conn, 2, engine.ActMenuToggle, nil)
	pkt = next(t, conn, engine.ActMenuToggle+"_result")
	require.NoError(t, json.Unmarshal(pkt.Payload, &reply))
	assert.True(t, reply.OK)

	send(t, conn, 3, engine.ActCraft, map[string]any{"item": catalog.Crate})
	for {
		ev := next(t, conn, "event")
		var got world.Event
		require.NoError(t, json.Unmarshal(ev.Payload, &got))
		if got.Kind == world.EventLog {
			assert.Contains(t, got.Message, "No recipe")
			break
		}
	}
}

func TestServeWS_RateLimited(t *testing.T) {
	e := newWSEnv(t, mw.NewLimiters(rate.Every(time.Hour), 1))
	conn := e.dial(t, e.token(t, "s1"))
	next(t, conn, "snapshot")

	send(t, conn, 1, "ping", nil)
	next(t, conn, "pong")
	send(t, conn, 2, "ping", nil)
	pkt := next(t, conn, "error")
	assert.Contains(t, string(pkt.Payload), "rate limited")
}
