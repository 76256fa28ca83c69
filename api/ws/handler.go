package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kasuganosora/rigworld/server/cache"
	"github.com/kasuganosora/rigworld/server/config"
	"github.com/kasuganosora/rigworld/server/game/engine"
	mw "github.com/kasuganosora/rigworld/server/middleware"
	"go.uber.org/zap"
)

// Handler is the Gin handler for GET /ws.
type Handler struct {
	cache    cache.Cache
	pubsub   cache.PubSub
	sec      config.SecurityConfig
	eng      *engine.Engine
	router   *Router
	limiters *mw.Limiters
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket Handler.
// sec.AllowedOrigins controls which WebSocket origins are accepted.
// An empty slice permits all origins (development only). limiters may be
// nil to disable per-session throttling.
func NewHandler(
	c cache.Cache,
	ps cache.PubSub,
	sec config.SecurityConfig,
	eng *engine.Engine,
	router *Router,
	limiters *mw.Limiters,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		cache:    c,
		pubsub:   ps,
		sec:      sec,
		eng:      eng,
		router:   router,
		limiters: limiters,
		logger:   logger,
	}
	allowed := sec.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true // dev mode: allow all
			}
			origin := r.Header.Get("Origin")
			for _, o := range allowed {
				if o == origin {
					return true
				}
			}
			return false
		},
	}
	return h
}

// ServeWS handles GET /ws?token=<jwt>.
func (h *Handler) ServeWS(c *gin.Context) {
	claims, err := mw.VerifySession(c.Request.Context(), c.Query("token"), h.sec, h.cache)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", zap.Error(err))
		return
	}

	sess := NewSession(claims.SessionID, conn, h.logger)
	h.logger.Info("ws connected", zap.String("session", sess.ID))
	sess.Reply(0, "snapshot", h.eng.Store().Snapshot())

	if h.pubsub != nil {
		msgs, unsub, err := h.pubsub.Subscribe(c.Request.Context(), engine.EventsChannel)
		if err != nil {
			h.logger.Error("ws subscribe failed", zap.Error(err))
		} else {
			defer unsub()
			go forwardEvents(sess, msgs)
		}
	}

	h.readPump(sess)
}

// forwardEvents relays world events until the session or the
// subscription ends.
func forwardEvents(s *Session, msgs <-chan *cache.Message) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			s.Send(&Packet{Type: "event", Payload: []byte(msg.Payload)})
		case <-s.Done():
			return
		}
	}
}

// readPump reads messages from the WebSocket connection and dispatches them.
func (h *Handler) readPump(s *Session) {
	defer func() {
		s.Close()
		h.logger.Info("ws disconnected", zap.String("session", s.ID))
	}()

	s.setReadDeadline()
	s.Conn.SetPongHandler(func(string) error {
		s.setReadDeadline()
		return nil
	})

	for {
		_, raw, err := s.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived) {
				h.logger.Warn("ws unexpected close", zap.String("session", s.ID), zap.Error(err))
			}
			return
		}
		s.setReadDeadline()
		if h.limiters != nil && !h.limiters.Allow("ws:"+s.ID) {
			s.Send(&Packet{Type: "error", Payload: []byte(`{"error":"rate limited"}`)})
			continue
		}
		h.router.Dispatch(s, raw)
	}
}
