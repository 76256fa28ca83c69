package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendChanBuf   = 256
	writeDeadline = 10 * time.Second
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second
)

// Packet is the WS message envelope in both directions.
type Packet struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Session is one connected client. Writes go through a buffered channel
// drained by a single writer goroutine.
type Session struct {
	ID      string
	Conn    *websocket.Conn
	TraceID string
	LastSeq uint64

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

// NewSession wraps conn and starts its writer.
func NewSession(id string, conn *websocket.Conn, logger *zap.Logger) *Session {
	s := newSession(id, logger)
	s.Conn = conn
	go s.writePump()
	return s
}

func newSession(id string, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		ID:     id,
		send:   make(chan []byte, sendChanBuf),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// writePump drains the send queue and pings the peer so dead connections
// are noticed within a read deadline.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.Conn.Close()
	for {
		select {
		case data := <-s.send:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("ws write error", zap.String("session", s.ID), zap.Error(err))
				s.Close()
				return
			}
		case <-ticker.C:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := s.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}
		case <-s.done:
			_ = s.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send encodes pkt and queues it. Full or closed sessions drop it.
func (s *Session) Send(pkt *Packet) {
	data, err := json.Marshal(pkt)
	if err != nil {
		s.logger.Error("encode packet", zap.String("type", pkt.Type), zap.Error(err))
		return
	}
	s.SendRaw(data)
}

// SendRaw queues pre-encoded bytes.
func (s *Session) SendRaw(data []byte) {
	if s.IsClosed() {
		return
	}
	select {
	case s.send <- data:
	case <-s.done:
	default:
		s.logger.Warn("send channel full, dropping packet", zap.String("session", s.ID))
	}
}

// Reply sends typ with v marshalled as its payload, echoing seq.
func (s *Session) Reply(seq uint64, typ string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode payload", zap.String("type", typ), zap.Error(err))
		return
	}
	s.Send(&Packet{Seq: seq, Type: typ, Payload: payload})
}

// Close signals the writer to shut down. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) setReadDeadline() {
	_ = s.Conn.SetReadDeadline(time.Now().Add(readDeadline))
}
