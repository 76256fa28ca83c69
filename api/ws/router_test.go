package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { return zap.NewNop() }

func makePacket(t *testing.T, seq uint64, msgType string, payload interface{}) []byte {
	t.Helper()
	var p json.RawMessage
	if payload != nil {
		p, _ = json.Marshal(payload)
	}
	b, err := json.Marshal(Packet{Seq: seq, Type: msgType, Payload: p})
	require.NoError(t, err)
	return b
}

// drain returns the next queued packet, failing if there is none.
func drain(t *testing.T, s *Session) Packet {
	t.Helper()
	select {
	case raw := <-s.send:
		var pkt Packet
		require.NoError(t, json.Unmarshal(raw, &pkt))
		return pkt
	default:
		t.Fatal("no packet queued")
		return Packet{}
	}
}

func TestRouter_On_Dispatch_Basic(t *testing.T) {
	r := NewRouter(nop())
	called := false
	r.On("ping", func(ctx context.Context, s *Session, pkt *Packet) error {
		called = true
		return nil
	})

	s := newSession("s1", nil)
	r.Dispatch(s, makePacket(t, 1, "ping", nil))
	assert.True(t, called)
}

func TestRouter_Dispatch_MalformedJSON(t *testing.T) {
	r := NewRouter(nop())
	s := newSession("s1", nil)
	r.Dispatch(s, []byte("not json"))
	assert.Empty(t, s.send)
}

func TestRouter_Dispatch_UnknownTypeRepliesError(t *testing.T) {
	r := NewRouter(nop())
	called := false
	r.On("known", func(context.Context, *Session, *Packet) error {
		called = true
		return nil
	})
	s := newSession("s1", nil)
	r.Dispatch(s, makePacket(t, 3, "unknown", nil))
	assert.False(t, called)

	pkt := drain(t, s)
	assert.Equal(t, "error", pkt.Type)
	assert.EqualValues(t, 3, pkt.Seq)
	assert.Contains(t, string(pkt.Payload), "unknown type unknown")
}

func TestRouter_Dispatch_AntiReplay(t *testing.T) {
	r := NewRouter(nop())
	var calls int
	r.On("msg", func(context.Context, *Session, *Packet) error {
		calls++
		return nil
	})
	s := newSession("s1", nil)

	r.Dispatch(s, makePacket(t, 5, "msg", nil))
	r.Dispatch(s, makePacket(t, 5, "msg", nil))
	r.Dispatch(s, makePacket(t, 3, "msg", nil))
	assert.Equal(t, 1, calls)

	r.Dispatch(s, makePacket(t, 6, "msg", nil))
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 6, s.LastSeq)
}

func TestRouter_Dispatch_SeqZeroNotTracked(t *testing.T) {
	r := NewRouter(nop())
	var calls int
	r.On("msg", func(context.Context, *Session, *Packet) error {
		calls++
		return nil
	})
	s := newSession("s1", nil)
	s.LastSeq = 10

	r.Dispatch(s, makePacket(t, 0, "msg", nil))
	r.Dispatch(s, makePacket(t, 0, "msg", nil))
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 10, s.LastSeq)
}

func TestRouter_Dispatch_Payload(t *testing.T) {
	r := NewRouter(nop())
	var got map[string]float64
	r.On("move", func(_ context.Context, _ *Session, pkt *Packet) error {
		return json.Unmarshal(pkt.Payload, &got)
	})
	s := newSession("s1", nil)
	r.Dispatch(s, makePacket(t, 1, "move", map[string]float64{"dx": 1, "dz": -1}))
	assert.Equal(t, map[string]float64{"dx": 1, "dz": -1}, got)
}

func TestRouter_Dispatch_HandlerErrorRepliesError(t *testing.T) {
	r := NewRouter(nop())
	r.On("fail", func(context.Context, *Session, *Packet) error {
		return errors.New("boom")
	})
	s := newSession("s1", nil)
	r.Dispatch(s, makePacket(t, 1, "fail", nil))

	pkt := drain(t, s)
	assert.Equal(t, "error", pkt.Type)
	assert.Contains(t, string(pkt.Payload), "boom")
}

func TestRouter_Dispatch_TraceID(t *testing.T) {
	r := NewRouter(nop())
	var traces []string
	r.On("msg", func(ctx context.Context, s *Session, _ *Packet) error {
		traces = append(traces, TraceIDFromCtx(ctx))
		assert.Equal(t, s.TraceID, TraceIDFromCtx(ctx))
		return nil
	})
	s := newSession("s1", nil)
	r.Dispatch(s, makePacket(t, 1, "msg", nil))
	r.Dispatch(s, makePacket(t, 2, "msg", nil))
	require.Len(t, traces, 2)
	assert.NotEmpty(t, traces[0])
	assert.NotEqual(t, traces[0], traces[1])

	assert.Empty(t, TraceIDFromCtx(context.Background()))
}

func TestRouter_On_ReplacesHandler(t *testing.T) {
	r := NewRouter(nop())
	var which string
	r.On("msg", func(context.Context, *Session, *Packet) error { which = "first"; return nil })
	r.On("msg", func(context.Context, *Session, *Packet) error { which = "second"; return nil })
	r.Dispatch(newSession("s1", nil), makePacket(t, 1, "msg", nil))
	assert.Equal(t, "second", which)
	assert.Equal(t, []string{"msg"}, r.Types())
}

func TestSession_CloseDropsSends(t *testing.T) {
	s := newSession("s1", nil)
	s.Close()
	s.Close()
	assert.True(t, s.IsClosed())
	s.Send(&Packet{Type: "pong"})
	assert.Empty(t, s.send)
}

func TestSession_FullQueueDrops(t *testing.T) {
	s := newSession("s1", nil)
	for i := 0; i < sendChanBuf+5; i++ {
		s.Send(&Packet{Type: "pong"})
	}
	assert.Len(t, s.send, sendChanBuf)
}
