package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/kasuganosora/rigworld/server/game/engine"
	"github.com/kasuganosora/rigworld/server/game/world"
)

// actionReply is the payload of every "<action>_result" packet.
type actionReply struct {
	OK     bool           `json:"ok"`
	Error  string         `json:"error,omitempty"`
	Result *engine.Result `json:"result,omitempty"`
	Log    []string       `json:"log"`
}

var actionTypes = []string{
	engine.ActHitNode,
	engine.ActHitStructure,
	engine.ActHitAgent,
	engine.ActCraft,
	engine.ActBuildEnter,
	engine.ActBuildConfirm,
	engine.ActBuildRotate,
	engine.ActBuildCancel,
	engine.ActMenuToggle,
	engine.ActDrop,
	engine.ActMove,
	engine.ActClaim,
	engine.ActPickup,
	engine.ActCashOut,
}

// RegisterWorldHandlers wires the player actions plus "snapshot" and
// "ping" into r.
func RegisterWorldHandlers(r *Router, eng *engine.Engine) {
	for _, typ := range actionTypes {
		r.On(typ, actionHandler(eng, typ))
	}
	r.On("snapshot", func(_ context.Context, s *Session, pkt *Packet) error {
		s.Reply(pkt.Seq, "snapshot", eng.Store().Snapshot())
		return nil
	})
	r.On("ping", func(_ context.Context, s *Session, pkt *Packet) error {
		s.Send(&Packet{Seq: pkt.Seq, Type: "pong"})
		return nil
	})
}

func actionHandler(eng *engine.Engine, typ string) HandlerFunc {
	return func(ctx context.Context, s *Session, pkt *Packet) error {
		var a engine.Action
		if len(pkt.Payload) > 0 {
			if err := json.Unmarshal(pkt.Payload, &a); err != nil {
				return err
			}
		}
		a.Type = typ

		res, err := eng.Apply(ctx, TraceIDFromCtx(ctx), a)
		reply := actionReply{OK: err == nil, Log: eng.Store().Snapshot().Log}
		switch {
		case err == nil:
			reply.Result = &res
		case errors.Is(err, world.ErrPaused):
			reply.Error = "ad break in progress"
		case errors.Is(err, world.ErrClosed):
			reply.Error = "world stopped"
		default:
			reply.Error = "rejected"
		}
		s.Reply(pkt.Seq, typ+"_result", reply)
		return nil
	}
}
