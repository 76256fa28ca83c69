package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/world"
)

var ErrUnknownAction = errors.New("engine: unknown action")

// Player action names accepted by Apply.
const (
	ActHitNode      = "hit_node"
	ActHitStructure = "hit_structure"
	ActHitAgent     = "hit_agent"
	ActCraft        = "craft"
	ActBuildEnter   = "build_enter"
	ActBuildConfirm = "build_confirm"
	ActBuildRotate  = "build_rotate"
	ActBuildCancel  = "build_cancel"
	ActMenuToggle   = "menu_toggle"
	ActDrop         = "drop"
	ActMove         = "move"
	ActClaim        = "claim"
	ActPickup       = "pickup"
	ActCashOut      = "cash_out"
)

// Action is one player input. Only the fields the action needs are read.
type Action struct {
	Type  string       `json:"type"`
	ID    string       `json:"id,omitempty"`
	Item  catalog.Item `json:"item,omitempty"`
	Count int          `json:"count,omitempty"`
	X     float64      `json:"x,omitempty"`
	Z     float64      `json:"z,omitempty"`
	DX    float64      `json:"dx,omitempty"`
	DZ    float64      `json:"dz,omitempty"`
}

// Result carries what an action produced besides its world log lines.
type Result struct {
	Dead      bool             `json:"dead,omitempty"`
	Structure *world.Structure `json:"structure,omitempty"`
	Amount    float64          `json:"amount,omitempty"`
}

// Apply routes a to its store entry point. Domain rejections come back as
// world.ErrRejected; the reason is in the world log.
func (e *Engine) Apply(ctx context.Context, traceID string, a Action) (Result, error) {
	var (
		res Result
		err error
	)
	switch a.Type {
	case ActHitNode:
		err = e.store.HitNode(a.ID)
	case ActHitStructure:
		err = e.store.HitStructure(a.ID)
	case ActHitAgent:
		res.Dead, err = e.store.HitAgent(a.ID)
	case ActCraft:
		err = e.store.Craft(a.Item)
	case ActBuildEnter:
		err = e.store.EnterBuild(a.Item)
	case ActBuildConfirm:
		var st world.Structure
		if st, err = e.store.ConfirmBuild(a.X, a.Z); err == nil {
			res.Structure = &st
		}
	case ActBuildRotate:
		err = e.store.RotateBuild()
	case ActBuildCancel:
		err = e.store.CancelBuild()
	case ActMenuToggle:
		err = e.store.ToggleMenu()
	case ActDrop:
		count := a.Count
		if count == 0 {
			count = 1
		}
		err = e.store.DropItem(a.Item, count)
	case ActMove:
		err = e.store.MovePlayer(a.DX, a.DZ)
	case ActClaim:
		err = e.store.ClaimStructure(a.ID)
	case ActPickup:
		err = e.store.PickupStructure(a.ID)
	case ActCashOut:
		res.Amount, err = e.CashOut(ctx, traceID)
		if err == nil && res.Amount == 0 {
			err = world.ErrRejected
		}
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	return res, err
}
