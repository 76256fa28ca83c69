package world

import (
	"errors"

	"github.com/kasuganosora/rigworld/server/game/catalog"
)

var (
	ErrClosed   = errors.New("world: store closed")
	ErrPaused   = errors.New("world: input frozen during ad break")
	ErrRejected = errors.New("world: action rejected")
)

// act runs a player entry point. Rejections carry no detail beyond the
// world log entry the action wrote.
func (s *Store) act(fn func(w *World) bool) error {
	var ok, paused bool
	if !s.Update(func(w *World) {
		if w.Paused() {
			paused = true
			return
		}
		ok = fn(w)
	}) {
		return ErrClosed
	}
	switch {
	case paused:
		return ErrPaused
	case !ok:
		return ErrRejected
	}
	return nil
}

func (s *Store) HitNode(id string) error {
	return s.act(func(w *World) bool {
		if !w.nodes[id].Harvestable() {
			return false
		}
		w.HitNode(id, false)
		return true
	})
}

func (s *Store) HitStructure(id string) error {
	return s.act(func(w *World) bool { return w.HitStructure(id) })
}

// HitAgent strikes a bot. dead reports whether the hit killed it.
func (s *Store) HitAgent(id string) (dead bool, err error) {
	err = s.act(func(w *World) bool {
		if w.agents[id] == nil {
			return false
		}
		dead = w.HitAgent(id)
		return true
	})
	return dead, err
}

func (s *Store) Craft(output catalog.Item) error {
	return s.act(func(w *World) bool { return w.Craft(output) })
}

func (s *Store) EnterBuild(item catalog.Item) error {
	return s.act(func(w *World) bool { return w.EnterBuild(item) })
}

// ConfirmBuild places the active item at the ghost position for (x, z).
func (s *Store) ConfirmBuild(x, z float64) (Structure, error) {
	var placed Structure
	err := s.act(func(w *World) bool {
		st, ok := w.ConfirmBuild(GhostPosition(x, z))
		if ok {
			placed = *st
		}
		return ok
	})
	return placed, err
}

func (s *Store) RotateBuild() error {
	return s.act(func(w *World) bool { w.RotateBuild(); return true })
}

func (s *Store) CancelBuild() error {
	return s.act(func(w *World) bool { w.CancelBuild(); return true })
}

func (s *Store) ToggleMenu() error {
	return s.act(func(w *World) bool { w.ToggleMenu(); return true })
}

func (s *Store) DropItem(item catalog.Item, count int) error {
	return s.act(func(w *World) bool { return w.DropItem(item, count) })
}

func (s *Store) MovePlayer(dx, dz float64) error {
	return s.act(func(w *World) bool { return w.MovePlayer(dx, dz) })
}

func (s *Store) ClaimStructure(id string) error {
	return s.act(func(w *World) bool { return w.ClaimStructure(id) })
}

func (s *Store) PickupStructure(id string) error {
	return s.act(func(w *World) bool { return w.PickupStructure(id) })
}

// CashOut is allowed during an ad break. It returns the amount paid out.
func (s *Store) CashOut() (float64, error) {
	var amount float64
	if !s.Update(func(w *World) { amount = w.CashOut() }) {
		return 0, ErrClosed
	}
	if amount <= 0 {
		return 0, ErrRejected
	}
	return amount, nil
}
