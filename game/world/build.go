package world

import (
	"math"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/terrain"
)

// EnterBuild starts placing item. The menu closes and rotation resets.
func (w *World) EnterBuild(item catalog.Item) bool {
	if !item.Placeable() {
		w.Logf("%s cannot be placed", item)
		return false
	}
	if !w.Player.Inventory.Has(item, 1) {
		w.Logf("No %s in inventory", item)
		return false
	}
	w.MenuOpen = false
	w.Build = BuildMode{Active: true, Item: item}
	return true
}

// GhostPosition snaps a ground point to the build grid and follows the
// terrain at the snapped point.
func GhostPosition(x, z float64) Vec3 {
	sx, sz := terrain.GridSnap(x, gridStep), terrain.GridSnap(z, gridStep)
	return Vec3{X: sx, Y: terrain.Height(sx, sz), Z: sz}
}

// ConfirmBuild places the held item at pos. Build mode ends when the last
// unit is used.
func (w *World) ConfirmBuild(pos Vec3) (*Structure, bool) {
	if !w.Build.Active {
		return nil, false
	}
	item := w.Build.Item
	if !w.Player.Inventory.Remove(item, 1) {
		w.Logf("No %s left to place", item)
		w.Build = BuildMode{}
		return nil, false
	}
	s := w.PlaceStructure(item, pos, w.Build.Rotation, "")
	w.Logf("Built %s", item)
	if !w.Player.Inventory.Has(item, 1) {
		w.Build = BuildMode{}
	}
	return s, true
}

// RotateBuild turns the ghost a quarter turn. The angle accumulates.
func (w *World) RotateBuild() {
	if w.Build.Active {
		w.Build.Rotation += math.Pi / 2
	}
}

// CancelBuild leaves build mode without side effects.
func (w *World) CancelBuild() { w.Build = BuildMode{} }

// ToggleMenu opens or closes the craft menu. Either way build mode ends.
func (w *World) ToggleMenu() bool {
	w.MenuOpen = !w.MenuOpen
	w.Build = BuildMode{}
	return w.MenuOpen
}
