package world

import "github.com/kasuganosora/rigworld/server/game/catalog"

// Craft runs the recipe producing output against the player's inventory.
func (w *World) Craft(output catalog.Item) bool {
	r, ok := w.book.For(output)
	if !ok {
		w.Logf("No recipe for %s", output)
		return false
	}
	if in, short := w.Player.Inventory.Missing(r); short {
		w.Logf("Need %d %s (have %d)", in.Count, in.Item, w.Player.Inventory.Count(in.Item))
		return false
	}
	w.Player.Inventory.Craft(r)
	w.Logf("Crafted %d %s", r.Count, r.Output)
	return true
}

// AutoCraft walks the auto chain once in order, applying each recipe that
// inv can currently afford. It returns the outputs produced.
func (w *World) AutoCraft(inv Inventory) []catalog.Item {
	var made []catalog.Item
	for _, r := range w.book.AutoChain() {
		if inv.Craft(r) {
			made = append(made, r.Output)
		}
	}
	return made
}
