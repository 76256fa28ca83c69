package world

import "github.com/kasuganosora/rigworld/server/game/catalog"

// Inventory maps item kinds to non-negative counts.
type Inventory map[catalog.Item]int

// Count returns how many of item are held.
func (inv Inventory) Count(item catalog.Item) int { return inv[item] }

// Has reports whether at least n of item are held.
func (inv Inventory) Has(item catalog.Item, n int) bool { return inv[item] >= n }

// Add credits n of item. Non-positive n is ignored.
func (inv Inventory) Add(item catalog.Item, n int) {
	if n <= 0 || !item.Valid() {
		return
	}
	inv[item] += n
}

// Remove debits n of item, refusing to go below zero.
func (inv Inventory) Remove(item catalog.Item, n int) bool {
	if n <= 0 || inv[item] < n {
		return false
	}
	inv[item] -= n
	if inv[item] == 0 {
		delete(inv, item)
	}
	return true
}

// Missing returns the first input of r that is not covered.
func (inv Inventory) Missing(r catalog.Recipe) (catalog.Ingredient, bool) {
	for _, in := range r.Inputs {
		if inv[in.Item] < in.Count {
			return in, true
		}
	}
	return catalog.Ingredient{}, false
}

// Craft applies r if every input is available. It checks all inputs before
// touching any count, so a rejected craft leaves the inventory unchanged.
func (inv Inventory) Craft(r catalog.Recipe) bool {
	if _, short := inv.Missing(r); short {
		return false
	}
	for _, in := range r.Inputs {
		inv.Remove(in.Item, in.Count)
	}
	inv.Add(r.Output, r.Count)
	return true
}

// Clone returns an independent copy.
func (inv Inventory) Clone() Inventory {
	out := make(Inventory, len(inv))
	for k, v := range inv {
		out[k] = v
	}
	return out
}
