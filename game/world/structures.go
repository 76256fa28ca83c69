package world

// HitStructure destroys a structure and refunds the player: the full recipe
// inputs when one exists, otherwise one unit of the item itself.
func (w *World) HitStructure(id string) bool {
	s := w.structures[id]
	if s == nil {
		return false
	}
	delete(w.structures, id)
	if r, ok := w.book.For(s.Item); ok {
		for _, in := range r.Inputs {
			w.Player.Inventory.Add(in.Item, in.Count)
		}
	} else {
		w.Player.Inventory.Add(s.Item, 1)
	}
	w.Logf("Destroyed %s", s.Item)
	return true
}

// ClaimStructure clears a bot's ownership.
func (w *World) ClaimStructure(id string) bool {
	s := w.structures[id]
	if s == nil {
		return false
	}
	if s.OwnerID == "" {
		w.Logf("%s is already yours", s.Item)
		return false
	}
	s.OwnerID = ""
	w.Logf("Claimed %s", s.Item)
	return true
}

// PickupStructure returns an unowned structure to the inventory.
func (w *World) PickupStructure(id string) bool {
	s := w.structures[id]
	if s == nil {
		return false
	}
	if s.OwnerID != "" {
		w.Logf("Access denied: %s belongs to another player, claim it first", s.Item)
		return false
	}
	delete(w.structures, id)
	w.Player.Inventory.Add(s.Item, 1)
	w.Logf("Picked up %s", s.Item)
	return true
}
