package world

// Snapshot is a detached copy of the world for readers outside the lock.
type Snapshot struct {
	Player      Player         `json:"player"`
	Build       BuildMode      `json:"build"`
	MenuOpen    bool           `json:"menu_open"`
	Environment Environment    `json:"environment"`
	Economy     Economy        `json:"economy"`
	PlayerRigs  int            `json:"player_rigs"`
	TotalRigs   int            `json:"total_rigs"`
	Rate        float64        `json:"rate"`
	Nodes       []ResourceNode `json:"nodes"`
	Structures  []Structure    `json:"structures"`
	Agents      []Agent        `json:"agents"`
	Log         []string       `json:"log"`
}

// Snapshot copies the current state. Depleted nodes are left out.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		Player:      w.Player,
		Build:       w.Build,
		MenuOpen:    w.MenuOpen,
		Environment: w.Env,
		Economy:     w.Econ,
		Rate:        w.DisplayedRate(),
		Log:         w.LogLines(),
	}
	snap.Player.Inventory = w.Player.Inventory.Clone()
	snap.PlayerRigs, snap.TotalRigs = w.RigCounts()
	for _, id := range w.NodeIDs() {
		if n := w.nodes[id]; !n.Depleted {
			snap.Nodes = append(snap.Nodes, *n)
		}
	}
	for _, id := range w.StructureIDs() {
		snap.Structures = append(snap.Structures, *w.structures[id])
	}
	for _, id := range w.AgentIDs() {
		a := *w.agents[id]
		a.Inventory = a.Inventory.Clone()
		snap.Agents = append(snap.Agents, a)
	}
	return snap
}

// Snapshot copies the current state under the lock.
func (s *Store) Snapshot() Snapshot {
	var snap Snapshot
	s.View(func(w *World) { snap = w.Snapshot() })
	return snap
}
