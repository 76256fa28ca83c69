package world

import (
	"math"
	"sort"

	"github.com/kasuganosora/rigworld/server/game/catalog"
)

const dropDistance = 2.0

// MovePlayer steps the player by (dx, dz) with wall sliding.
func (w *World) MovePlayer(dx, dz float64) bool {
	if dx == 0 && dz == 0 {
		return false
	}
	w.Player.Rotation = math.Atan2(dx, dz)
	pos, moved := w.Slide(w.Player.Pos, dx, dz, "")
	if moved {
		w.Player.Pos = pos
	}
	return moved
}

// DropItem removes count of item from the player and leaves it on the
// ground in front of them.
func (w *World) DropItem(item catalog.Item, count int) bool {
	if count <= 0 {
		return false
	}
	if !w.Player.Inventory.Remove(item, count) {
		w.Logf("Not enough %s to drop", item)
		return false
	}
	p := w.Player.Pos
	at := Vec3{
		X: p.X + math.Sin(w.Player.Rotation)*dropDistance,
		Z: p.Z + math.Cos(w.Player.Rotation)*dropDistance,
	}
	w.SpawnLoot(at, item, count)
	w.Logf("Dropped %d %s", count, item)
	return true
}

// HitAgent is the player striking a bot. It reports whether the bot died.
func (w *World) HitAgent(id string) bool {
	a := w.agents[id]
	if a == nil {
		return false
	}
	a.Health -= w.cfg.PlayerDamage
	if a.Health > 0 {
		w.Logf("Hit %s (%d/%d)", a.Name, a.Health, a.MaxHealth)
		return false
	}
	w.killAgent(a)
	return true
}

func (w *World) killAgent(a *Agent) {
	a.Health = 0
	items := make([]catalog.Item, 0, len(a.Inventory))
	for item := range a.Inventory {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i] < items[j] })
	for _, item := range items {
		w.SpawnLoot(a.Pos, item, a.Inventory[item])
	}
	delete(w.agents, a.ID)
	w.Logf("%s was eliminated", a.Name)
	w.emit(EventAgentDeath, a.ID, a.Name)
	w.after("agent-respawn:"+a.ID, w.cfg.AgentRespawn, func(w *World) {
		na := w.SpawnAgent()
		w.Logf("%s entered the world", na.Name)
	})
}
