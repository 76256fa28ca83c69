package world

import (
	"math"
	"time"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/terrain"
	"go.uber.org/zap"
)

// HitNode strikes a node once. Only player hits are rewarded here; agents
// credit their own inventory from the FSM. It reports whether the node was
// depleted by this hit.
func (w *World) HitNode(id string, byAgent bool) bool {
	n := w.nodes[id]
	if !n.Harvestable() {
		return false
	}
	n.Health--
	if n.Health > 0 {
		if !byAgent {
			w.Logf("Mining %s... %d%%", n.Kind, 100*(n.MaxHealth-n.Health)/n.MaxHealth)
		}
		return false
	}
	if !byAgent {
		w.Player.Inventory.Add(n.Drop, n.DropCount)
		if n.Kind == catalog.NodeTree {
			w.Player.Inventory.Add(catalog.Resin, 1)
		}
		w.Logf("Collected %d %s", n.DropCount, n.Drop)
	}
	w.deplete(n)
	return true
}

// NodeYield is what one successful agent mining roll credits.
func NodeYield(n *ResourceNode) Inventory {
	out := Inventory{}
	out.Add(n.Drop, n.DropCount)
	if n.Kind == catalog.NodeTree {
		out.Add(catalog.Resin, 1)
	}
	return out
}

func (w *World) deplete(n *ResourceNode) {
	n.Health = 0
	n.Depleted = true
	n.Pos = offMap
	if n.Kind == catalog.NodeLoose {
		delete(w.nodes, n.ID)
		return
	}
	id := n.ID
	w.after("respawn:"+id, w.respawnDelay(), func(w *World) { w.respawnNode(id) })
}

func (w *World) respawnDelay() time.Duration {
	lo, hi := w.cfg.RespawnMin, w.cfg.RespawnMax
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(w.rng.Int63n(int64(hi-lo)))
}

func (w *World) respawnNode(id string) {
	n := w.nodes[id]
	if n == nil || !n.Depleted {
		return
	}
	n.Pos = w.randomSpawn(n.Kind.AllowUnderwater())
	n.Health = n.MaxHealth
	n.Depleted = false
	w.logger.Debug("node respawned", zap.String("id", id), zap.Float64("x", n.Pos.X), zap.Float64("z", n.Pos.Z))
}

// SpawnLoot scatters count of item around pos as loose nodes. The count is
// spread over at most ten nodes so nothing is lost.
func (w *World) SpawnLoot(pos Vec3, item catalog.Item, count int) {
	if count <= 0 || !item.Valid() {
		return
	}
	piles := count
	if piles > maxLootNodes {
		piles = maxLootNodes
	}
	for i := 0; i < piles; i++ {
		qty := count / piles
		if i < count%piles {
			qty++
		}
		angle := w.rng.Float64() * 2 * math.Pi
		r := w.rng.Float64() * lootScatter
		x, z := pos.X+math.Cos(angle)*r, pos.Z+math.Sin(angle)*r
		n := w.AddNode(catalog.NodeLoose, Vec3{X: x, Y: terrain.Height(x, z) + 0.5, Z: z})
		n.Drop = item
		n.DropCount = qty
	}
}
