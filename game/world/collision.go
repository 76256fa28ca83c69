package world

import (
	"math"

	"github.com/kasuganosora/rigworld/server/game/terrain"
)

// IsBlocked reports whether (x, z) is occupied. excludeAgent names the agent
// asking, if any: it is skipped in the agent check, and only agents are
// blocked by the player.
func (w *World) IsBlocked(x, z float64, excludeAgent string) bool {
	return w.blocked(Vec3{X: x, Z: z}, excludeAgent, nil)
}

// blocked checks p against every obstacle. When from is set, an obstacle
// that already overlaps from does not block a step that leaves it further
// away, so a mover caught inside something can walk out but never in.
func (w *World) blocked(p Vec3, excludeAgent string, from *Vec3) bool {
	if math.Abs(p.X) > w.cfg.Bound || math.Abs(p.Z) > w.cfg.Bound {
		return true
	}
	hit := func(c Vec3, r float64) bool {
		d := p.DistXZ(c)
		if d >= r {
			return false
		}
		if from != nil {
			if fd := from.DistXZ(c); fd < r && d > fd {
				return false
			}
		}
		return true
	}
	for _, n := range w.nodes {
		if n.Depleted || !n.Kind.Blocks() {
			continue
		}
		if hit(n.Pos, playerRadius+n.Kind.Radius()) {
			return true
		}
	}
	for _, s := range w.structures {
		if hit(s.Pos, playerRadius+s.Item.StructureRadius()) {
			return true
		}
	}
	for id, a := range w.agents {
		if id == excludeAgent {
			continue
		}
		if hit(a.Pos, agentRadius) {
			return true
		}
	}
	if excludeAgent != "" && hit(w.Player.Pos, agentRadius) {
		return true
	}
	return false
}

// Slide tries the full step, then X only, then Z only. It returns the
// accepted position and whether any move happened.
func (w *World) Slide(from Vec3, dx, dz float64, self string) (Vec3, bool) {
	candidates := [3][2]float64{{from.X + dx, from.Z + dz}, {from.X + dx, from.Z}, {from.X, from.Z + dz}}
	for i, c := range candidates {
		if (i == 1 && dx == 0) || (i == 2 && dz == 0) {
			continue
		}
		if !w.blocked(Vec3{X: c[0], Z: c[1]}, self, &from) {
			return Vec3{X: c[0], Y: terrain.Height(c[0], c[1]), Z: c[1]}, true
		}
	}
	return from, false
}

// CheckCollision is the locked form of IsBlocked for external callers.
func (s *Store) CheckCollision(x, z float64) bool {
	var blocked bool
	s.View(func(w *World) { blocked = w.IsBlocked(x, z, "") })
	return blocked
}
