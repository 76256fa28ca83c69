package world

import (
	"testing"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/terrain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBlocked_EmptyWorld(t *testing.T) {
	_, s, _ := newTestWorld(t)
	assert.False(t, s.CheckCollision(0, 0))
	assert.False(t, s.CheckCollision(97.9, -97.9))
	assert.True(t, s.CheckCollision(98.1, 0))
	assert.True(t, s.CheckCollision(0, -120))
}

func TestIsBlocked_Nodes(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.AddNode(catalog.NodeStone, Vec3{X: 10, Z: 10})
	w.AddNode(catalog.NodeTree, Vec3{X: 20, Z: 20})

	assert.True(t, w.IsBlocked(11.4, 10, ""))
	assert.False(t, w.IsBlocked(11.6, 10, ""))
	assert.True(t, w.IsBlocked(20.9, 20, ""))
	assert.False(t, w.IsBlocked(21.1, 20, ""))
}

func TestIsBlocked_IgnoresLooseAndDepletedNodes(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.SpawnLoot(Vec3{X: 10, Z: 10}, catalog.Wood, 1)
	assert.False(t, w.IsBlocked(10, 10, ""))

	n := w.AddNode(catalog.NodeMetal, Vec3{X: 30, Z: 30})
	assert.True(t, w.IsBlocked(30, 30, ""))
	w.deplete(n)
	assert.False(t, w.IsBlocked(30, 30, ""))
}

func TestIsBlocked_StructureRadii(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.PlaceStructure(catalog.Foundation, Vec3{X: 30, Z: 30}, 0, "")
	w.PlaceStructure(catalog.MiningRig, Vec3{X: -30, Z: 30}, 0, "agent-1")

	assert.True(t, w.IsBlocked(32.4, 30, ""))
	assert.False(t, w.IsBlocked(32.6, 30, ""))
	assert.True(t, w.IsBlocked(-29.1, 30, ""))
	assert.False(t, w.IsBlocked(-28.9, 30, ""))
}

func TestIsBlocked_AgentsAndPlayer(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.AddAgent(&Agent{ID: "agent-a", Pos: Vec3{X: 40, Z: 40}})

	assert.True(t, w.IsBlocked(40.5, 40, ""))
	assert.False(t, w.IsBlocked(40.5, 40, "agent-a"))
	assert.True(t, w.IsBlocked(40.5, 40, "agent-b"))

	// The player only blocks agents.
	assert.False(t, w.IsBlocked(0.5, 0, ""))
	assert.True(t, w.IsBlocked(0.5, 0, "agent-a"))
}

func TestMovePlayer_SlidesAlongObstacle(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.PlaceStructure(catalog.Wall, Vec3{X: 3, Z: 0}, 0, "")

	assert.True(t, w.MovePlayer(0.5, 0))
	assert.Equal(t, 0.5, w.Player.Pos.X)
	assert.Equal(t, terrain.Height(0.5, 0), w.Player.Pos.Y)

	// Diagonal into the wall keeps the Z component.
	assert.True(t, w.MovePlayer(1.5, 1))
	assert.Equal(t, 0.5, w.Player.Pos.X)
	assert.Equal(t, 1.0, w.Player.Pos.Z)

	w.Player.Pos = Vec3{X: 1, Z: 0}
	assert.False(t, w.MovePlayer(0.5, 0))
	assert.Equal(t, 1.0, w.Player.Pos.X)
}

func TestSlide_LeavesOverlappingObstacleButNeverEnters(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.PlaceStructure(catalog.MiningRig, Vec3{X: 40, Z: 40}, 0, "agent-a")
	w.AddAgent(&Agent{ID: "agent-a", Pos: Vec3{X: 40, Z: 40}})

	// Standing on the rig centre: any step is outward.
	pos, moved := w.Slide(Vec3{X: 40, Z: 40}, 0.4, 0, "agent-a")
	require.True(t, moved)
	assert.InDelta(t, 40.4, pos.X, 1e-9)

	// Inside the footprint, a step back toward the centre stays blocked.
	_, moved = w.Slide(Vec3{X: 40.4, Z: 40}, -0.3, 0, "agent-a")
	assert.False(t, moved)

	// From outside, entering is still refused.
	_, moved = w.Slide(Vec3{X: 41.2, Z: 40}, -0.4, 0, "agent-a")
	assert.False(t, moved)
	assert.True(t, w.IsBlocked(40.5, 40, "agent-a"))
}
