// Package ai drives the autonomous bots. Each bot runs a three-state
// machine (IDLE, MOVING, MINING) advanced once per agent tick.
package ai

import (
	"math"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/world"
	"go.uber.org/zap"
)

// Need maps a low stock of one item to the node kind that fixes it.
type Need struct {
	Item  catalog.Item
	Below int
	Kind  catalog.NodeKind
}

// DefaultNeeds is checked top to bottom; the first short item wins.
var DefaultNeeds = []Need{
	{Item: catalog.Coal, Below: 5, Kind: catalog.NodeCoal},
	{Item: catalog.Resin, Below: 5, Kind: catalog.NodeTree},
	{Item: catalog.Stone, Below: 5, Kind: catalog.NodeStone},
	{Item: catalog.MetalOre, Below: 5, Kind: catalog.NodeMetal},
	{Item: catalog.CopperOre, Below: 2, Kind: catalog.NodeCopper},
	{Item: catalog.Scrap, Below: 2, Kind: catalog.NodeJunk},
}

// Brain holds the tuning shared by every bot.
type Brain struct {
	Needs          []Need
	Speed          float64 // units per tick
	ArriveDist     float64
	NeedRadius     float64
	FallbackRadius float64
	BuildChance    float64
	MineChance     float64

	logger *zap.Logger
}

func NewBrain(logger *zap.Logger) *Brain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Brain{
		Needs:          DefaultNeeds,
		Speed:          0.4,
		ArriveDist:     2.0,
		NeedRadius:     50,
		FallbackRadius: 30,
		BuildChance:    0.2,
		MineChance:     0.2,
		logger:         logger,
	}
}

// Tick advances every bot once. Bots are visited in id order so a seeded
// world replays identically. Nothing moves during an ad break.
func (b *Brain) Tick(w *world.World) {
	if w.Paused() {
		return
	}
	for _, id := range w.AgentIDs() {
		if a := w.Agent(id); a != nil {
			b.step(w, a)
		}
	}
}

// NeededKind returns the node kind for the first unmet need.
func (b *Brain) NeededKind(inv world.Inventory) (catalog.NodeKind, bool) {
	for _, n := range b.Needs {
		if inv.Count(n.Item) < n.Below {
			return n.Kind, true
		}
	}
	return 0, false
}

func (b *Brain) step(w *world.World, a *world.Agent) {
	w.AutoCraft(a.Inventory)
	b.tryBuild(w, a)

	if a.Action == world.ActionIdle || (a.Action == world.ActionMining && a.TargetID == "") {
		b.pickTarget(w, a)
	}

	switch a.Action {
	case world.ActionMoving:
		b.move(w, a)
	case world.ActionMining:
		b.mine(w, a)
	}
}

func (b *Brain) tryBuild(w *world.World, a *world.Agent) {
	if !a.Inventory.Has(catalog.MiningRig, 1) {
		return
	}
	a.Action = world.ActionMoving
	if w.Rand().Float64() >= b.BuildChance {
		return
	}
	a.Inventory.Remove(catalog.MiningRig, 1)
	w.PlaceStructure(catalog.MiningRig, a.Pos, a.Rotation, a.ID)
	w.Logf("%s deployed a mining rig", a.Name)
	b.logger.Debug("agent built rig", zap.String("agent", a.ID))
}

func (b *Brain) pickTarget(w *world.World, a *world.Agent) {
	var target *world.ResourceNode
	if kind, ok := b.NeededKind(a.Inventory); ok {
		target = w.NearestNode(a.Pos, b.NeedRadius, func(n *world.ResourceNode) bool { return n.Kind == kind })
	}
	if target == nil {
		target = w.NearestNode(a.Pos, b.FallbackRadius, nil)
	}
	a.Action = world.ActionMoving
	if target == nil {
		a.TargetID = ""
		a.Rotation = w.Rand().Float64() * 2 * math.Pi
		return
	}
	a.TargetID = target.ID
}

func (b *Brain) move(w *world.World, a *world.Agent) {
	if a.TargetID != "" {
		n := w.Node(a.TargetID)
		if !n.Harvestable() {
			a.TargetID = ""
			a.Action = world.ActionIdle
			return
		}
		dx, dz := n.Pos.X-a.Pos.X, n.Pos.Z-a.Pos.Z
		a.Rotation = math.Atan2(dx, dz)
		if math.Hypot(dx, dz) < b.ArriveDist {
			a.Action = world.ActionMining
			return
		}
	}

	sx, sz := math.Sin(a.Rotation)*b.Speed, math.Cos(a.Rotation)*b.Speed
	pos, moved := w.Slide(a.Pos, sx, sz, a.ID)
	if moved {
		a.Pos = pos
		return
	}
	a.Rotation += math.Pi/2 + w.Rand().Float64()*math.Pi
	a.Action = world.ActionIdle
	a.TargetID = ""
}

func (b *Brain) mine(w *world.World, a *world.Agent) {
	n := w.Node(a.TargetID)
	if !n.Harvestable() {
		a.TargetID = ""
		a.Action = world.ActionIdle
		return
	}
	if w.Rand().Float64() >= b.MineChance {
		return
	}
	yield := world.NodeYield(n)
	w.HitNode(n.ID, true)
	for item, count := range yield {
		a.Inventory.Add(item, count)
	}
}
