package catalog

import "fmt"

// NodeKind is the spatial type of a resource node.
type NodeKind uint8

const (
	NodeTree NodeKind = iota + 1
	NodeStone
	NodeMetal
	NodeCopper
	NodeCoal
	NodeJunk
	NodeLoose // a dropped item lying in the world
	nodeKindEnd
)

type nodeInfo struct {
	name       string
	drop       Item
	health     int
	radius     float64
	color      string
	weight     int // world-gen spawn weight
	underwater bool
}

var nodeTable = [nodeKindEnd]nodeInfo{
	NodeTree:   {name: "tree", drop: Wood, health: 5, radius: 0.5, color: "#2e7d32", weight: 40},
	NodeStone:  {name: "stone", drop: Stone, health: 6, radius: 1.0, color: "#9e9e9e", weight: 20},
	NodeMetal:  {name: "metal", drop: MetalOre, health: 8, radius: 1.0, color: "#78909c", weight: 10},
	NodeCopper: {name: "copper", drop: CopperOre, health: 8, radius: 1.0, color: "#d17f3e", weight: 8},
	NodeCoal:   {name: "coal", drop: Coal, health: 6, radius: 1.0, color: "#212121", weight: 12},
	NodeJunk:   {name: "junk", drop: Scrap, health: 3, radius: 1.0, color: "#8d6e63", weight: 10, underwater: true},
	NodeLoose:  {name: "loose", health: 1, radius: 0, color: "#ffeb3b"},
}

// HarvestableKinds lists the kinds generated at world start, in a stable order.
func HarvestableKinds() []NodeKind {
	return []NodeKind{NodeTree, NodeStone, NodeMetal, NodeCopper, NodeCoal, NodeJunk}
}

func (k NodeKind) valid() bool { return k > 0 && k < nodeKindEnd }

func (k NodeKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("NodeKind(%d)", uint8(k))
	}
	return nodeTable[k].name
}

// Drop is the item granted when a node of this kind is depleted.
// Loose nodes carry their own item instead.
func (k NodeKind) Drop() Item {
	if !k.valid() {
		return ItemNone
	}
	return nodeTable[k].drop
}

// MaxHealth is the number of hits a fresh node takes.
func (k NodeKind) MaxHealth() int {
	if !k.valid() {
		return 1
	}
	return nodeTable[k].health
}

// Radius is the collision radius; loose items never block.
func (k NodeKind) Radius() float64 {
	if !k.valid() {
		return 0
	}
	return nodeTable[k].radius
}

func (k NodeKind) Color() string {
	if !k.valid() {
		return "#ffffff"
	}
	return nodeTable[k].color
}

// SpawnWeight is the relative frequency at world generation.
func (k NodeKind) SpawnWeight() int {
	if !k.valid() {
		return 0
	}
	return nodeTable[k].weight
}

// AllowUnderwater reports whether nodes of this kind may spawn below water level.
func (k NodeKind) AllowUnderwater() bool { return k.valid() && nodeTable[k].underwater }

// Blocks reports whether the node takes part in collision.
func (k NodeKind) Blocks() bool { return k.valid() && k != NodeLoose }

// MarshalText renders the kind as its lower-case name in JSON.
func (k NodeKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *NodeKind) UnmarshalText(b []byte) error {
	for i := NodeKind(1); i < nodeKindEnd; i++ {
		if nodeTable[i].name == string(b) {
			*k = i
			return nil
		}
	}
	return fmt.Errorf("catalog: unknown node kind %q", b)
}
