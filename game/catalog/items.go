package catalog

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Item is a fungible item kind. Inventories track items only as counts.
type Item uint8

const (
	ItemNone Item = iota

	// raw
	Wood
	Resin
	Stone
	MetalOre
	CopperOre
	Coal
	Scrap

	// processed
	Silicon
	MetalIngot
	CopperWire
	Plastic

	// components
	Circuit
	Frame

	// placeable structures
	Foundation
	Wall
	MiningRig
	Crate

	itemCount
)

// Category groups items by where they sit in the crafting graph.
type Category uint8

const (
	CategoryRaw Category = iota + 1
	CategoryProcessed
	CategoryComponent
	CategoryPlaceable
)

type itemInfo struct {
	name     string
	category Category
	// collision radius when placed as a structure; zero for non-placeables
	radius float64
}

var itemTable = [itemCount]itemInfo{
	ItemNone:   {name: "NONE"},
	Wood:       {name: "WOOD", category: CategoryRaw},
	Resin:      {name: "RESIN", category: CategoryRaw},
	Stone:      {name: "STONE", category: CategoryRaw},
	MetalOre:   {name: "METAL_ORE", category: CategoryRaw},
	CopperOre:  {name: "COPPER_ORE", category: CategoryRaw},
	Coal:       {name: "COAL", category: CategoryRaw},
	Scrap:      {name: "SCRAP", category: CategoryRaw},
	Silicon:    {name: "SILICON", category: CategoryProcessed},
	MetalIngot: {name: "METAL_INGOT", category: CategoryProcessed},
	CopperWire: {name: "COPPER_WIRE", category: CategoryProcessed},
	Plastic:    {name: "PLASTIC", category: CategoryProcessed},
	Circuit:    {name: "CIRCUIT", category: CategoryComponent},
	Frame:      {name: "FRAME", category: CategoryComponent},
	Foundation: {name: "FOUNDATION", category: CategoryPlaceable, radius: 2.0},
	Wall:       {name: "WALL", category: CategoryPlaceable, radius: 1.5},
	MiningRig:  {name: "MINING_RIG", category: CategoryPlaceable, radius: 0.5},
	Crate:      {name: "CRATE", category: CategoryPlaceable, radius: 1.0},
}

var itemByName = func() map[string]Item {
	m := make(map[string]Item, itemCount)
	for i := Item(1); i < itemCount; i++ {
		m[itemTable[i].name] = i
	}
	return m
}()

// DefaultStructureRadius applies to any placeable without its own radius.
const DefaultStructureRadius = 1.0

// AllItems lists every real item kind in declaration order.
func AllItems() []Item {
	out := make([]Item, 0, itemCount-1)
	for i := Item(1); i < itemCount; i++ {
		out = append(out, i)
	}
	return out
}

// Valid reports whether i names a real item kind.
func (i Item) Valid() bool { return i > ItemNone && i < itemCount }

func (i Item) String() string {
	if i >= itemCount {
		return fmt.Sprintf("Item(%d)", uint8(i))
	}
	return itemTable[i].name
}

// Category returns the crafting tier of the item.
func (i Item) Category() Category {
	if !i.Valid() {
		return 0
	}
	return itemTable[i].category
}

// Placeable reports whether the item can be built as a structure.
func (i Item) Placeable() bool { return i.Category() == CategoryPlaceable }

// StructureRadius is the collision radius of the item when placed.
func (i Item) StructureRadius() float64 {
	if i.Valid() && itemTable[i].radius > 0 {
		return itemTable[i].radius
	}
	return DefaultStructureRadius
}

// ParseItem resolves an item by its upper-case name.
func ParseItem(name string) (Item, error) {
	if it, ok := itemByName[name]; ok {
		return it, nil
	}
	return ItemNone, fmt.Errorf("catalog: unknown item %q", name)
}

// MarshalText lets items serve as JSON map keys and values.
func (i Item) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("catalog: cannot marshal invalid item %d", uint8(i))
	}
	return []byte(i.String()), nil
}

func (i *Item) UnmarshalText(b []byte) error {
	it, err := ParseItem(string(b))
	if err != nil {
		return err
	}
	*i = it
	return nil
}

func (i *Item) UnmarshalYAML(value *yaml.Node) error {
	return i.UnmarshalText([]byte(value.Value))
}
