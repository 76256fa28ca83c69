package world

import (
	"testing"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_RemoveRefusesUnderflow(t *testing.T) {
	inv := Inventory{catalog.Stone: 2}
	assert.False(t, inv.Remove(catalog.Stone, 3))
	assert.Equal(t, 2, inv.Count(catalog.Stone))
	assert.True(t, inv.Remove(catalog.Stone, 2))
	assert.Equal(t, 0, inv.Count(catalog.Stone))
	_, present := inv[catalog.Stone]
	assert.False(t, present)
	assert.False(t, inv.Remove(catalog.Stone, 1))
}

func TestInventory_AddIgnoresNonPositive(t *testing.T) {
	inv := Inventory{}
	inv.Add(catalog.Wood, 0)
	inv.Add(catalog.Wood, -3)
	inv.Add(catalog.ItemNone, 4)
	assert.Empty(t, inv)
}

func TestCraft_ShortInputsLeaveInventoryUnchanged(t *testing.T) {
	w, _, _ := newTestWorld(t)
	w.Player.Inventory = Inventory{catalog.Stone: 1, catalog.Coal: 1}
	before := w.Player.Inventory.Clone()

	assert.False(t, w.Craft(catalog.Silicon))
	assert.Equal(t, before, w.Player.Inventory)
	assert.Contains(t, w.LogLines()[0], "STONE")
}

func TestCraft_ConsumesExactlyDeclaredInputs(t *testing.T) {
	w, _, _ := newTestWorld(t)
	for _, r := range w.Recipes().All() {
		inv := Inventory{}
		for _, in := range r.Inputs {
			inv.Add(in.Item, in.Count+3)
		}
		w.Player.Inventory = inv
		before := inv.Clone()

		require.True(t, w.Craft(r.Output), r.Output.String())
		for _, in := range r.Inputs {
			assert.Equal(t, in.Count, before.Count(in.Item)-w.Player.Inventory.Count(in.Item), r.Output.String())
		}
		assert.Equal(t, r.Count, w.Player.Inventory.Count(r.Output)-before.Count(r.Output))
	}
}

func TestCraft_UnknownRecipe(t *testing.T) {
	w, _, _ := newTestWorld(t)
	assert.False(t, w.Craft(catalog.Crate))
	assert.False(t, w.Craft(catalog.Wood))
}

func TestAutoCraft_StoneAndCoalMakeSilicon(t *testing.T) {
	w, _, _ := newTestWorld(t)
	inv := Inventory{catalog.Stone: 2, catalog.Coal: 1}

	made := w.AutoCraft(inv)
	assert.Equal(t, []catalog.Item{catalog.Silicon}, made)
	assert.Equal(t, 1, inv.Count(catalog.Silicon))
	assert.Equal(t, 0, inv.Count(catalog.Stone))
	assert.Equal(t, 0, inv.Count(catalog.Coal))
}

func TestAutoCraft_FullChainToRig(t *testing.T) {
	w, _, _ := newTestWorld(t)
	inv := Inventory{
		catalog.Stone: 2, catalog.Coal: 2, catalog.MetalOre: 2, catalog.MetalIngot: 1,
		catalog.CopperOre: 1, catalog.Resin: 2, catalog.Scrap: 2,
	}
	w.AutoCraft(inv)
	assert.Equal(t, Inventory{catalog.MiningRig: 1}, inv)
}
