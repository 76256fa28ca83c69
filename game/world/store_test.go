package world

import (
	"fmt"
	"testing"
	"time"

	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_KeepsFiveNewestFirst(t *testing.T) {
	w, _, _ := newTestWorld(t)
	for i := 1; i <= 7; i++ {
		w.Logf("msg %d", i)
	}
	assert.Equal(t, []string{"msg 7", "msg 6", "msg 5", "msg 4", "msg 3"}, w.LogLines())
}

func TestStore_EventsDelivered(t *testing.T) {
	_, s, _ := newTestWorld(t)
	s.Update(func(w *World) { w.Logf("hello") })

	select {
	case ev := <-s.Events():
		assert.Equal(t, EventLog, ev.Kind)
		assert.Equal(t, "hello", ev.Message)
	default:
		t.Fatal("expected an event")
	}
}

func TestStore_ClosedRejectsUpdatesAndTimers(t *testing.T) {
	w, s, timers := newTestWorld(t)
	var id string
	s.Update(func(w *World) { id = w.AddNode(catalog.NodeJunk, Vec3{X: 10, Z: 10}).ID })
	for i := 0; i < 3; i++ {
		require.NoError(t, s.HitNode(id))
	}
	require.True(t, w.Node(id).Depleted)

	s.Close()
	assert.True(t, s.Closed())
	assert.False(t, s.Update(func(w *World) { w.Logf("late") }))
	assert.ErrorIs(t, s.Craft(catalog.Silicon), ErrClosed)

	timers.Advance(time.Minute)
	assert.True(t, w.Node(id).Depleted, "respawn after close is a no-op")
}

func TestStore_PanicUnlocks(t *testing.T) {
	_, s, timers := newTestWorld(t)
	assert.Panics(t, func() {
		s.Update(func(w *World) {
			w.after("boom", time.Second, func(*World) {})
			panic("bad mutation")
		})
	})
	assert.Empty(t, timers.Pending(), "queued work from the panicking update is dropped")
	assert.True(t, s.Update(func(w *World) { w.Logf("still alive") }))
}

func TestStore_AdBreakFreezesInputButNotCashOut(t *testing.T) {
	w, s, _ := newTestWorld(t)
	s.Update(func(w *World) {
		w.Player.Inventory.Add(catalog.Stone, 2)
		w.Player.Inventory.Add(catalog.Coal, 1)
		w.Econ.Wallet = 50
		w.SetEnvironment(EnvAdBreak)
	})

	assert.ErrorIs(t, s.Craft(catalog.Silicon), ErrPaused)
	assert.ErrorIs(t, s.MovePlayer(1, 0), ErrPaused)
	assert.Equal(t, 2, w.Player.Inventory.Count(catalog.Stone))

	amount, err := s.CashOut()
	require.NoError(t, err)
	assert.Equal(t, 50.0, amount)

	_, err = s.CashOut()
	assert.ErrorIs(t, err, ErrRejected)
}

func TestStore_SnapshotIsDetached(t *testing.T) {
	w, s, _ := newTestWorld(t)
	s.Update(func(w *World) {
		w.Player.Inventory.Add(catalog.Wood, 1)
		w.AddAgent(&Agent{ID: "agent-a", Pos: Vec3{X: 20}, Inventory: Inventory{catalog.Coal: 1}})
		w.PlaceStructure(catalog.MiningRig, Vec3{X: 5}, 0, "")
	})

	snap := s.Snapshot()
	snap.Player.Inventory.Add(catalog.Wood, 10)
	snap.Agents[0].Inventory.Add(catalog.Coal, 10)

	assert.Equal(t, 1, w.Player.Inventory.Count(catalog.Wood))
	assert.Equal(t, 1, w.Agent("agent-a").Inventory.Count(catalog.Coal))
	assert.Equal(t, 1, snap.PlayerRigs)
	assert.InDelta(t, 0.05, snap.Rate, 1e-9)
}

func TestHitAgent_DeathSpillsInventoryAndRespawns(t *testing.T) {
	w, s, timers := newTestWorld(t)
	s.Update(func(w *World) {
		w.AddAgent(&Agent{
			ID: "agent-a", Name: "Rusty", Pos: Vec3{X: 20, Z: 20},
			Inventory: Inventory{catalog.Stone: 3, catalog.Circuit: 1},
			Health:    100, MaxHealth: 100,
		})
	})

	for i := 0; i < 9; i++ {
		dead, err := s.HitAgent("agent-a")
		require.NoError(t, err)
		require.False(t, dead, fmt.Sprintf("hit %d", i+1))
	}
	dead, err := s.HitAgent("agent-a")
	require.NoError(t, err)
	assert.True(t, dead)
	assert.Nil(t, w.Agent("agent-a"))

	spilled := Inventory{}
	for _, id := range w.NodeIDs() {
		n := w.Node(id)
		spilled.Add(n.Drop, n.DropCount)
	}
	assert.Equal(t, Inventory{catalog.Stone: 3, catalog.Circuit: 1}, spilled)

	_, err = s.HitAgent("agent-a")
	assert.ErrorIs(t, err, ErrRejected)

	due, ok := timers.Due("agent-respawn:agent-a")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, due)
	timers.Advance(30 * time.Second)
	require.Len(t, w.AgentIDs(), 1)
	a := w.Agent(w.AgentIDs()[0])
	assert.Equal(t, 100, a.Health)
	assert.Empty(t, a.Inventory)
	assert.Equal(t, ActionIdle, a.Action)
}
