package world

import (
	"math/rand"
	"testing"

	"github.com/kasuganosora/rigworld/server/testutil"
	"go.uber.org/zap"
)

// newTestWorld returns an empty world (no nodes, no agents) behind a store
// driven by manual timers.
func newTestWorld(t *testing.T) (*World, *Store, *testutil.ManualTimers) {
	t.Helper()
	w := New(DefaultConfig(), rand.New(rand.NewSource(1)), zap.NewNop())
	timers := testutil.NewManualTimers()
	return w, NewStore(w, timers, 64, zap.NewNop()), timers
}
