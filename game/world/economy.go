package world

import (
	"math"

	"github.com/kasuganosora/rigworld/server/game/catalog"
)

const (
	minMarketModifier = 0.5
	maxMarketModifier = 2.0
)

// RigCounts returns the player-owned and total mining rig counts.
func (w *World) RigCounts() (player, total int) {
	for _, s := range w.structures {
		if s.Item != catalog.MiningRig {
			continue
		}
		total++
		if s.OwnerID == "" {
			player++
		}
	}
	return player, total
}

func (w *World) availableFactor() float64 {
	if w.Econ.GlobalPot <= 0 {
		return w.cfg.DepletedFactor
	}
	return 1
}

// EconomicTick draws from the pot for every rig and pays the player's share
// into the wallet. It returns the player's income for this tick.
func (w *World) EconomicTick() float64 {
	if w.Env != EnvNormal {
		return 0
	}
	playerRigs, totalRigs := w.RigCounts()
	if totalRigs == 0 {
		return 0
	}
	rate := w.cfg.BaseRate * w.Econ.MarketModifier * w.availableFactor()
	w.Econ.GlobalPot = clamp(w.Econ.GlobalPot-rate*float64(totalRigs), 0, w.cfg.MaxPot)
	income := rate * float64(playerRigs)
	w.Econ.Wallet += income

	if w.Econ.GlobalPot <= 0 && !w.potEmpty {
		w.potEmpty = true
		w.Logf("Global pot depleted, mining throttled")
		w.emit(EventPotEmpty, "", "global pot depleted")
	} else if w.Econ.GlobalPot > 0 {
		w.potEmpty = false
	}
	return income
}

// DisplayedRate is the player's current income per tick.
func (w *World) DisplayedRate() float64 {
	if w.Env != EnvNormal {
		return 0
	}
	playerRigs, _ := w.RigCounts()
	return float64(playerRigs) * w.cfg.BaseRate * w.Econ.MarketModifier * w.availableFactor()
}

// CashOut empties the wallet, crediting the owner fee. It returns the
// amount cashed out; zero means nothing happened.
func (w *World) CashOut() float64 {
	amount := w.Econ.Wallet
	if amount <= 0 {
		return 0
	}
	w.Econ.OwnerBalance += amount * w.cfg.OwnerFee
	w.Econ.Wallet = 0
	w.emitAmount(EventCashOut, "", "wallet cashed out", amount)
	w.Logf("Cashed out %.2f", amount)
	return amount
}

// ApplyAdPayout splits revenue evenly between the pot and the owner balance.
func (w *World) ApplyAdPayout(revenue float64) {
	if revenue <= 0 {
		return
	}
	half := revenue / 2
	w.Econ.GlobalPot = clamp(w.Econ.GlobalPot+half, 0, w.cfg.MaxPot)
	w.Econ.OwnerBalance += half
	if w.Econ.GlobalPot > 0 {
		w.potEmpty = false
	}
	w.emitAmount(EventAdPayout, "", "ad revenue paid", revenue)
}

// SetMarket records a market report. Non-finite modifiers are ignored.
func (w *World) SetMarket(headline string, modifier float64) bool {
	if math.IsNaN(modifier) || math.IsInf(modifier, 0) {
		return false
	}
	w.Econ.MarketModifier = clamp(modifier, minMarketModifier, maxMarketModifier)
	w.Econ.Headline = headline
	w.emit(EventMarket, "", headline)
	if w.Env == EnvNormal && headline != "" {
		w.Logf("MARKET: %s", headline)
	}
	return true
}

// SetEnvironment switches the global event state.
func (w *World) SetEnvironment(env Environment) {
	if w.Env == env {
		return
	}
	w.Env = env
	w.emit(EventEnvironment, env.String(), env.String())
}

// EnterEnvironment switches to env and starts a new epoch even when env is
// already active. Delayed work that ends an event compares epochs so a
// stale timer cannot end a newer event.
func (w *World) EnterEnvironment(env Environment) uint64 {
	w.SetEnvironment(env)
	w.envEpoch++
	return w.envEpoch
}

// EnvEpoch identifies the event started by the last EnterEnvironment.
func (w *World) EnvEpoch() uint64 { return w.envEpoch }
