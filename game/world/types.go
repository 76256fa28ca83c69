package world

import (
	"fmt"
	"math"
	"time"

	"github.com/kasuganosora/rigworld/server/game/catalog"
)

// Vec3 is a world position. Y is up; collision only looks at X and Z.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistXZ is the ground-plane distance between two points.
func (v Vec3) DistXZ(o Vec3) float64 {
	return math.Hypot(v.X-o.X, v.Z-o.Z)
}

// offMap is where depleted nodes wait for their respawn.
var offMap = Vec3{X: 100000, Y: -1000, Z: 100000}

// ActionState is the discrete state of an agent's FSM.
type ActionState uint8

const (
	ActionIdle ActionState = iota
	ActionMoving
	ActionMining
)

var actionNames = [...]string{"IDLE", "MOVING", "MINING"}

func (a ActionState) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("ActionState(%d)", uint8(a))
}

func (a ActionState) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Environment is the global event state.
type Environment uint8

const (
	EnvNormal Environment = iota
	EnvStorm
	EnvAdBreak
)

var envNames = [...]string{"NORMAL", "STORM", "AD_BREAK"}

func (e Environment) String() string {
	if int(e) < len(envNames) {
		return envNames[e]
	}
	return fmt.Sprintf("Environment(%d)", uint8(e))
}

func (e Environment) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// ResourceNode is a harvestable object, or a loose item lying on the ground.
type ResourceNode struct {
	ID        string           `json:"id"`
	Kind      catalog.NodeKind `json:"kind"`
	Pos       Vec3             `json:"pos"`
	Health    int              `json:"health"`
	MaxHealth int              `json:"max_health"`
	Drop      catalog.Item     `json:"drop"`
	DropCount int              `json:"drop_count"`
	Color     string           `json:"color"`
	Depleted  bool             `json:"depleted"`
}

// Harvestable reports whether the node can still be hit.
func (n *ResourceNode) Harvestable() bool { return n != nil && !n.Depleted && n.Health > 0 }

// Structure is a placed building. An empty OwnerID means the player owns it.
type Structure struct {
	ID       string       `json:"id"`
	Item     catalog.Item `json:"item"`
	Pos      Vec3         `json:"pos"`
	Rotation float64      `json:"rotation"`
	OwnerID  string       `json:"owner_id,omitempty"`
}

// Agent is an autonomous bot player.
type Agent struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Pos       Vec3        `json:"pos"`
	Rotation  float64     `json:"rotation"`
	Action    ActionState `json:"action"`
	TargetID  string      `json:"target_id,omitempty"`
	Color     string      `json:"color"`
	Inventory Inventory   `json:"inventory"`
	Health    int         `json:"health"`
	MaxHealth int         `json:"max_health"`
}

// Player is the human-controlled character.
type Player struct {
	Pos       Vec3      `json:"pos"`
	Rotation  float64   `json:"rotation"`
	Inventory Inventory `json:"inventory"`
}

// BuildMode is the transient placement state.
type BuildMode struct {
	Active   bool         `json:"active"`
	Item     catalog.Item `json:"item,omitempty"`
	Rotation float64      `json:"rotation"`
}

// Economy holds the currency globals.
type Economy struct {
	Wallet         float64 `json:"wallet"`
	GlobalPot      float64 `json:"global_pot"`
	OwnerBalance   float64 `json:"owner_balance"`
	MarketModifier float64 `json:"market_modifier"`
	Headline       string  `json:"headline"`
}

// Event is emitted by world mutations for downstream consumers.
type Event struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Subject string    `json:"subject,omitempty"`
	Amount  float64   `json:"amount,omitempty"`
	At      time.Time `json:"at"`
}

const (
	EventLog         = "log"
	EventEnvironment = "environment"
	EventMarket      = "market"
	EventAgentDeath  = "agent_death"
	EventAgentSpawn  = "agent_spawn"
	EventBuilt       = "structure_built"
	EventPotEmpty    = "pot_depleted"
	EventCashOut     = "cash_out"
	EventAdPayout    = "ad_payout"
)
