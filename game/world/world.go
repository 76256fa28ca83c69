package world

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kasuganosora/rigworld/server/game/catalog"
	"github.com/kasuganosora/rigworld/server/game/terrain"
	"go.uber.org/zap"
)

// Config tunes world generation and the economy.
type Config struct {
	Bound          float64
	NodeCount      int
	AgentCount     int
	LogSize        int
	RespawnMin     time.Duration
	RespawnMax     time.Duration
	AgentRespawn   time.Duration
	AgentMaxHealth int
	PlayerDamage   int

	MaxPot         float64
	InitialPot     float64
	BaseRate       float64
	OwnerFee       float64
	DepletedFactor float64
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Bound:          98,
		NodeCount:      150,
		AgentCount:     5,
		LogSize:        5,
		RespawnMin:     15 * time.Second,
		RespawnMax:     30 * time.Second,
		AgentRespawn:   30 * time.Second,
		AgentMaxHealth: 100,
		PlayerDamage:   10,
		MaxPot:         10000,
		InitialPot:     5000,
		BaseRate:       0.05,
		OwnerFee:       0.1,
		DepletedFactor: 0.1,
	}
}

const (
	playerRadius     = 0.5
	agentRadius      = 1.0
	spawnClearRadius = 4.0
	lootScatter      = 1.5
	maxLootNodes     = 10
	gridStep         = 3.0
	spawnAttempts    = 50
)

var agentNames = []string{"Rusty", "Bolt", "Sprocket", "Tinker", "Nova", "Flux", "Gizmo", "Ratchet"}
var agentColors = []string{"#e53935", "#1e88e5", "#43a047", "#fdd835", "#8e24aa", "#00acc1"}

// World is the mutable simulation state. It is not safe for concurrent use;
// Store serializes access to it.
type World struct {
	cfg    Config
	book   *catalog.Book
	rng    *rand.Rand
	logger *zap.Logger

	Player     Player
	Build      BuildMode
	MenuOpen   bool
	Env        Environment
	Econ       Economy
	nodes      map[string]*ResourceNode
	structures map[string]*Structure
	agents     map[string]*Agent

	log       []string
	potEmpty  bool
	envEpoch  uint64
	nextNode  int
	nextAgent int
	pending   []delayRequest
	cancelled []string
	events    []Event
	now       func() time.Time
}

type delayRequest struct {
	name  string
	delay time.Duration
	fn    func(*World)
}

// New returns an empty world with the player at the origin.
func New(cfg Config, rng *rand.Rand, logger *zap.Logger) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LogSize <= 0 {
		cfg.LogSize = 5
	}
	w := &World{
		cfg:        cfg,
		book:       catalog.Recipes(),
		rng:        rng,
		logger:     logger,
		nodes:      make(map[string]*ResourceNode),
		structures: make(map[string]*Structure),
		agents:     make(map[string]*Agent),
		now:        time.Now,
	}
	w.Player = Player{Pos: Vec3{Y: terrain.Height(0, 0)}, Inventory: Inventory{}}
	w.Econ = Economy{GlobalPot: clamp(cfg.InitialPot, 0, cfg.MaxPot), MarketModifier: 1.0}
	return w
}

// Generate builds a fresh world: resource nodes, agents and the player's kit.
func Generate(cfg Config, rng *rand.Rand, logger *zap.Logger) *World {
	w := New(cfg, rng, logger)
	w.Player.Inventory.Add(catalog.Crate, 2)
	for i := 0; i < cfg.NodeCount; i++ {
		kind := w.pickNodeKind()
		w.AddNode(kind, w.randomSpawn(kind.AllowUnderwater()))
	}
	for i := 0; i < cfg.AgentCount; i++ {
		w.SpawnAgent()
	}
	w.Logf("World generated: %d nodes, %d agents", len(w.nodes), len(w.agents))
	return w
}

// Config returns the tuning the world was built with.
func (w *World) Config() Config { return w.cfg }

// Recipes returns the recipe book in use.
func (w *World) Recipes() *catalog.Book { return w.book }

// Rand is the world's random source.
func (w *World) Rand() *rand.Rand { return w.rng }

// Paused reports whether player and agent control is suspended.
func (w *World) Paused() bool { return w.Env == EnvAdBreak }

// Logf prepends a message to the bounded in-world log.
func (w *World) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	w.log = append([]string{msg}, w.log...)
	if len(w.log) > w.cfg.LogSize {
		w.log = w.log[:w.cfg.LogSize]
	}
	w.logger.Debug("world log", zap.String("msg", msg))
	w.emit(EventLog, "", msg)
}

// LogLines returns the bounded log, newest first.
func (w *World) LogLines() []string {
	out := make([]string, len(w.log))
	copy(out, w.log)
	return out
}

func (w *World) emit(kind, subject, msg string) {
	w.emitAmount(kind, subject, msg, 0)
}

func (w *World) emitAmount(kind, subject, msg string, amount float64) {
	w.events = append(w.events, Event{Kind: kind, Subject: subject, Message: msg, Amount: amount, At: w.now()})
}

// after schedules fn to run against the world once delay has elapsed.
// Scheduling a name that is already pending replaces it.
func (w *World) after(name string, delay time.Duration, fn func(*World)) {
	w.pending = append(w.pending, delayRequest{name: name, delay: delay, fn: fn})
}

func (w *World) cancel(name string) {
	w.cancelled = append(w.cancelled, name)
}

// ---- nodes ----

func (w *World) pickNodeKind() catalog.NodeKind {
	kinds := catalog.HarvestableKinds()
	total := 0
	for _, k := range kinds {
		total += k.SpawnWeight()
	}
	roll := w.rng.Intn(total)
	for _, k := range kinds {
		roll -= k.SpawnWeight()
		if roll < 0 {
			return k
		}
	}
	return kinds[0]
}

// randomSpawn picks an in-bounds, unblocked, dry (unless allowed) position
// away from the player's start. When the random tries all miss it walks the
// map on a unit grid; only a full map yields an invalid point.
func (w *World) randomSpawn(allowUnderwater bool) Vec3 {
	span := w.cfg.Bound - 2
	var x, z float64
	for i := 0; i < spawnAttempts; i++ {
		x = (w.rng.Float64()*2 - 1) * span
		z = (w.rng.Float64()*2 - 1) * span
		if w.spawnable(x, z, allowUnderwater) {
			return Vec3{X: x, Y: terrain.Height(x, z), Z: z}
		}
	}
	if p, ok := w.scanSpawn(span, allowUnderwater); ok {
		w.logger.Debug("spawn fell back to grid scan", zap.Float64("x", p.X), zap.Float64("z", p.Z))
		return p
	}
	w.logger.Error("no free spawn position", zap.Float64("x", x), zap.Float64("z", z))
	return Vec3{X: x, Y: terrain.Height(x, z), Z: z}
}

func (w *World) spawnable(x, z float64, allowUnderwater bool) bool {
	if math.Hypot(x, z) < spawnClearRadius {
		return false
	}
	if !allowUnderwater && terrain.Underwater(x, z) {
		return false
	}
	return !w.IsBlocked(x, z, "")
}

// scanSpawn visits every grid point within span, starting at a random row
// so repeated fallbacks do not pile up in one corner.
func (w *World) scanSpawn(span float64, allowUnderwater bool) (Vec3, bool) {
	n := int(2*span) + 1
	if n <= 0 {
		return Vec3{}, false
	}
	offset := w.rng.Intn(n)
	for i := 0; i < n; i++ {
		z := -span + float64((i+offset)%n)
		for j := 0; j < n; j++ {
			x := -span + float64(j)
			if w.spawnable(x, z, allowUnderwater) {
				return Vec3{X: x, Y: terrain.Height(x, z), Z: z}, true
			}
		}
	}
	return Vec3{}, false
}

// AddNode places a fresh node of kind at pos and returns it.
func (w *World) AddNode(kind catalog.NodeKind, pos Vec3) *ResourceNode {
	w.nextNode++
	n := &ResourceNode{
		ID:        fmt.Sprintf("node-%d", w.nextNode),
		Kind:      kind,
		Pos:       pos,
		Health:    kind.MaxHealth(),
		MaxHealth: kind.MaxHealth(),
		Drop:      kind.Drop(),
		DropCount: 1,
		Color:     kind.Color(),
	}
	w.nodes[n.ID] = n
	return n
}

// Node returns the node with id, or nil.
func (w *World) Node(id string) *ResourceNode { return w.nodes[id] }

// NodeIDs returns all node ids in a stable order.
func (w *World) NodeIDs() []string {
	ids := make([]string, 0, len(w.nodes))
	for id := range w.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NearestNode returns the closest harvestable node within maxDist that
// satisfies match (nil matches everything).
func (w *World) NearestNode(from Vec3, maxDist float64, match func(*ResourceNode) bool) *ResourceNode {
	var best *ResourceNode
	bestDist := maxDist
	for _, id := range w.NodeIDs() {
		n := w.nodes[id]
		if !n.Harvestable() || (match != nil && !match(n)) {
			continue
		}
		if d := from.DistXZ(n.Pos); d <= bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// ---- structures ----

// PlaceStructure creates a structure; owner is empty for the player.
func (w *World) PlaceStructure(item catalog.Item, pos Vec3, rotation float64, owner string) *Structure {
	s := &Structure{
		ID:       "struct-" + uuid.NewString(),
		Item:     item,
		Pos:      pos,
		Rotation: rotation,
		OwnerID:  owner,
	}
	w.structures[s.ID] = s
	w.emit(EventBuilt, s.ID, fmt.Sprintf("%s placed", item))
	return s
}

// Structure returns the structure with id, or nil.
func (w *World) Structure(id string) *Structure { return w.structures[id] }

// StructureIDs returns all structure ids in a stable order.
func (w *World) StructureIDs() []string {
	ids := make([]string, 0, len(w.structures))
	for id := range w.structures {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ---- agents ----

// Agent returns the agent with id, or nil.
func (w *World) Agent(id string) *Agent { return w.agents[id] }

// AgentIDs returns all live agent ids in a stable order.
func (w *World) AgentIDs() []string {
	ids := make([]string, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SpawnAgent creates a new idle agent at a random valid position.
func (w *World) SpawnAgent() *Agent {
	w.nextAgent++
	pos := w.randomSpawn(false)
	a := &Agent{
		ID:        fmt.Sprintf("agent-%d", w.nextAgent),
		Name:      agentNames[(w.nextAgent-1)%len(agentNames)],
		Pos:       pos,
		Rotation:  w.rng.Float64() * 2 * math.Pi,
		Action:    ActionIdle,
		Color:     agentColors[(w.nextAgent-1)%len(agentColors)],
		Inventory: Inventory{},
		Health:    w.cfg.AgentMaxHealth,
		MaxHealth: w.cfg.AgentMaxHealth,
	}
	w.agents[a.ID] = a
	w.emit(EventAgentSpawn, a.ID, a.Name+" joined")
	return a
}

// AddAgent registers a caller-built agent, used by tests and tooling.
func (w *World) AddAgent(a *Agent) {
	if a.Inventory == nil {
		a.Inventory = Inventory{}
	}
	w.agents[a.ID] = a
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
