package consensus

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"github.com/blockberries/freezeguard/types"
)

// Manager owns the unfrozen-block pool and the override maps behind a
// single mutex, and implements Admission, VoteDecider, Freezer, and
// MissingBlockFetcher as methods. It replaces the teacher's module-scope
// statics with an encapsulated value so tests can construct independent
// instances (spec.md §9, Design Notes).
type Manager struct {
	mu sync.Mutex

	cfg *Config

	unfrozenBlocks     map[uint64]map[types.Hash]*types.Block
	thresholdOverrides map[uint64]int
	hashOverrides      map[uint64]types.Hash

	chain    types.FrozenChain
	balances types.BalanceEngine
	votes    types.VoteRegistry
	mesh     types.MeshTransport
	nodes    types.NodeRegistry
	clock    types.Clock
	localID  types.Hash

	logger  zerolog.Logger
	metrics *Metrics
	flicker *flickerLog

	fetchInFlight *lru.Cache
}

// NewManager wires a Manager to its collaborators. localID identifies this
// node when it registers its own vote in the VoteRegistry.
func NewManager(
	cfg *Config,
	chain types.FrozenChain,
	balances types.BalanceEngine,
	votes types.VoteRegistry,
	mesh types.MeshTransport,
	nodes types.NodeRegistry,
	clock types.Clock,
	localID types.Hash,
	logger zerolog.Logger,
	metrics *Metrics,
) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cache, err := lru.New(cfg.FetchDedupeCapacity)
	if err != nil {
		return nil, err
	}

	return &Manager{
		cfg:                cfg,
		unfrozenBlocks:      make(map[uint64]map[types.Hash]*types.Block),
		thresholdOverrides:  make(map[uint64]int),
		hashOverrides:       make(map[uint64]types.Hash),
		chain:               chain,
		balances:            balances,
		votes:               votes,
		mesh:                mesh,
		nodes:               nodes,
		clock:               clock,
		localID:             localID,
		logger:              logger,
		metrics:             metrics,
		flicker:             newFlickerLog(),
		fetchInFlight:       cache,
	}, nil
}

// votingPoolSize is the §4.3/§4.4 "pool" divisor: mesh size in the genesis
// cycle, cycle length otherwise.
func (m *Manager) votingPoolSize() int {
	if m.chain.InGenesisCycle() {
		return m.nodes.MeshSize()
	}
	return m.chain.CurrentCycleLength()
}
