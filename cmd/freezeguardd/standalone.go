package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"
	"time"

	"github.com/blockberries/freezeguard/types"
)

var (
	errOutOfOrderFreeze = errors.New("freezeguardd: standalone chain can only freeze frozen_edge_height + 1")
	errNoPeersConfigured = errors.New("freezeguardd: standalone mesh has no peer transport configured")
)

// The types below are a minimal, in-memory reference backing for every
// collaborator interface the consensus core expects. They let
// freezeguardd run standalone, with metrics and the admin API reachable,
// without a real chain, balance engine, or peer mesh behind it — the same
// role the teacher's cmd/counter reference application plays for its
// consensus engine. A production deployment constructs a Manager against
// its own FrozenChain, BalanceEngine, VoteRegistry, MeshTransport, and
// NodeRegistry instead of these.

type standaloneChain struct {
	mu                 sync.Mutex
	frozenEdge         uint64
	genesisCycleLength uint64
	cycleLength        int
	edgeLeeway         uint64
}

func newStandaloneChain(genesisCycleLength uint64, cycleLength int, edgeLeeway uint64) *standaloneChain {
	return &standaloneChain{genesisCycleLength: genesisCycleLength, cycleLength: cycleLength, edgeLeeway: edgeLeeway}
}

func (c *standaloneChain) FrozenEdgeHeight() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozenEdge
}

func (c *standaloneChain) Freeze(b *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.Height != c.frozenEdge+1 {
		return errOutOfOrderFreeze
	}
	c.frozenEdge = b.Height
	return nil
}

func (c *standaloneChain) InGenesisCycle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozenEdge < c.genesisCycleLength
}

func (c *standaloneChain) CurrentCycleLength() int {
	return c.cycleLength
}

func (c *standaloneChain) OpenEdgeHeight(lenient bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	leeway := c.edgeLeeway
	if lenient {
		leeway *= 2
	}
	return c.frozenEdge + leeway
}

// standaloneBalances computes a deterministic, content-derived stand-in
// balance list hash. It has no actual ledger behind it; it exists so
// Admission's balance-list check has something concrete to compare
// against when exercised outside of a real node.
type standaloneBalances struct{}

func (standaloneBalances) BalanceListHash(b *types.Block) (types.Hash, error) {
	h := sha256.New()
	var heightBuf [8]byte
	binary.BigEndian.PutUint64(heightBuf[:], b.Height)
	h.Write(heightBuf[:])
	h.Write(b.PreviousHash[:])
	sum := h.Sum(nil)
	hash, _ := types.NewHash(sum)
	return hash, nil
}

type standaloneVoteRegistry struct {
	mu      sync.Mutex
	leading map[uint64]leadingVote
	local   map[uint64]types.Hash
	byHash  map[uint64]map[types.Hash]int
}

type leadingVote struct {
	hash  types.Hash
	count int
}

func newStandaloneVoteRegistry() *standaloneVoteRegistry {
	return &standaloneVoteRegistry{
		leading: make(map[uint64]leadingVote),
		local:   make(map[uint64]types.Hash),
		byHash:  make(map[uint64]map[types.Hash]int),
	}
}

func (r *standaloneVoteRegistry) LeadingHash(height uint64) (types.Hash, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lv := r.leading[height]
	return lv.hash, lv.count
}

func (r *standaloneVoteRegistry) LocalVote(height uint64) (types.Hash, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.local[height]
	return h, ok
}

func (r *standaloneVoteRegistry) RegisterVote(voter types.Hash, vote types.BlockVote) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.local[vote.Height] = vote.Hash

	counts := r.byHash[vote.Height]
	if counts == nil {
		counts = make(map[types.Hash]int)
		r.byHash[vote.Height] = counts
	}
	counts[vote.Hash]++

	if lv, ok := r.leading[vote.Height]; !ok || counts[vote.Hash] > lv.count {
		r.leading[vote.Height] = leadingVote{hash: vote.Hash, count: counts[vote.Hash]}
	}
}

func (r *standaloneVoteRegistry) Heights() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, 0, len(r.byHash))
	for h := range r.byHash {
		out = append(out, h)
	}
	return out
}

func (r *standaloneVoteRegistry) HashesFor(height uint64) []types.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := r.byHash[height]
	out := make([]types.Hash, 0, len(counts))
	for h := range counts {
		out = append(out, h)
	}
	return out
}

// standaloneMesh has no real peer transport; broadcasting is a log line
// and fetches always fail, since wire-level gossip is out of scope for
// this core (spec non-goal: network transport framing).
type standaloneMesh struct {
	onBroadcast func(types.BlockVote)
}

func (m *standaloneMesh) BroadcastVote(vote types.BlockVote) {
	if m.onBroadcast != nil {
		m.onBroadcast(vote)
	}
}

func (m *standaloneMesh) FetchBlock(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
	return types.MissingBlockResponse{}, errNoPeersConfigured
}

type standaloneNodes struct {
	size int
}

func (n standaloneNodes) MeshSize() int { return n.size }

type systemClock struct{}

func (systemClock) NowMillis() int64 { return time.Now().UnixMilli() }
func (systemClock) Sleep(ms int64)   { time.Sleep(time.Duration(ms) * time.Millisecond) }
