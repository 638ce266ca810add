package consensus

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blockberries/freezeguard/types"
)

// fakeChain is a minimal, test-only FrozenChain.
type fakeChain struct {
	mu          sync.Mutex
	frozenEdge  uint64
	openEdge    uint64
	genesis     bool
	cycleLength int
	frozen      []*types.Block
	freezeErr   error
}

func (f *fakeChain) FrozenEdgeHeight() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frozenEdge
}

func (f *fakeChain) Freeze(b *types.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.freezeErr != nil {
		return f.freezeErr
	}
	f.frozen = append(f.frozen, b)
	f.frozenEdge = b.Height
	return nil
}

func (f *fakeChain) InGenesisCycle() bool { return f.genesis }

func (f *fakeChain) CurrentCycleLength() int { return f.cycleLength }

func (f *fakeChain) OpenEdgeHeight(lenient bool) uint64 { return f.openEdge }

// fakeBalances is a test-only BalanceEngine.
type fakeBalances struct {
	hash types.Hash
	err  error
	fn   func(*types.Block) (types.Hash, error)
}

func (f *fakeBalances) BalanceListHash(b *types.Block) (types.Hash, error) {
	if f.fn != nil {
		return f.fn(b)
	}
	if f.err != nil {
		return types.Hash{}, f.err
	}
	return f.hash, nil
}

// fakeVoteRegistry is a test-only VoteRegistry.
type fakeVoteRegistry struct {
	mu            sync.Mutex
	leadingHash   map[uint64]types.Hash
	leadingCount  map[uint64]int
	local         map[uint64]types.Hash
	votesByHeight map[uint64]map[types.Hash]bool
	registered    []types.BlockVote
}

func newFakeVoteRegistry() *fakeVoteRegistry {
	return &fakeVoteRegistry{
		leadingHash:   make(map[uint64]types.Hash),
		leadingCount:  make(map[uint64]int),
		local:         make(map[uint64]types.Hash),
		votesByHeight: make(map[uint64]map[types.Hash]bool),
	}
}

func (r *fakeVoteRegistry) setLeading(height uint64, hash types.Hash, count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leadingHash[height] = hash
	r.leadingCount[height] = count
}

func (r *fakeVoteRegistry) LeadingHash(height uint64) (types.Hash, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leadingHash[height], r.leadingCount[height]
}

func (r *fakeVoteRegistry) LocalVote(height uint64) (types.Hash, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.local[height]
	return v, ok
}

func (r *fakeVoteRegistry) RegisterVote(voter types.Hash, vote types.BlockVote) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.local[vote.Height] = vote.Hash
	r.registered = append(r.registered, vote)
	if r.votesByHeight[vote.Height] == nil {
		r.votesByHeight[vote.Height] = make(map[types.Hash]bool)
	}
	r.votesByHeight[vote.Height][vote.Hash] = true
}

func (r *fakeVoteRegistry) Heights() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint64, 0, len(r.votesByHeight))
	for h := range r.votesByHeight {
		out = append(out, h)
	}
	return out
}

func (r *fakeVoteRegistry) HashesFor(height uint64) []types.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Hash, 0, len(r.votesByHeight[height]))
	for h := range r.votesByHeight[height] {
		out = append(out, h)
	}
	return out
}

// fakeMesh is a test-only MeshTransport.
type fakeMesh struct {
	mu          sync.Mutex
	broadcasted []types.BlockVote
	fetchFn     func(context.Context, types.MissingBlockRequest) (types.MissingBlockResponse, error)
}

func (m *fakeMesh) BroadcastVote(vote types.BlockVote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.broadcasted = append(m.broadcasted, vote)
}

func (m *fakeMesh) FetchBlock(ctx context.Context, req types.MissingBlockRequest) (types.MissingBlockResponse, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, req)
	}
	return types.MissingBlockResponse{}, nil
}

// fakeNodes is a test-only NodeRegistry.
type fakeNodes struct {
	size int
}

func (n fakeNodes) MeshSize() int { return n.size }

// fakeClock is a test-only Clock. Sleep never actually blocks; tests that
// care about what happens "during" the dwell set SleepFn.
type fakeClock struct {
	mu      sync.Mutex
	now     int64
	SleepFn func(ms int64)
}

func (c *fakeClock) NowMillis() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) setNow(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ms
}

func (c *fakeClock) Sleep(ms int64) {
	if c.SleepFn != nil {
		c.SleepFn(ms)
	}
}

// memSink is a test-only DiagnosticSink.
type memSink struct {
	mu      sync.Mutex
	reasons []string
}

func (s *memSink) Record(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, reason)
}

func (s *memSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.reasons))
	copy(out, s.reasons)
	return out
}

// testManager wires a Manager with fakes; a nil cfg means DefaultConfig().
func testManager(chain *fakeChain, balances *fakeBalances, votes *fakeVoteRegistry, mesh *fakeMesh, nodes fakeNodes, clock *fakeClock, cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	m, err := NewManager(cfg, chain, balances, votes, mesh, nodes, clock, types.Hash{1}, zerolog.Nop(), nil)
	if err != nil {
		panic(err)
	}
	return m
}

func hashFrom(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}
