package consensus

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockberries/freezeguard/types"
)

func signBlock(t *testing.T, b *types.Block) *types.Block {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	b.SignerKey = pub
	b.SignedData = []byte("fixed-sign-data")
	b.Signature = ed25519.Sign(priv, b.SignedData)
	return b
}

func candidateBlock(t *testing.T, height uint64, hash byte, cycleDistance int64) *types.Block {
	t.Helper()
	return signBlock(t, &types.Block{
		Height:        height,
		Hash:          hashFrom(hash),
		CycleDistance: cycleDistance,
	})
}

func newPoolManager(t *testing.T, cap int) (*Manager, *fakeChain) {
	t.Helper()
	chain := &fakeChain{cycleLength: 10}
	cfg := DefaultConfig()
	cfg.PerHeightCap = cap
	m := testManager(chain, &fakeBalances{}, newFakeVoteRegistry(), &fakeMesh{}, fakeNodes{size: 10}, &fakeClock{}, cfg)
	return m, chain
}

func TestRegisterEvictsWorstScoreOverCap(t *testing.T) {
	m, _ := newPoolManager(t, 2)

	a := candidateBlock(t, 10, 1, 5)
	b := candidateBlock(t, 10, 2, 1)
	c := candidateBlock(t, 10, 3, 9)

	m.mu.Lock()
	m.register(a.Height, a.Hash, a)
	m.register(b.Height, b.Hash, b)
	m.register(c.Height, c.Hash, c)
	m.mu.Unlock()

	require.Equal(t, 2, m.Count(10))
	require.NotNil(t, m.Get(10, a.Hash))
	require.NotNil(t, m.Get(10, b.Hash))
	require.Nil(t, m.Get(10, c.Hash), "highest-score candidate should be evicted")
}

func TestRegisterEvictionTieFavorsNewcomer(t *testing.T) {
	m, _ := newPoolManager(t, 2)

	a := candidateBlock(t, 10, 1, 5)
	b := candidateBlock(t, 10, 2, 5)
	c := candidateBlock(t, 10, 3, 5)

	m.mu.Lock()
	m.register(a.Height, a.Hash, a)
	m.register(b.Height, b.Hash, b)
	m.register(c.Height, c.Hash, c)
	m.mu.Unlock()

	require.Equal(t, 2, m.Count(10))
	require.NotNil(t, m.Get(10, c.Hash), "a tie at insertion time must favor the newcomer")
}

func TestRegisterDoesNotEvictDuringGenesisCycle(t *testing.T) {
	m, chain := newPoolManager(t, 1)
	chain.genesis = true

	a := candidateBlock(t, 1, 1, 1)
	b := candidateBlock(t, 1, 2, 2)

	m.mu.Lock()
	m.register(a.Height, a.Hash, a)
	m.register(b.Height, b.Hash, b)
	m.mu.Unlock()

	require.Equal(t, 2, m.Count(1))
}

func TestHeightsCountBlocksAtAll(t *testing.T) {
	m, _ := newPoolManager(t, 10)

	a := candidateBlock(t, 5, 1, 1)
	b := candidateBlock(t, 6, 2, 1)

	m.mu.Lock()
	m.register(a.Height, a.Hash, a)
	m.register(b.Height, b.Hash, b)
	m.mu.Unlock()

	require.ElementsMatch(t, []uint64{5, 6}, m.Heights())
	require.Equal(t, 1, m.Count(5))
	require.Len(t, m.BlocksAt(5), 1)
	require.Len(t, m.All(), 2)
}

func TestPurgeAtOrBelowClearsPoolOverridesAndFlicker(t *testing.T) {
	m, _ := newPoolManager(t, 10)

	a := candidateBlock(t, 5, 1, 1)
	b := candidateBlock(t, 6, 2, 1)

	m.mu.Lock()
	m.register(a.Height, a.Hash, a)
	m.register(b.Height, b.Hash, b)
	m.mu.Unlock()

	m.SetThresholdOverride(5, 90)
	m.SetHashOverride(6, hashFrom(9))
	m.flicker.recordFlicker(5)

	m.mu.Lock()
	m.purgeAtOrBelowLocked(5)
	m.mu.Unlock()

	require.Nil(t, m.Get(5, a.Hash))
	require.NotNil(t, m.Get(6, b.Hash))
	require.Empty(t, m.GetThresholdOverrides())
	require.Contains(t, m.GetHashOverrides(), uint64(6))
	require.Empty(t, m.flicker.snapshot())
}

func TestPurgeClearsEverything(t *testing.T) {
	m, _ := newPoolManager(t, 10)
	a := candidateBlock(t, 5, 1, 1)

	m.mu.Lock()
	m.register(a.Height, a.Hash, a)
	m.mu.Unlock()

	m.Purge()
	require.Empty(t, m.Heights())
}

func TestSetThresholdOverrideIgnoresHundredAndAboveAndClearsOnZero(t *testing.T) {
	m, _ := newPoolManager(t, 10)

	m.SetThresholdOverride(5, 100)
	require.NotContains(t, m.GetThresholdOverrides(), uint64(5))

	m.SetThresholdOverride(5, 80)
	require.Equal(t, 80, m.GetThresholdOverrides()[5])

	m.SetThresholdOverride(5, 0)
	require.NotContains(t, m.GetThresholdOverrides(), uint64(5))
}

func TestSetHashOverrideZeroHashClears(t *testing.T) {
	m, _ := newPoolManager(t, 10)

	m.SetHashOverride(5, hashFrom(3))
	require.Equal(t, hashFrom(3), m.GetHashOverrides()[5])

	m.SetHashOverride(5, types.ZeroHash)
	require.NotContains(t, m.GetHashOverrides(), uint64(5))
}
