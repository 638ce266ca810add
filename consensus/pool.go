package consensus

import (
	"github.com/blockberries/freezeguard/types"
)

// register inserts block into the pool, evicting the worst-scored
// candidate at that height if doing so would exceed the per-height cap
// (spec.md §4.1). Callers must hold m.mu. It returns nothing and never
// rejects: duplicate hashes are filtered out by Admit before it is called.
func (m *Manager) register(height uint64, hash types.Hash, block *types.Block) {
	blocksAtHeight := m.unfrozenBlocks[height]
	if blocksAtHeight == nil {
		blocksAtHeight = make(map[types.Hash]*types.Block)
		m.unfrozenBlocks[height] = blocksAtHeight
	}

	blocksAtHeight[hash] = block

	if len(blocksAtHeight) > m.cfg.PerHeightCap && !m.chain.InGenesisCycle() {
		frozenEdge := m.chain.FrozenEdgeHeight()

		// Seed the incumbent "worst" with the block we just inserted so a
		// tie is resolved in its favor (spec.md §9, §4.1): only a strictly
		// higher score displaces it.
		worstHash := hash
		worstScore := block.ChainScore(frozenEdge)
		for h, b := range blocksAtHeight {
			score := b.ChainScore(frozenEdge)
			if score > worstScore {
				worstScore = score
				worstHash = h
			}
		}

		delete(blocksAtHeight, worstHash)
		m.metrics.evicted()
	}
}

// Get returns the block at (height, hash), or nil if absent.
func (m *Manager) Get(height uint64, hash types.Hash) *types.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getLocked(height, hash)
}

func (m *Manager) getLocked(height uint64, hash types.Hash) *types.Block {
	blocksAtHeight, ok := m.unfrozenBlocks[height]
	if !ok {
		return nil
	}
	return blocksAtHeight[hash]
}

// Heights returns a snapshot of every height currently holding candidates.
func (m *Manager) Heights() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]uint64, 0, len(m.unfrozenBlocks))
	for h := range m.unfrozenBlocks {
		out = append(out, h)
	}
	return out
}

// Count returns the number of candidates at height.
func (m *Manager) Count(height uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.unfrozenBlocks[height])
}

// BlocksAt returns a snapshot of every candidate at height.
func (m *Manager) BlocksAt(height uint64) []*types.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blocksAtLocked(height)
}

func (m *Manager) blocksAtLocked(height uint64) []*types.Block {
	blocksAtHeight := m.unfrozenBlocks[height]
	out := make([]*types.Block, 0, len(blocksAtHeight))
	for _, b := range blocksAtHeight {
		out = append(out, b)
	}
	return out
}

// All returns a snapshot of every candidate across every height.
func (m *Manager) All() []*types.Block {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*types.Block
	for _, blocksAtHeight := range m.unfrozenBlocks {
		for _, b := range blocksAtHeight {
			out = append(out, b)
		}
	}
	return out
}

// purgeAtOrBelowLocked drops every candidate, threshold override, and hash
// override at or below h. Callers must hold m.mu.
func (m *Manager) purgeAtOrBelowLocked(h uint64) {
	for height := range m.unfrozenBlocks {
		if height <= h {
			delete(m.unfrozenBlocks, height)
		}
	}
	for height := range m.thresholdOverrides {
		if height <= h {
			delete(m.thresholdOverrides, height)
		}
	}
	for height := range m.hashOverrides {
		if height <= h {
			delete(m.hashOverrides, height)
		}
	}
	m.flicker.purgeAtOrBelow(h)
}

// Purge clears the entire candidate pool, for debugging or resync.
func (m *Manager) Purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unfrozenBlocks = make(map[uint64]map[types.Hash]*types.Block)
}

// SetThresholdOverride sets (or, for percent == 0, removes) the freezing
// threshold for height. Values >= 100 are silently ignored.
func (m *Manager) SetThresholdOverride(height uint64, percent int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if percent == 0 {
		delete(m.thresholdOverrides, height)
	} else if percent < 100 {
		m.thresholdOverrides[height] = percent
	}
}

// SetHashOverride sets (or, for the zero hash, removes) the forced vote
// hash for height.
func (m *Manager) SetHashOverride(height uint64, hash types.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hash.IsZero() {
		delete(m.hashOverrides, height)
	} else {
		m.hashOverrides[height] = hash
	}
}

// GetThresholdOverrides returns a snapshot copy of the threshold overrides.
func (m *Manager) GetThresholdOverrides() map[uint64]int {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uint64]int, len(m.thresholdOverrides))
	for k, v := range m.thresholdOverrides {
		out[k] = v
	}
	return out
}

// GetHashOverrides returns a snapshot copy of the hash overrides.
func (m *Manager) GetHashOverrides() map[uint64]types.Hash {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[uint64]types.Hash, len(m.hashOverrides))
	for k, v := range m.hashOverrides {
		out[k] = v
	}
	return out
}
