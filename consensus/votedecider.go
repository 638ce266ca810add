package consensus

import (
	"github.com/blockberries/freezeguard/types"
)

// UpdateVote computes this node's vote for frozen_edge_height + 1 and, if
// it differs from the currently registered local vote, broadcasts it
// (spec.md §4.3). It is a no-op if there are no candidates at that height.
func (m *Manager) UpdateVote() {
	m.mu.Lock()
	defer m.mu.Unlock()

	frozenEdge := m.chain.FrozenEdgeHeight()
	height := frozenEdge + 1

	blocksForHeight := m.unfrozenBlocks[height]
	if len(blocksForHeight) == 0 {
		return
	}

	now := m.clock.NowMillis()

	newVoteHash, haveVote := m.decideVoteLocked(height, frozenEdge, blocksForHeight, now)
	if !haveVote {
		return
	}

	if localHash, ok := m.votes.LocalVote(height); ok && localHash == newVoteHash {
		return
	}

	vote := types.BlockVote{Height: height, Hash: newVoteHash, Timestamp: now}
	m.mesh.BroadcastVote(vote)
	m.votes.RegisterVote(m.localID, vote)
	m.metrics.voteCast()
}

func (m *Manager) decideVoteLocked(
	height, frozenEdge uint64,
	blocksForHeight map[types.Hash]*types.Block,
	now int64,
) (types.Hash, bool) {
	if override, ok := m.hashOverrides[height]; ok {
		return override, true
	}

	if hash, ok := m.followConsensusLocked(height, frozenEdge, now); ok {
		return hash, true
	}

	return m.chooseOwnLocked(blocksForHeight, frozenEdge, now)
}

// followConsensusLocked implements the §4.3 consensus-follow path: adopt
// the leading hash once it has a majority (and is eligible to vote for
// yet) or once the ten-second fallback kicks in.
func (m *Manager) followConsensusLocked(height, frozenEdge uint64, now int64) (types.Hash, bool) {
	leaderHash, voteCount := m.votes.LeadingHash(height)
	leaderBlock := m.getLocked(height, leaderHash)
	if leaderBlock == nil {
		return types.Hash{}, false
	}

	pool := m.votingPoolSize()
	majority := voteCount > pool/2 && leaderBlock.MinimumVoteTimestamp <= now
	fallback := leaderBlock.MinimumVoteTimestamp < now-m.cfg.FallbackDelay.Milliseconds()
	if majority || fallback {
		return leaderHash, true
	}
	return types.Hash{}, false
}

// chooseOwnLocked implements the §4.3 self-choice path: the lowest
// chain-scored candidate at this height, once it is eligible to vote for.
func (m *Manager) chooseOwnLocked(blocksForHeight map[types.Hash]*types.Block, frozenEdge uint64, now int64) (types.Hash, bool) {
	var lowest *types.Block
	var lowestScore int64

	for _, b := range blocksForHeight {
		score := b.ChainScore(frozenEdge)
		if lowest == nil || score < lowestScore {
			lowest = b
			lowestScore = score
		}
	}

	if lowest == nil || lowest.MinimumVoteTimestamp > now {
		return types.Hash{}, false
	}
	return lowest.Hash, true
}
