package consensus

// thresholdLocked computes the vote-count threshold for height: the
// per-height override if set, else the configured default percentage of
// the voting pool. Callers must hold m.mu.
func (m *Manager) thresholdLocked(height uint64, pool int) int {
	if pct, ok := m.thresholdOverrides[height]; ok {
		return pool * pct / 100
	}
	return pool * m.cfg.DefaultThresholdPercent / 100
}

// AttemptToFreeze runs one pass of the two-phase freezing check for
// frozen_edge_height + 1 (spec.md §4.4). The dwell between the pre- and
// post-check releases the manager's mutex so Admit and UpdateVote are not
// blocked for the dwell duration (spec.md §5, §9 "Sleep under lock").
func (m *Manager) AttemptToFreeze() {
	m.mu.Lock()

	frozenEdge := m.chain.FrozenEdgeHeight()
	height := frozenEdge + 1

	leaderHash, voteCount := m.votes.LeadingHash(height)
	pool := m.votingPoolSize()
	threshold := m.thresholdLocked(height, pool)

	if voteCount <= threshold {
		m.mu.Unlock()
		return
	}

	m.mu.Unlock()
	m.clock.Sleep(m.cfg.FreezeDwell.Milliseconds())
	m.mu.Lock()
	defer m.mu.Unlock()

	secondLeaderHash, secondVoteCount := m.votes.LeadingHash(height)
	if secondVoteCount <= threshold || secondLeaderHash != leaderHash {
		if secondLeaderHash != leaderHash {
			m.flicker.recordFlicker(height)
			m.metrics.flickered()
		}
		return
	}

	block := m.getLocked(height, leaderHash)
	if block == nil {
		return
	}

	if err := m.chain.Freeze(block); err != nil {
		m.logger.Warn().Err(err).Uint64("height", height).Msg("freeze rejected by frozen chain")
		return
	}

	m.flicker.clear(height)
	m.metrics.froze()

	newEdge := m.chain.FrozenEdgeHeight()
	if newEdge > frozenEdge {
		m.purgeAtOrBelowLocked(newEdge)
		m.metrics.setPoolHeights(len(m.unfrozenBlocks))
	}
}
