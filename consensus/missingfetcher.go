package consensus

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/blockberries/freezeguard/types"
)

type fetchKey struct {
	height uint64
	hash   types.Hash
}

// Sweep requests every block peers have voted for at an unfrozen height
// that this node does not hold (spec.md §4.5). Requests fan out
// concurrently, bounded by cfg.MaxConcurrentFetches.
func (m *Manager) Sweep(ctx context.Context) error {
	missing := m.missingVotedBlocks()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxConcurrentFetches)

	for _, want := range missing {
		want := want
		g.Go(func() error {
			m.Fetch(ctx, want.height, want.hash)
			return nil
		})
	}

	return g.Wait()
}

func (m *Manager) missingVotedBlocks() []fetchKey {
	m.mu.Lock()
	defer m.mu.Unlock()

	frozenEdge := m.chain.FrozenEdgeHeight()

	var missing []fetchKey
	for _, height := range m.votes.Heights() {
		if height <= frozenEdge {
			continue
		}
		for _, hash := range m.votes.HashesFor(height) {
			if m.getLocked(height, hash) == nil {
				missing = append(missing, fetchKey{height, hash})
			}
		}
	}
	return missing
}

// Fetch requests a single (height, hash) from a random peer and, if the
// response matches, submits it to Admission. Mismatched or absent
// responses are silently dropped (spec.md §7).
func (m *Manager) Fetch(ctx context.Context, height uint64, hash types.Hash) {
	key := fetchKey{height, hash}

	if v, ok := m.fetchInFlight.Get(key); ok {
		if requestedAt, ok := v.(time.Time); ok && time.Since(requestedAt) < m.cfg.FetchDedupeWindow {
			return
		}
	}
	m.fetchInFlight.Add(key, time.Now())
	m.metrics.fetchIssued()

	resp, err := m.mesh.FetchBlock(ctx, types.MissingBlockRequest{Height: height, Hash: hash})
	if err != nil {
		m.logger.Debug().Err(err).Uint64("height", height).Str("hash", hash.String()).Msg("missing block fetch failed")
		return
	}
	if resp.Block == nil || resp.Block.Hash != hash {
		return
	}

	m.Admit(resp.Block, nil)
}
