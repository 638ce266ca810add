package consensus

import (
	"bytes"
	"sort"
	"sync"

	"github.com/blockberries/freezeguard/types"
)

// bootstrapVoteKey identifies one (tip_hash, tip_height) answer in a
// BootstrapTally.
type bootstrapVoteKey struct {
	hash        types.Hash
	startHeight uint64
}

// BootstrapTally tallies peer (tip_hash, tip_height) votes during startup
// sync (spec.md §4.6). It carries its own lock, independent of Manager's,
// because a node may run several bootstrap attempts before joining the
// mesh and none of them touch the candidate pool.
type BootstrapTally struct {
	mu     sync.Mutex
	voted  map[types.Hash]struct{}
	counts map[bootstrapVoteKey]int
}

// NewBootstrapTally creates an empty tally for one bootstrap attempt.
func NewBootstrapTally() *BootstrapTally {
	return &BootstrapTally{
		voted:  make(map[types.Hash]struct{}),
		counts: make(map[bootstrapVoteKey]int),
	}
}

// Vote records voterID's vote for (hash, startHeight). A voter's first
// vote is binding; later votes from the same identifier are ignored
// (spec.md §4.6, P5).
func (t *BootstrapTally) Vote(voterID, hash types.Hash, startHeight uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.voted[voterID]; ok {
		return
	}
	t.voted[voterID] = struct{}{}
	t.counts[bootstrapVoteKey{hash: hash, startHeight: startHeight}]++
}

// TotalVotes returns the sum of every recorded vote.
func (t *BootstrapTally) TotalVotes() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}

// Winner returns the most-voted (hash, startHeight) and its vote count.
// Ties are broken deterministically by sorting candidates on
// (hash, startHeight) rather than relying on map iteration order (spec.md
// §9, Open Question: "a port should sort ... to make tests reproducible").
func (t *BootstrapTally) Winner() (hash types.Hash, startHeight uint64, votes int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.counts) == 0 {
		return types.Hash{}, 0, 0
	}

	keys := make([]bootstrapVoteKey, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if cmp := bytes.Compare(keys[i].hash[:], keys[j].hash[:]); cmp != 0 {
			return cmp < 0
		}
		return keys[i].startHeight < keys[j].startHeight
	})

	best := keys[0]
	bestVotes := t.counts[best]
	for _, k := range keys[1:] {
		if t.counts[k] > bestVotes {
			best = k
			bestVotes = t.counts[k]
		}
	}

	return best.hash, best.startHeight, bestVotes
}
