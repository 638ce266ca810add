package types

import "context"

// FrozenChain persists the canonical chain and reports its edges. It is
// authoritative: the frozen edge it reports is final and never reorganized
// by anything in this module.
type FrozenChain interface {
	// FrozenEdgeHeight is the highest height already committed.
	FrozenEdgeHeight() uint64
	// Freeze commits b as the canonical block for its height. Implementations
	// advance FrozenEdgeHeight synchronously before returning.
	Freeze(b *Block) error
	// InGenesisCycle reports whether the node is still in the bootstrap
	// regime where the validator set tracks mesh membership.
	InGenesisCycle() bool
	// CurrentCycleLength is the voting pool size outside the genesis cycle.
	CurrentCycleLength() int
	// OpenEdgeHeight is a lenient upper bound on plausible block heights.
	// lenient widens the bound further, for nodes that may be behind.
	OpenEdgeHeight(lenient bool) uint64
}

// BalanceEngine recomputes the balance list implied by a candidate block.
type BalanceEngine interface {
	// BalanceListHash returns the hash of the balance list for b, or an
	// error if the list cannot be computed (e.g. an invalid transaction).
	BalanceListHash(b *Block) (Hash, error)
}

// VoteRegistry stores peer votes for unfrozen heights. It is externally
// synchronized; this module only reads and writes through its methods.
type VoteRegistry interface {
	// LeadingHash returns the most-voted hash at height and its vote count.
	LeadingHash(height uint64) (hash Hash, votes int)
	// LocalVote returns this node's current vote at height, if any.
	LocalVote(height uint64) (hash Hash, ok bool)
	// RegisterVote records voter's vote, including this node's own.
	RegisterVote(voter Hash, vote BlockVote)
	// Heights returns every height with at least one recorded vote.
	Heights() []uint64
	// HashesFor returns every hash voted for at height.
	HashesFor(height uint64) []Hash
}

// MeshTransport broadcasts votes and fetches blocks from peers.
type MeshTransport interface {
	BroadcastVote(vote BlockVote)
	// FetchBlock asks a random peer for (height, hash) and returns its
	// response, or an error if the request could not be sent/answered.
	FetchBlock(ctx context.Context, req MissingBlockRequest) (MissingBlockResponse, error)
}

// NodeRegistry reports mesh membership, used for genesis-cycle voting pool
// sizing.
type NodeRegistry interface {
	MeshSize() int
}

// Clock supplies wall-clock time so voting and freezing logic is testable
// without real sleeps.
type Clock interface {
	NowMillis() int64
	Sleep(d int64) // milliseconds
}

// DiagnosticSink receives human-readable reasons for admission rejections
// that are not part of normal adversarial noise (e.g. a balance-list
// mismatch worth investigating). It is an out-parameter, not an error
// return: Admission always returns a plain bool.
type DiagnosticSink interface {
	Record(reason string)
}
