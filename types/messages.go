package types

// BlockVote is broadcast whenever a node changes its vote for a height.
type BlockVote struct {
	Height    uint64
	Hash      Hash
	Timestamp int64 // ms
}

// MissingBlockRequest asks a peer for a block this node has heard voted
// for but does not hold.
type MissingBlockRequest struct {
	Height uint64
	Hash   Hash
}

// MissingBlockResponse carries the peer's answer. Block is nil if the
// peer does not have it either.
type MissingBlockResponse struct {
	Block *Block
}
