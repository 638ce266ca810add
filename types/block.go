package types

import (
	"crypto/ed25519"
)

// Block is a candidate for a single height of the chain. It is immutable
// once constructed; nothing in package consensus mutates a Block after
// admission.
type Block struct {
	Height                uint64
	Hash                  Hash
	PreviousHash          Hash
	VerificationTimestamp int64 // ms
	MinimumVoteTimestamp  int64 // ms
	BalanceListHash       Hash

	SignerKey ed25519.PublicKey
	Signature []byte
	SignedData []byte // the bytes the signature was computed over

	// CycleDistance is the verifier's position in the cycle schedule at
	// the time this block was produced, lower is preferred. It is set by
	// the execution layer (BalanceEngine/FrozenChain) when the block is
	// built or re-verified; this core never computes it, it only reads
	// it back through ChainScore.
	CycleDistance int64

	// Previous is this block's immediate predecessor, if the codec that
	// decoded it had one on hand (from the pool or the frozen chain). A
	// nil Previous means the predecessor is unknown, not absent.
	Previous *Block
}

// SignatureIsValid checks the block's signature against its signer key.
// A nil block or an unset key is never valid.
func (b *Block) SignatureIsValid() bool {
	if b == nil || len(b.SignerKey) != ed25519.PublicKeySize || len(b.Signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(b.SignerKey, b.SignedData, b.Signature)
}

// ChainScore returns this block's preference score relative to other
// candidates at the same height: lower is preferred. frozenEdgeHeight is
// accepted for parity with the spec's signature and because a future
// cycle-wrap rule may need it, but the current scoring is CycleDistance
// alone — every candidate compared against chain_score is at the same
// height, so frozenEdgeHeight does not itself discriminate between them.
func (b *Block) ChainScore(frozenEdgeHeight uint64) int64 {
	if b == nil {
		return int64(^uint64(0) >> 1) // max int64, least preferred
	}
	return b.CycleDistance
}
