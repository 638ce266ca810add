// Package types defines the data shared between a verifier node and the
// collaborators it depends on: the block and hash value types, the vote
// and fetch wire messages, and the interfaces for the systems this module
// treats as external (frozen-chain storage, balance recomputation, vote
// tallying, mesh transport, mesh membership, and the wall clock). Signature
// verification is not a collaborator: a Block checks its own ed25519
// signature.
//
// Nothing in this package knows about admission policy, eviction, voting,
// or freezing; that lives in package consensus. types only describes what
// a block and a vote look like, and what shape a collaborator must have.
package types
