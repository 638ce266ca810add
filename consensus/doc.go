// Package consensus implements the unfrozen-block pool and the vote-driven
// state machine that promotes one candidate per height to the frozen
// chain tip.
//
// # Core Components
//
// Manager: owns the pool of unfrozen blocks and the override maps behind a
// single mutex, and exposes the five worker-facing operations below as
// methods. There is no module-scope state; every Manager is independent,
// so tests can run many in parallel.
//
// Admit: validates and registers a newly observed candidate block.
//
// UpdateVote: computes this node's vote for frozen_edge_height + 1 and
// broadcasts it if it changed.
//
// AttemptToFreeze: detects a stable super-majority for frozen_edge_height + 1,
// promotes it via FrozenChain, and reclaims pool memory.
//
// Sweep / Fetch: request blocks that peers have voted for but this node
// does not hold.
//
// BootstrapTally: a standalone, independently-locked tally of peer
// (tip_hash, tip_height) votes used only during startup sync.
//
// # Concurrency
//
// Admit, UpdateVote, AttemptToFreeze, Sweep/Fetch's response handler, and
// the override setters/getters all take the same Manager mutex. The 500ms
// dwell inside AttemptToFreeze releases it before sleeping and reacquires
// it after, so a freeze attempt never blocks the others for half a second.
package consensus
