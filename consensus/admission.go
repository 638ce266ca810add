package consensus

import (
	"fmt"

	"github.com/blockberries/freezeguard/types"
)

// nopDiagnosticSink is used when the caller passes a nil sink.
type nopDiagnosticSink struct{}

func (nopDiagnosticSink) Record(string) {}

// Admit validates block and, if it passes every check, registers it into
// the pool. Rejections are silent to the caller (returns false); anything
// worth investigating is written to diag instead of logged at a noisy
// level (spec.md §7).
func (m *Manager) Admit(block *types.Block, diag types.DiagnosticSink) bool {
	if diag == nil {
		diag = nopDiagnosticSink{}
	}

	if block == nil {
		diag.Record("nil block")
		return false
	}

	frozenEdge := m.chain.FrozenEdgeHeight()
	if block.Height <= frozenEdge {
		m.metrics.rejected("stale_height")
		return false
	}
	if block.Height > m.chain.OpenEdgeHeight(true) {
		m.metrics.rejected("future_height")
		return false
	}
	if !block.SignatureIsValid() {
		m.metrics.rejected("invalid_signature")
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getLocked(block.Height, block.Hash) != nil {
		m.metrics.rejected("duplicate")
		return false
	}

	if block.Previous != nil &&
		block.Previous.VerificationTimestamp > block.VerificationTimestamp-m.cfg.MinVerificationInterval.Milliseconds() {
		m.metrics.rejected("verification_interval")
		return false
	}

	balanceHash, err := m.balances.BalanceListHash(block)
	if err != nil {
		m.metrics.rejected("balance_list_error")
		diag.Record(fmt.Sprintf("height %d hash %s: balance list computation failed: %v", block.Height, block.Hash, err))
		return false
	}
	if balanceHash != block.BalanceListHash {
		m.metrics.rejected("balance_list_mismatch")
		diag.Record(fmt.Sprintf("height %d hash %s: balance list hash mismatch", block.Height, block.Hash))
		return false
	}

	m.register(block.Height, block.Hash, block)
	m.metrics.admitted()
	m.metrics.setPoolHeights(len(m.unfrozenBlocks))
	return true
}
