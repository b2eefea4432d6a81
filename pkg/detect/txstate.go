package detect

// TxState is the detect-side state owned by one application-layer
// transaction instance (C3): two per-direction transactional stores. The
// app-layer parser owns its lifetime, it is created lazily by the start
// driver the first time it needs to persist a record for this transaction,
// and destroyed by the parser when the transaction itself is freed.
type TxState struct {
	dir [2]txDirState
}

// NewTxState allocates an empty transaction detect state. Callers normally
// don't call this directly, the start driver calls Driver.txState,
// which lazily allocates one the first time a record needs to be
// persisted, but it is exported so an app-layer parser's set-hook can
// construct one explicitly if desired.
func NewTxState() *TxState {
	return &TxState{}
}

func (t *TxState) d(dir Direction) *txDirState {
	return &t.dir[dir.idx()]
}

// ResetDirection zeroes the given direction's counters/flags (not its
// chunks). This is the "reset" lifecycle operation (C7), scoped to a
// direction mask supplied by the caller.
func (t *TxState) ResetDirection(dir Direction) {
	t.d(dir).reset()
}

// Reset zeroes both directions; used by reset_txs.
func (t *TxState) Reset() {
	t.dir[0].reset()
	t.dir[1].reset()
}

// NoteNewFile records that a new file arrived on this transaction in dir,
// for the continue driver's file re-open rule to observe on the next call.
func (t *TxState) NoteNewFile(dir Direction) {
	t.d(dir).flags.set(fileNewFlagFor(dir))
}

// consumeNewFile reports and clears whether a new file arrived on this
// transaction in dir since the last continue pass.
func (t *TxState) consumeNewFile(dir Direction) bool {
	d := t.d(dir)
	v := d.flags.has(fileNewFlagFor(dir))
	d.flags.clear(fileNewFlagFor(dir))
	return v
}
