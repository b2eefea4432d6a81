package detect

// txState returns the TxState already attached to tx, allocating and
// attaching one on first use. Returns (nil, nil) when the protocol does
// not support a detect-state slot at all (SupportsTxDetectState false):
// callers treat that as "nothing to persist here", not an error.
//
// A non-nil error here is the bug-check condition from §7: the parser
// promised a detect-state slot and then refused to hold one.
func (d *Driver) txState(proto AppProto, tx any) (*TxState, error) {
	if !d.Tx.SupportsTxDetectState(proto) {
		return nil, nil
	}
	if st := d.Tx.GetTxDetectState(proto, tx); st != nil {
		return st, nil
	}
	st := NewTxState()
	if err := d.Tx.SetTxDetectState(proto, tx, st); err != nil {
		d.logger.Fatal().Err(err).Msg("set_tx_detect_state failed while supported, core state is inconsistent")
		return nil, err
	}
	return st, nil
}

// ResetTxs is reset_txs: on engine reload, zero the detect-state counters
// and flags (not the chunks themselves) of every live transaction from
// the lower of the flow's two inspect-ids up to the transaction count.
func (d *Driver) ResetTxs(flow *Flow, appState any) {
	proto := flow.Proto
	if appState == nil || !d.Tx.SupportsTxs(proto) || !d.Tx.SupportsTxDetectState(proto) {
		return
	}

	start := d.Tx.GetInspectTxID(proto, appState, ToServer)
	if tc := d.Tx.GetInspectTxID(proto, appState, ToClient); tc < start {
		start = tc
	}

	count := d.Tx.GetTxCount(proto, appState)
	for id := uint64(start); id < count; id++ {
		tx, ok := d.Tx.GetTx(proto, appState, TxID(id))
		if !ok {
			continue
		}
		if st := d.Tx.GetTxDetectState(proto, tx); st != nil {
			st.Reset()
		}
	}
}

// Reset is reset, scoped to a direction mask: clears the flow-scoped
// detect state in the given directions (used on transaction closure, not
// engine reload, unlike ResetTxs).
func (d *Driver) Reset(flow *Flow, dirs ...Direction) {
	fs := flow.FlowStateOrNil()
	if fs == nil {
		return
	}
	for _, dir := range dirs {
		fs.ResetDirection(dir)
	}
}

// UpdateInspectTxID is update_inspect_tx_id: forwarded to the app-layer
// parser under the flow lock, advancing the lowest transaction id still
// subject to inspection in dir.
func (d *Driver) UpdateInspectTxID(flow *Flow, appState any, dir Direction, id TxID) {
	d.Tx.SetInspectTxID(flow.Proto, appState, dir, id)
}
