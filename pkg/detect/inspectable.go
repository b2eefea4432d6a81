package detect

// HasInspectableState is has_inspectable_state (§4.4): before invoking
// ContinueDetection, the caller asks whether there is anything worth
// doing on this flow for dir. appVersion is the app-layer protocol
// version the caller observed for dir; the caller is responsible for
// treating a STREAM_EOF condition as if this returned 1 regardless of
// what it actually reports, per §4.4's "skip unless STREAM_EOF" note.
//
// Returns 0 if there are no stored records at all in dir, 1 if there are
// and the app-layer has advanced since detectALVersion was last written,
// or 2 if there are records but nothing has changed since.
func (d *Driver) HasInspectableState(flow *Flow, dir Direction, appVersion uint64, appState any) int {
	fs := flow.FlowStateOrNil()
	hasFlowRecords := fs != nil && fs.d(dir).store.cnt > 0
	hasTxRecords := d.hasTxRecords(flow, dir, appState)

	if !hasFlowRecords && !hasTxRecords {
		return 0
	}
	if fs == nil || appVersion != fs.detectALVersion[dir.idx()] {
		return 1
	}
	return 2
}

// hasTxRecords reports whether any transaction from the flow's current
// inspect-id onward carries a non-empty detect state in dir.
func (d *Driver) hasTxRecords(flow *Flow, dir Direction, appState any) bool {
	proto := flow.Proto
	if appState == nil || !d.Tx.SupportsTxs(proto) || !d.Tx.SupportsTxDetectState(proto) {
		return false
	}

	count := d.Tx.GetTxCount(proto, appState)
	inspectID := uint64(d.Tx.GetInspectTxID(proto, appState, dir))
	for id := inspectID; id < count; id++ {
		tx, ok := d.Tx.GetTx(proto, appState, TxID(id))
		if !ok {
			continue
		}
		if st := d.Tx.GetTxDetectState(proto, tx); st != nil && st.d(dir).store.cnt > 0 {
			return true
		}
	}
	return false
}
