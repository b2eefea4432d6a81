package detect

import (
	"github.com/cuemby/vigil/pkg/log"
	"github.com/cuemby/vigil/pkg/metrics"
	"github.com/rs/zerolog"
)

// StartDetection runs the first-time inspection of sig against flow in
// direction dir: transactional engines, the DCE/RPC payload (if any), and
// the flow-scoped AMATCH list, in that order. appState is the app-layer
// parser's protocol state for flow.Proto (an *httpengine.State and similar); it
// may be nil to represent "no app-layer state yet", which is a normal,
// silent no-op.
//
// The caller must hold flow.Lock() for the duration of this call. A
// non-nil error means a submatcher callback reported an unreachable
// transaction (§7); the remainder of the packet's stateful inspection for
// this flow must be abandoned, not retried.
func (d *Driver) StartDetection(flow *Flow, sig *Signature, dir Direction, appState any) (alerted bool, err error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StartDetectionDuration)

	logger := log.WithFlow(log.WithSignature(d.logger, uint32(sig.ID)), dir.String())

	alerted, err = d.startTransactional(flow, sig, dir, appState, logger)
	if err != nil {
		return alerted, err
	}

	dceAlerted, err := d.startDCE(flow, sig, appState, logger)
	if err != nil {
		return alerted, err
	}
	alerted = alerted || dceAlerted

	flowAlerted, err := d.startFlowScoped(flow, sig, dir, appState, logger)
	if err != nil {
		return alerted, err
	}
	alerted = alerted || flowAlerted

	return alerted, nil
}

// startTransactional is §4.2(A): evaluate sig's transactional submatch
// lists against every transaction from the flow's current inspect-id
// onward, persisting a continuation record where any engine has settled
// something (a match or CANT_MATCH) and more packets could still change
// the outcome.
func (d *Driver) startTransactional(flow *Flow, sig *Signature, dir Direction, appState any, logger zerolog.Logger) (bool, error) {
	proto := flow.Proto
	if appState == nil || !d.Tx.SupportsTxs(proto) {
		return false, nil
	}

	count := d.Tx.GetTxCount(proto, appState)
	inspectID := uint64(d.Tx.GetInspectTxID(proto, appState, dir))
	engines := d.Table.Engines(proto, dir)
	filestoreCandidates := d.Table.FilestoreCandidates(proto, dir)
	alerted := false

	for id := inspectID; id < count; id++ {
		tx, ok := d.Tx.GetTx(proto, appState, TxID(id))
		if !ok {
			continue
		}

		if d.Tx.SupportsTxDetectState(proto) {
			if st := d.Tx.GetTxDetectState(proto, tx); st != nil && find(&st.d(dir).store, sig.ID) != nil {
				continue
			}
		}

		var inspectFlags InspectFlags
		totalMatches := 0
		fileNoMatch := 0
		ranOut := true
		cantMatch := false

		for _, eng := range engines {
			if !sig.HasList(eng.SMList) {
				continue
			}
			result, err := eng.Callback(sig, tx, dir)
			if err != nil {
				metrics.CallbackFailuresTotal.Inc()
				metrics.RecordEngineFailure(err.Error())
				logger.Warn().Err(err).Uint64("tx_id", id).Msg("engine callback failed, aborting packet inspection for flow")
				return alerted, ErrCallbackFailed
			}
			metrics.RecordEngineRecovered()
			metrics.EngineCallsTotal.WithLabelValues(eng.SMList, engineResultLabel(result)).Inc()
			if result == ResultMatch {
				inspectFlags.set(eng.Flag)
				totalMatches++
				continue
			}
			// CANT_MATCH(_FILESTORE) and plain NO_MATCH (data not in yet)
			// both stop the walk here: NO_MATCH means this engine has
			// nothing definitive to say this packet, so the signature's
			// decision for this tx stays open rather than ever resolving
			// to a premature match.
			if result == ResultCantMatch || result == ResultCantMatchFilestore {
				inspectFlags.set(eng.Flag)
				cantMatch = true
				if result == ResultCantMatchFilestore {
					fileNoMatch++
				}
			}
			ranOut = false
			break
		}

		// anyProgress gates persistence: as soon as any engine has told us
		// something (a match recorded, or CANT_MATCH), the record is worth
		// saving so the continue driver can resume from it rather than
		// re-run already-settled engines next packet, even though the walk
		// itself may have broken off on a later engine with nothing yet to
		// say (e.g. a header that hasn't arrived on the wire). Whether the
		// signature is actually decided - and therefore worth alerting on -
		// stays a stricter, separate test: ranOut (every relevant engine
		// ran) with no CANT_MATCH in the mix.
		anyProgress := totalMatches > 0 || cantMatch
		if ranOut && totalMatches > 0 && !cantMatch {
			d.Alert.ApplyActions(sig)
			if !sig.NoAlert {
				alerted = true
				d.Alert.AppendAlert(sig, dir, TxID(id), true, AlertFlagStateMatch|AlertFlagTx)
				metrics.AlertsTotal.WithLabelValues(dir.String()).Inc()
			}
		}

		progress := d.Tx.GetTxProgress(proto, tx, dir)
		completion := d.Tx.GetTxCompletionStatus(proto, dir)
		isLast := id == count-1
		inProgress := progress < completion

		if anyProgress && (!isLast || inProgress) {
			if cantMatch {
				inspectFlags.set(FlagCantMatch)
			}
			if ranOut || cantMatch {
				inspectFlags.set(FlagFullInspect)
				if sig.Filestore {
					inspectFlags.set(fileInspectFlagFor(dir))
				}
			}
			if err := d.persistTxItem(proto, tx, dir, sig.ID, inspectFlags, logger); err != nil {
				return alerted, err
			}
		}

		if sig.Filestore && fileNoMatch > 0 {
			if err := d.accountFilestore(proto, tx, flow, dir, TxID(id), fileNoMatch, filestoreCandidates); err != nil {
				return alerted, err
			}
		}
	}

	return alerted, nil
}

// persistTxItem appends a new Item to tx's direction store, creating the
// transaction's detect state on first use (§3 lifecycle: "created lazily
// when the start driver first needs to persist a record"). A signature
// appears at most once per TxState direction (§3 invariant 2): the start
// driver only ever appends the first time, so a second candidate firing
// for the same signature on the same transaction/direction is a no-op
// here, the existing record is left for the continue driver to advance.
func (d *Driver) persistTxItem(proto AppProto, tx any, dir Direction, sid SignatureID, flags InspectFlags, logger zerolog.Logger) error {
	st, err := d.txState(proto, tx)
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}
	ds := st.d(dir)
	if find(&ds.store, sid) != nil {
		return nil
	}
	rec, ok := ds.store.append()
	if !ok {
		metrics.RecordAppendFailuresTotal.Inc()
		logger.Warn().Msg("dropped tx detect record, chunk allocation failed")
		return nil
	}
	metrics.RecordsAppendedTotal.WithLabelValues("tx").Inc()
	rec.SID = sid
	rec.Flags = flags
	return nil
}

// accountFilestore folds fileNoMatch declines into the transaction's
// direction filestore counter and, once every filestore-candidate
// signature for this protocol/direction has declined, disables file
// storing for the transaction (§4.2(A) "File handling").
func (d *Driver) accountFilestore(proto AppProto, tx any, flow *Flow, dir Direction, id TxID, fileNoMatch, candidates int) error {
	st, err := d.txState(proto, tx)
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}
	ds := st.d(dir)
	ds.filestoreCnt += fileNoMatch
	if candidates > 0 && ds.filestoreCnt >= candidates && !ds.flags.has(DirFlagFileStoreDisabled) {
		ds.flags.set(DirFlagFileStoreDisabled)
		d.Files.DisableFileStoreForTx(flow, dir, id)
		metrics.FilestoreDisabledTotal.Inc()
		metrics.RecordFilestoreDisabled()
	}
	return nil
}

// startDCE is §4.2(B). DCE/RPC matches never persist a continuation
// record, the same as the original engine's DCE/RPC path (whether that
// was deliberate there is an open question; the behavior is kept as is),
// so this either alerts now or not at all; there is nothing to resume on a
// later packet.
func (d *Driver) startDCE(flow *Flow, sig *Signature, appState any, logger zerolog.Logger) (bool, error) {
	if d.DCE == nil || sig.DCE == nil || appState == nil {
		return false, nil
	}
	dceState, ok := d.DCE.DCEState(flow.Proto, appState)
	if !ok {
		return false, nil
	}
	matched, err := d.DCE.InspectDCEPayload(sig, dceState)
	if err != nil {
		metrics.CallbackFailuresTotal.Inc()
		metrics.RecordEngineFailure(err.Error())
		logger.Warn().Err(err).Msg("dce payload callback failed, aborting packet inspection for flow")
		return false, ErrCallbackFailed
	}
	metrics.RecordEngineRecovered()
	if !matched {
		return false, nil
	}
	d.Alert.ApplyActions(sig)
	if !sig.NoAlert {
		d.Alert.AppendAlert(sig, ToServer, 0, false, 0)
		metrics.AlertsTotal.WithLabelValues(ToServer.String()).Inc()
		return true, nil
	}
	return false, nil
}

// startFlowScoped is §4.2(C): walk sig's AMATCH list from the beginning
// and unconditionally persist a FlowItem recording how far the walk got,
// even on a plain no-match, the fine-grained per-submatch cursor is the
// whole point of the flow-scoped path. Like the transactional branch, a
// signature appears at most once per FlowState direction (§3 invariant 2);
// a second candidate firing for an already-tracked signature is left for
// the continue driver to advance from its stored cursor.
func (d *Driver) startFlowScoped(flow *Flow, sig *Signature, dir Direction, appState any, logger zerolog.Logger) (bool, error) {
	if len(sig.AMatch) == 0 {
		return false, nil
	}
	if fs := flow.FlowStateOrNil(); fs != nil && find(&fs.d(dir).store, sig.ID) != nil {
		return false, nil
	}

	result, cursor, err := walkFlowSubmatches(sig, appState, 0)
	if err != nil {
		metrics.CallbackFailuresTotal.Inc()
		metrics.RecordEngineFailure(err.Error())
		logger.Warn().Err(err).Msg("flow submatch callback failed, aborting packet inspection for flow")
		return false, ErrCallbackFailed
	}
	metrics.RecordEngineRecovered()

	fs := flow.FlowStateOrCreate()
	ds := fs.d(dir)
	rec, ok := ds.store.append()
	if !ok {
		metrics.RecordAppendFailuresTotal.Inc()
		logger.Warn().Msg("dropped flow detect record, chunk allocation failed")
		return result == FlowSubMatchMatch, nil
	}
	metrics.RecordsAppendedTotal.WithLabelValues("flow").Inc()

	rec.SID = sig.ID
	rec.NM = cursor
	switch result {
	case FlowSubMatchMatch:
		rec.Flags.set(FlagFullInspect)
	case FlowSubMatchCantMatch:
		rec.Flags.set(FlagCantMatch | FlagFullInspect)
	}

	fs.detectALVersion[dir.idx()]++

	if result == FlowSubMatchMatch {
		d.Alert.ApplyActions(sig)
		if !sig.NoAlert {
			d.Alert.AppendAlert(sig, dir, 0, false, AlertFlagStateMatch)
			metrics.AlertsTotal.WithLabelValues(dir.String()).Inc()
			return true, nil
		}
	}
	return false, nil
}

// walkFlowSubmatches evaluates sig's AMATCH list starting at index start,
// stopping at the first suspend or CANT_MATCH result. It is shared between
// the start driver (start=0) and the continue driver (start=item.NM).
func walkFlowSubmatches(sig *Signature, appState any, start int) (FlowSubMatchResult, flowSubmatchCursor, error) {
	for i := start; i < len(sig.AMatch); i++ {
		result, err := sig.AMatch[i].Callback(appState)
		if err != nil {
			return 0, noCursor, err
		}
		switch result {
		case FlowSubMatchMatch:
			continue
		case FlowSubMatchSuspend:
			return FlowSubMatchSuspend, flowSubmatchCursor(i), nil
		case FlowSubMatchCantMatch:
			return FlowSubMatchCantMatch, flowSubmatchCursor(i), nil
		}
	}
	return FlowSubMatchMatch, noCursor, nil
}

func engineResultLabel(r EngineResult) string {
	switch r {
	case ResultMatch:
		return "match"
	case ResultCantMatch:
		return "cant_match"
	case ResultCantMatchFilestore:
		return "cant_match_filestore"
	default:
		return "no_match"
	}
}
