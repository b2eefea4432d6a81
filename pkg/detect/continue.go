package detect

import (
	"github.com/cuemby/vigil/pkg/log"
	"github.com/cuemby/vigil/pkg/metrics"
	"github.com/rs/zerolog"
)

// ContinueDetection advances every record already stored for flow in
// direction dir against freshly-arrived application-layer state: §4.3's
// transactional walk, then the flow-scoped walk. Callers are expected to
// have already consulted HasInspectableState to decide this call is
// worth making.
//
// The caller must hold flow.Lock() for the duration of this call.
func (d *Driver) ContinueDetection(flow *Flow, dir Direction, appState any) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ContinueDetectionDuration)

	logger := log.WithFlow(d.logger, dir.String())

	if err := d.continueTransactional(flow, dir, appState, logger); err != nil {
		return err
	}
	return d.continueFlowScoped(flow, dir, appState, logger)
}

// continueTransactional is §4.3's transactional walk: advance every
// stored Item from the flow's current inspect-id onward, halting after
// the first transaction still in progress since later transactions
// cannot yet be advanced past it.
func (d *Driver) continueTransactional(flow *Flow, dir Direction, appState any, logger zerolog.Logger) error {
	proto := flow.Proto
	if appState == nil || !d.Tx.SupportsTxs(proto) || !d.Tx.SupportsTxDetectState(proto) {
		return nil
	}

	count := d.Tx.GetTxCount(proto, appState)
	inspectID := uint64(d.Tx.GetInspectTxID(proto, appState, dir))
	completion := d.Tx.GetTxCompletionStatus(proto, dir)
	engines := d.Table.Engines(proto, dir)

	for id := inspectID; id < count; id++ {
		tx, ok := d.Tx.GetTx(proto, appState, TxID(id))
		if !ok {
			continue
		}

		st := d.Tx.GetTxDetectState(proto, tx)
		if st == nil {
			continue
		}

		progress := d.Tx.GetTxProgress(proto, tx, dir)
		inProgress := progress < completion

		if err := d.continueTxDirection(st, tx, TxID(id), dir, engines, logger); err != nil {
			return err
		}

		if inProgress {
			break
		}
	}

	return nil
}

// continueTxDirection advances every Item stored in st.dir[dir], applying
// the FULL_INSPECT/CANT_MATCH re-open carve-out before running any
// engine whose bit isn't already set on the record.
func (d *Driver) continueTxDirection(st *TxState, tx any, id TxID, dir Direction, engines []Engine, logger zerolog.Logger) error {
	ds := st.d(dir)
	fileBit := fileInspectFlagFor(dir)
	newFileArrived := ds.flags.has(fileNewFlagFor(dir))

	var callbackErr error
	ds.store.iter(func(i int, rec *Item) bool {
		terminal := rec.Flags.has(FlagFullInspect) || rec.Flags.has(FlagCantMatch)
		if terminal {
			reopen := rec.Flags.has(fileBit) && newFileArrived
			if !reopen {
				return true
			}
			rec.Flags.clear(fileBit)
			rec.Flags.clear(FlagFullInspect)
			rec.Flags.clear(FlagCantMatch)
			for _, eng := range engines {
				if eng.FileEngine {
					rec.Flags.clear(eng.Flag)
				}
			}
		}

		sig, ok := d.Sigs.Signature(rec.SID)
		if !ok {
			return true
		}

		if err := d.runTxEngines(sig, tx, id, dir, rec, engines, logger); err != nil {
			callbackErr = err
			return false
		}
		return true
	})
	if callbackErr != nil {
		return callbackErr
	}

	if newFileArrived {
		st.consumeNewFile(dir)
	}
	return nil
}

// runTxEngines is the per-record half of §4.3's "Run engines" step: only
// engines whose bit is not yet set on rec and whose list sig populated
// run. A plain NO_MATCH halts the walk exactly like CANT_MATCH does
// (there is nothing definitive to resume from yet), it simply doesn't
// set CANT_MATCH; only a full, unbroken walk through every remaining
// engine (ranOut) can close out the signature on this record.
func (d *Driver) runTxEngines(sig *Signature, tx any, id TxID, dir Direction, rec *Item, engines []Engine, logger zerolog.Logger) error {
	totalMatches := 0
	cantMatch := false
	fileNoMatch := 0
	ranOut := true

	for _, eng := range engines {
		if rec.Flags.has(eng.Flag) || !sig.HasList(eng.SMList) {
			continue
		}
		result, err := eng.Callback(sig, tx, dir)
		if err != nil {
			metrics.CallbackFailuresTotal.Inc()
			metrics.RecordEngineFailure(err.Error())
			logger.Warn().Err(err).Uint32("sid", uint32(rec.SID)).Msg("engine callback failed, aborting packet inspection for flow")
			return ErrCallbackFailed
		}
		metrics.RecordEngineRecovered()
		metrics.EngineCallsTotal.WithLabelValues(eng.SMList, engineResultLabel(result)).Inc()
		if result == ResultMatch {
			rec.Flags.set(eng.Flag)
			totalMatches++
			continue
		}
		if result == ResultCantMatch || result == ResultCantMatchFilestore {
			rec.Flags.set(eng.Flag)
			cantMatch = true
			if result == ResultCantMatchFilestore {
				fileNoMatch++
			}
		}
		ranOut = false
		break
	}

	if totalMatches > 0 && (ranOut || cantMatch) {
		rec.Flags.set(FlagFullInspect)
		if sig.Filestore {
			rec.Flags.set(fileInspectFlagFor(dir))
		}
	}
	if cantMatch {
		rec.Flags.set(FlagCantMatch)
		if sig.Filestore {
			rec.Flags.set(fileInspectFlagFor(dir))
		}
	}
	if totalMatches > 0 && ranOut {
		d.Alert.ApplyActions(sig)
		if !sig.NoAlert {
			d.Alert.AppendAlert(sig, dir, id, true, AlertFlagStateMatch|AlertFlagTx)
			metrics.AlertsTotal.WithLabelValues(dir.String()).Inc()
		}
	}

	_ = fileNoMatch // filestore accounting for continuations is not modeled; see DESIGN.md
	return nil
}

// continueFlowScoped is §4.3's flow-scoped walk: resume every stored
// FlowItem not already terminal from its cursor.
func (d *Driver) continueFlowScoped(flow *Flow, dir Direction, appState any, logger zerolog.Logger) error {
	fs := flow.FlowStateOrNil()
	if fs == nil {
		return nil
	}
	ds := fs.d(dir)

	var callbackErr error
	ds.store.iter(func(i int, rec *FlowItem) bool {
		if rec.Flags.has(FlagFullInspect) || rec.Flags.has(FlagCantMatch) {
			return true
		}

		sig, ok := d.Sigs.Signature(rec.SID)
		if !ok {
			return true
		}

		result, cursor, err := walkFlowSubmatches(sig, appState, int(rec.NM))
		if err != nil {
			metrics.CallbackFailuresTotal.Inc()
			metrics.RecordEngineFailure(err.Error())
			logger.Warn().Err(err).Uint32("sid", uint32(rec.SID)).Msg("flow submatch callback failed, aborting packet inspection for flow")
			callbackErr = ErrCallbackFailed
			return false
		}
		metrics.RecordEngineRecovered()

		rec.NM = cursor
		switch result {
		case FlowSubMatchMatch:
			rec.Flags.set(FlagFullInspect)
			d.Alert.ApplyActions(sig)
			if !sig.NoAlert {
				d.Alert.AppendAlert(sig, dir, 0, false, AlertFlagStateMatch)
				metrics.AlertsTotal.WithLabelValues(dir.String()).Inc()
			}
		case FlowSubMatchCantMatch:
			rec.Flags.set(FlagCantMatch | FlagFullInspect)
		}
		return true
	})
	if callbackErr != nil {
		return callbackErr
	}

	fs.detectALVersion[dir.idx()]++
	return nil
}
