package detect

// Shared test doubles for the transactional/flow-scoped driver tests in
// this package: a minimal app-layer provider, engine table, and sink
// implementation, all scripted by the test rather than parsing any real
// protocol, to exercise the core's control flow directly.

const fakeProto AppProto = 99
const fakeCompletion = 10

// fakeTx is one scripted transaction. results holds a queue of outcomes
// per engine name; each engine callback pops the next queued result
// (repeating the last one once the queue is drained), so a test can
// script "suspend on packet 1, match on packet 2" by appending results
// between driver calls.
type fakeTx struct {
	id       int
	progress int
	detect   *TxState
	results  map[string][]EngineResult
	calls    map[string]int
}

func newFakeTx(id int) *fakeTx {
	return &fakeTx{id: id, results: map[string][]EngineResult{}, calls: map[string]int{}}
}

func (tx *fakeTx) script(list string, results ...EngineResult) *fakeTx {
	tx.results[list] = append(tx.results[list], results...)
	return tx
}

func (tx *fakeTx) next(list string) EngineResult {
	q := tx.results[list]
	if len(q) == 0 {
		return ResultNoMatch
	}
	i := tx.calls[list]
	if i >= len(q) {
		i = len(q) - 1
	}
	tx.calls[list]++
	return q[i]
}

// fakeState is the scripted app-layer state for one flow.
type fakeState struct {
	txs       []*fakeTx
	inspectID [2]TxID
}

func newFakeState(n int) *fakeState {
	s := &fakeState{}
	for i := 0; i < n; i++ {
		s.txs = append(s.txs, newFakeTx(i))
	}
	return s
}

type fakeProvider struct{}

func (fakeProvider) SupportsTxs(proto AppProto) bool { return proto == fakeProto }

func (fakeProvider) GetTxCount(proto AppProto, state any) uint64 {
	return uint64(len(state.(*fakeState).txs))
}

func (fakeProvider) GetTx(proto AppProto, state any, id TxID) (any, bool) {
	s := state.(*fakeState)
	idx := int(id)
	if idx < 0 || idx >= len(s.txs) {
		return nil, false
	}
	return s.txs[idx], true
}

func (fakeProvider) GetTxProgress(proto AppProto, tx any, dir Direction) int {
	return tx.(*fakeTx).progress
}

func (fakeProvider) GetTxCompletionStatus(proto AppProto, dir Direction) int {
	return fakeCompletion
}

func (fakeProvider) SupportsTxDetectState(proto AppProto) bool { return proto == fakeProto }

func (fakeProvider) GetTxDetectState(proto AppProto, tx any) *TxState {
	return tx.(*fakeTx).detect
}

func (fakeProvider) SetTxDetectState(proto AppProto, tx any, st *TxState) error {
	tx.(*fakeTx).detect = st
	return nil
}

func (fakeProvider) GetInspectTxID(proto AppProto, state any, dir Direction) TxID {
	return state.(*fakeState).inspectID[dir.idx()]
}

func (fakeProvider) SetInspectTxID(proto AppProto, state any, dir Direction, id TxID) {
	state.(*fakeState).inspectID[dir.idx()] = id
}

// fakeTable is a fixed two-engine table: "a" owns the lowest engine bit,
// "b" the next one up.
type fakeTable struct {
	candidates int
}

var fakeEngines = []Engine{
	{SMList: "a", Flag: EngineFlagBase << 0, FileEngine: true, Callback: func(sig *Signature, tx any, dir Direction) (EngineResult, error) {
		return tx.(*fakeTx).next("a"), nil
	}},
	{SMList: "b", Flag: EngineFlagBase << 1, Callback: func(sig *Signature, tx any, dir Direction) (EngineResult, error) {
		return tx.(*fakeTx).next("b"), nil
	}},
}

func (f fakeTable) Engines(proto AppProto, dir Direction) []Engine { return fakeEngines }

func (f fakeTable) FilestoreCandidates(proto AppProto, dir Direction) int { return f.candidates }

// fakeSigs is a plain signature registry.
type fakeSigs map[SignatureID]*Signature

func (s fakeSigs) Signature(sid SignatureID) (*Signature, bool) {
	sig, ok := s[sid]
	return sig, ok
}

// fakeAlertSink records every AppendAlert/ApplyActions call it receives.
type fakeAlertSink struct {
	alerts  []fakeAlert
	applied []SignatureID
}

type fakeAlert struct {
	sid     SignatureID
	dir     Direction
	txID    TxID
	hasTxID bool
	flags   AlertFlags
}

func (s *fakeAlertSink) AppendAlert(sig *Signature, dir Direction, txID TxID, hasTxID bool, flags AlertFlags) {
	s.alerts = append(s.alerts, fakeAlert{sid: sig.ID, dir: dir, txID: txID, hasTxID: hasTxID, flags: flags})
}

func (s *fakeAlertSink) ApplyActions(sig *Signature) {
	s.applied = append(s.applied, sig.ID)
}

// fakeFiles records every DisableFileStoreForTx call it receives.
type fakeFiles struct {
	disabled []TxID
}

func (f *fakeFiles) DisableFileStoreForTx(flow *Flow, dir Direction, txID TxID) {
	f.disabled = append(f.disabled, txID)
}

// fakeDCE is a scripted DCEProvider: state and outcome are fixed once at
// construction, since the tests that use it only ever run a single call.
type fakeDCE struct {
	hasState bool
	matched  bool
	err      error
}

func (d fakeDCE) DCEState(proto AppProto, tx any) (any, bool) {
	if !d.hasState {
		return nil, false
	}
	return tx, true
}

func (d fakeDCE) InspectDCEPayload(sig *Signature, dceState any) (bool, error) {
	return d.matched, d.err
}

// harness bundles one flow's worth of fake collaborators.
type fakeHarness struct {
	driver *Driver
	flow   *Flow
	state  *fakeState
	alerts *fakeAlertSink
	files  *fakeFiles
	sigs   fakeSigs
	table  fakeTable
}

func newFakeHarness(candidates int, sigs fakeSigs) *fakeHarness {
	h := &fakeHarness{
		flow:   NewFlow(fakeProto),
		alerts: &fakeAlertSink{},
		files:  &fakeFiles{},
		sigs:   sigs,
		table:  fakeTable{candidates: candidates},
	}
	h.driver = NewDriver(fakeProvider{}, nil, h.table, h.alerts, h.files, h.sigs)
	return h
}

func (h *fakeHarness) withDCE(dce DCEProvider) *fakeHarness {
	h.driver = NewDriver(fakeProvider{}, dce, h.table, h.alerts, h.files, h.sigs)
	return h
}
