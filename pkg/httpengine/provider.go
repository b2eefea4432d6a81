package httpengine

import "github.com/cuemby/vigil/pkg/detect"

// Provider implements detect.AppLayerTxProvider against *State/*Transaction
// values. It carries no state of its own, every method takes the
// app-layer state or transaction as an argument, so a single value can
// be shared across every flow.
type Provider struct{}

// NewProvider constructs a Provider. There is exactly one useful value
// of this type, but it is returned from a constructor for symmetry with
// the rest of this package's collaborators.
func NewProvider() Provider {
	return Provider{}
}

func (Provider) SupportsTxs(proto detect.AppProto) bool {
	return proto == Proto
}

func (Provider) GetTxCount(proto detect.AppProto, state any) uint64 {
	st, ok := state.(*State)
	if !ok {
		return 0
	}
	return uint64(len(st.Transactions))
}

func (Provider) GetTx(proto detect.AppProto, state any, id detect.TxID) (any, bool) {
	st, ok := state.(*State)
	if !ok {
		return nil, false
	}
	idx := int(id)
	if idx < 0 || idx >= len(st.Transactions) {
		return nil, false
	}
	return st.Transactions[idx], true
}

func (Provider) GetTxProgress(proto detect.AppProto, tx any, dir detect.Direction) int {
	t := tx.(*Transaction)
	if dir == detect.ToServer {
		return t.ReqProgress
	}
	return t.RespProgress
}

// GetTxCompletionStatus returns the same terminal stage for both
// directions; this demo never drives to_client progress past its zero
// value, so a to_client transaction always reads as still in progress,
// which is a safe default since nothing here calls ContinueDetection
// for that direction.
func (Provider) GetTxCompletionStatus(proto detect.AppProto, dir detect.Direction) int {
	return progressComplete
}

func (Provider) SupportsTxDetectState(proto detect.AppProto) bool {
	return proto == Proto
}

func (Provider) GetTxDetectState(proto detect.AppProto, tx any) *detect.TxState {
	return tx.(*Transaction).Detect
}

func (Provider) SetTxDetectState(proto detect.AppProto, tx any, st *detect.TxState) error {
	tx.(*Transaction).Detect = st
	return nil
}

func (Provider) GetInspectTxID(proto detect.AppProto, state any, dir detect.Direction) detect.TxID {
	st, ok := state.(*State)
	if !ok {
		return 0
	}
	return st.inspectTxID[dirIndex(dir)]
}

func (Provider) SetInspectTxID(proto detect.AppProto, state any, dir detect.Direction, id detect.TxID) {
	st, ok := state.(*State)
	if !ok {
		return
	}
	st.inspectTxID[dirIndex(dir)] = id
}
