package httpengine

import (
	"sync"

	"github.com/cuemby/vigil/pkg/detect"
)

// Files implements detect.FileEventSource by marking the offered file
// on the targeted transaction as declined. It tracks the State behind
// each live flow so DisableFileStoreForTx, given only a *detect.Flow
// and a TxID, can reach the right *Transaction; a real file subsystem
// would instead push this into its own file-tracking structures, but
// this demo has no file subsystem beyond the Transaction itself.
type Files struct {
	mu     sync.Mutex
	states map[*detect.Flow]*State
}

// NewFiles constructs an empty Files registry.
func NewFiles() *Files {
	return &Files{states: make(map[*detect.Flow]*State)}
}

// Track associates flow with the application-layer state driving it, so
// a later DisableFileStoreForTx call for that flow can resolve its
// transaction. Callers register a flow once, typically when its State
// is first allocated.
func (f *Files) Track(flow *detect.Flow, state *State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[flow] = state
}

// Untrack drops flow's association, for callers that recycle *detect.Flow
// values from a pool.
func (f *Files) Untrack(flow *detect.Flow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, flow)
}

func (f *Files) DisableFileStoreForTx(flow *detect.Flow, dir detect.Direction, txID detect.TxID) {
	f.mu.Lock()
	state := f.states[flow]
	f.mu.Unlock()
	if state == nil {
		return
	}

	idx := int(txID)
	if idx < 0 || idx >= len(state.Transactions) {
		return
	}
	tx := state.Transactions[idx]
	if tx.File == nil {
		tx.File = &File{}
	}
	tx.File.NoStore = true
}
