package detect

import "sync"

// AppProto identifies an application-layer protocol. The core treats it as
// an opaque key into the EngineTable and the app-layer provider's method
// tables; it never interprets the value itself.
type AppProto uint16

// Flow is the minimal view of a network flow the detect core needs: the
// write lock serializing all packets on this flow (§5), its application
// protocol, and its lazily-allocated flow-scoped detect state. The "a new
// file just arrived" flags the file re-open rule reads live on each
// transaction's TxState, not here. Everything else about a flow (tuple,
// timers, reassembly buffers) belongs to the surrounding engine and is out
// of scope here.
//
// Flow does not acquire its own lock around the fields below: the caller
// is required to hold Lock for the full duration of a StartDetection or
// ContinueDetection call, per §5's coarse lock-the-whole-drive discipline.
// Finer-grained locking here would deadlock against callers that also
// read tx detect state under the same lock.
type Flow struct {
	mu sync.Mutex

	Proto AppProto

	flowState *FlowState
}

// NewFlow constructs a Flow for the given application protocol.
func NewFlow(proto AppProto) *Flow {
	return &Flow{Proto: proto}
}

// Lock acquires the flow write lock. Callers must hold it for the entire
// duration of a drive, including every submatcher callback invoked during
// it.
func (f *Flow) Lock() { f.mu.Lock() }

// Unlock releases the flow write lock.
func (f *Flow) Unlock() { f.mu.Unlock() }

// FlowStateOrCreate returns the flow's detect state, allocating it on first use.
// Mirrors the "created lazily on first persistence for the flow" lifecycle
// rule; callers must already hold Lock.
func (f *Flow) FlowStateOrCreate() *FlowState {
	if f.flowState == nil {
		f.flowState = NewFlowState()
	}
	return f.flowState
}

// FlowStateOrNil returns the flow's detect state without allocating one,
// for read-only callers such as has_inspectable_state.
func (f *Flow) FlowStateOrNil() *FlowState {
	return f.flowState
}
