package httpengine

import (
	"sync"

	"github.com/cuemby/vigil/pkg/detect"
)

// Alert is one recorded AppendAlert call.
type Alert struct {
	SID     detect.SignatureID
	Dir     detect.Direction
	TxID    detect.TxID
	HasTxID bool
	Flags   detect.AlertFlags
}

// AlertRecorder is an in-memory detect.AlertSink: it appends every
// alert and every applied-actions call to a slice rather than writing
// to an external alert log, for tests and the replay demo to inspect
// after a run. One AlertRecorder is normally shared across every flow
// a replay run inspects, so its own mutex, not the per-flow lock
// pkg/detect already holds, is what protects it.
type AlertRecorder struct {
	mu      sync.Mutex
	alerts  []Alert
	applied []detect.SignatureID
}

// NewAlertRecorder constructs an empty AlertRecorder.
func NewAlertRecorder() *AlertRecorder {
	return &AlertRecorder{}
}

func (r *AlertRecorder) AppendAlert(sig *detect.Signature, dir detect.Direction, txID detect.TxID, hasTxID bool, flags detect.AlertFlags) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, Alert{SID: sig.ID, Dir: dir, TxID: txID, HasTxID: hasTxID, Flags: flags})
}

func (r *AlertRecorder) ApplyActions(sig *detect.Signature) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, sig.ID)
}

// Alerts returns every alert recorded so far, in order.
func (r *AlertRecorder) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// AlertedSIDs returns the distinct set of signature ids that alerted.
func (r *AlertRecorder) AlertedSIDs() map[detect.SignatureID]bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[detect.SignatureID]bool, len(r.alerts))
	for _, a := range r.alerts {
		out[a.SID] = true
	}
	return out
}
