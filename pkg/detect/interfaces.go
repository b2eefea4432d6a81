package detect

// This file collects the capability sets the core consumes from its
// external collaborators: the application-layer parser, the DCE/RPC
// payload inspector, the signature matcher's inspection engine table and
// signature lookup, the alert sink, and the file subsystem. None of them
// are implemented here, pkg/httpengine provides one concrete HTTP
// implementation (without a DCE/RPC provider) for testing and the replay
// demo.

// EngineResult is the three-valued (four, counting the filestore variant)
// outcome an inspection engine callback reports for one signature on one
// transaction.
type EngineResult int

const (
	ResultNoMatch EngineResult = iota
	ResultMatch
	ResultCantMatch
	// ResultCantMatchFilestore is CANT_MATCH plus "this signature declined
	// to store the file it was offered", counted toward the direction's
	// filestore tally.
	ResultCantMatchFilestore
)

// Engine is one entry of a protocol/direction's inspection engine table: a
// submatch list name, the distinct inspect-flags bit this engine owns, and
// the callback itself. The table a protocol registers is process-wide and
// immutable once built (see EngineTable), so Engine values are shared
// across every flow and transaction inspected for that protocol.
// Engine callbacks report ErrCallbackFailed (never any other error) when
// the transaction they were asked to inspect turned out to be
// unreachable; see errors.go and §7's callback-failure error class.
type Engine struct {
	SMList string
	Flag   InspectFlags
	// FileEngine marks this engine as the one whose verdict can change
	// when a new file arrives on the transaction: its own bit, not just
	// the record's FILE_*_INSPECT bit, must be cleared by the file
	// re-open rule so it actually runs again.
	FileEngine bool
	Callback   func(sig *Signature, tx any, dir Direction) (EngineResult, error)
}

// EngineTable is the lookup service for a protocol's registered inspection
// engines: build it once at startup and expose it as a read-only service
// rather than a package-level table, so the only state shared across
// flows is immutable once construction finishes.
type EngineTable interface {
	// Engines returns, in evaluation order, the engines that run against
	// transactions in this protocol/direction.
	Engines(proto AppProto, dir Direction) []Engine
	// FilestoreCandidates returns how many signatures in this
	// protocol/direction declared themselves filestore candidates; once
	// that many have all declined on a transaction, file storing is
	// disabled for it.
	FilestoreCandidates(proto AppProto, dir Direction) int
}

// AppLayerTxProvider is the capability set consumed from the application
// layer parser: transaction enumeration, per-transaction progress, and the
// per-transaction detect-state slot the parser owns on the core's behalf.
type AppLayerTxProvider interface {
	SupportsTxs(proto AppProto) bool
	GetTxCount(proto AppProto, state any) uint64
	GetTx(proto AppProto, state any, id TxID) (tx any, ok bool)
	GetTxProgress(proto AppProto, tx any, dir Direction) int
	GetTxCompletionStatus(proto AppProto, dir Direction) int

	SupportsTxDetectState(proto AppProto) bool
	GetTxDetectState(proto AppProto, tx any) *TxState
	// SetTxDetectState must not fail when SupportsTxDetectState is true;
	// a non-nil error here is the one fatal condition in this package
	// (see Driver.txState in lifecycle.go).
	SetTxDetectState(proto AppProto, tx any, st *TxState) error

	GetInspectTxID(proto AppProto, state any, dir Direction) TxID
	SetInspectTxID(proto AppProto, state any, dir Direction, id TxID)
}

// DCEProvider exposes the DCE/RPC payload of a flow's application-layer
// state (the appState the drivers are given), whether that state IS one
// (protocol DCERPC) or CARRIES one nested inside it (SMB/SMB2); DCEState
// reports ok=false when proto/appState carries no DCE/RPC payload. Matches
// found through this path never persist a continuation record, see the
// open question preserved in start.go.
type DCEProvider interface {
	DCEState(proto AppProto, appState any) (dceState any, ok bool)
	InspectDCEPayload(sig *Signature, dceState any) (matched bool, err error)
}

// AlertFlags records how an alert was reached, for the alert sink to
// attach to the emitted record.
type AlertFlags uint8

const (
	AlertFlagStateMatch AlertFlags = 1 << iota
	AlertFlagTx
)

// AlertSink is the append-alert / apply-actions pair the core calls into
// once a signature's inspection engines have all reported a match.
type AlertSink interface {
	AppendAlert(sig *Signature, dir Direction, txID TxID, hasTxID bool, flags AlertFlags)
	ApplyActions(sig *Signature)
}

// FileEventSource is the external file subsystem hook the lifecycle
// component calls into when a direction's filestore candidates have all
// declined.
type FileEventSource interface {
	DisableFileStoreForTx(flow *Flow, dir Direction, txID TxID)
}

// SignatureProvider resolves the compact id persisted in an Item or
// FlowItem back to the full Signature, so the continue driver can
// re-evaluate a stored record without having to carry the whole
// signature alongside it.
type SignatureProvider interface {
	Signature(sid SignatureID) (sig *Signature, ok bool)
}
