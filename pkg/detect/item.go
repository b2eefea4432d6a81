package detect

// SignatureID is the compact internal id the prefilter assigns signatures;
// the core never looks inside a signature beyond this id and the fields
// exposed through Signature (see signature.go).
type SignatureID uint32

// TxID identifies one application-layer transaction within a flow.
type TxID uint64

// Item is the per-stored-signature record kept in a transaction's
// direction-scoped store (C3). It is exactly the "Store record (per stored
// signature, transactional)" of the data model.
type Item struct {
	SID   SignatureID
	Flags InspectFlags
}

func (it Item) sigID() SignatureID { return it.SID }

// flowSubmatchCursor is the opaque cursor into a signature's flow-submatch
// list. It references signature-owned data whose lifetime strictly exceeds
// the record holding the cursor, so a plain index is enough; there is no
// pointer ownership to manage.
type flowSubmatchCursor int

// noCursor marks a record whose flow-submatch walk is exhausted (nm ==
// NULL in the data model).
const noCursor flowSubmatchCursor = -1

// FlowItem is the per-stored-signature record kept in a flow's
// direction-scoped store (C4): an Item plus the flow-submatch cursor.
type FlowItem struct {
	SID   SignatureID
	Flags InspectFlags
	NM    flowSubmatchCursor
}

func (it FlowItem) sigID() SignatureID { return it.SID }
