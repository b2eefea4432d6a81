package httpengine

import "github.com/cuemby/vigil/pkg/detect"

// Proto is the single application protocol this package models.
const Proto detect.AppProto = 1

// Request-side transaction progress stages. The core only ever compares
// progress against GetTxCompletionStatus, so these need not match any
// real HTTP state machine beyond being monotonic and covering "nothing
// parsed yet" through "request fully received."
const (
	progressNone = iota
	progressRequestLine
	progressHeaders
	progressBody
	progressComplete
)

// File is the one file a transaction can carry in this demo: a
// multipart upload's filename plus the two sticky markers the
// filestore machinery in pkg/detect drives from the outside.
type File struct {
	Name    string
	Stored  bool
	NoStore bool
}

// Transaction is one HTTP request this package has parsed out of a
// to_server byte stream. Detect is the slot pkg/detect's lifecycle
// component lazily allocates through SetTxDetectState; everything else
// is populated incrementally by Feed as bytes arrive.
type Transaction struct {
	ID uint64

	ReqProgress  int
	RespProgress int

	Method    string
	URI       string
	UserAgent string
	Cookie    string

	ContentLength int
	bodyReceived  int
	bodyBuf       []byte

	File *File

	Detect *detect.TxState
}

// State is the per-flow application-layer state a Provider reads and
// writes: the transactions parsed so far, the two inspect-tx-id
// cursors pkg/detect advances, and the request-side parse cursor
// (pending bytes not yet folded into a transaction, and the
// transaction currently being filled in, if any).
type State struct {
	Transactions []*Transaction

	inspectTxID [2]detect.TxID

	pending []byte
	cur     *Transaction
}

// NewState allocates an empty application-layer state for one flow.
func NewState() *State {
	return &State{}
}

func dirIndex(dir detect.Direction) int {
	if dir == detect.ToServer {
		return 0
	}
	return 1
}
