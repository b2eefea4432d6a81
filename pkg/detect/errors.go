package detect

import "errors"

// ErrCallbackFailed is returned up through a driver call when a submatcher
// callback reports an unreachable transaction. The outer driver aborts the
// remainder of that packet's stateful inspection for the flow rather than
// continue with possibly inconsistent bookkeeping; no alert is lost that
// wasn't already going to be deferred to the next packet.
var ErrCallbackFailed = errors.New("detect: submatcher callback failed")
