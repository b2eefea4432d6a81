package main

import (
	"net"
	"strconv"
	"sync"

	"github.com/cuemby/vigil/pkg/detect"
	"github.com/cuemby/vigil/pkg/httpengine"
	"github.com/google/uuid"
)

// connKey identifies one TCP connection by its unordered endpoint pair, so
// both directions of a stream resolve to the same tracked flow regardless
// of which side a given packet happened to be captured flowing from.
type connKey struct {
	a, b string
}

func newConnKey(srcIP, dstIP net.IP, srcPort, dstPort uint16) connKey {
	left := endpoint{srcIP.String(), srcPort}
	right := endpoint{dstIP.String(), dstPort}
	if right.less(left) {
		left, right = right, left
	}
	return connKey{a: left.String(), b: right.String()}
}

type endpoint struct {
	ip   string
	port uint16
}

func (e endpoint) String() string { return e.ip + ":" + strconv.Itoa(int(e.port)) }

func (e endpoint) less(o endpoint) bool {
	if e.ip != o.ip {
		return e.ip < o.ip
	}
	return e.port < o.port
}

// flowEntry bundles everything detectreplay tracks for one connection: the
// detect.Flow pkg/detect's driver operates on, the demo parser's
// application-layer state, and the flow-scoped version the caller must
// track itself per HasInspectableState's contract. traceID has no meaning
// to pkg/detect; it exists purely so log lines emitted across several
// packets belonging to the same connection can be correlated.
type flowEntry struct {
	flow      *detect.Flow
	state     *httpengine.State
	traceID   uuid.UUID
	lastTxCnt int
	lastVer   [2]uint64
}

// flowTable is the demo's entire "surrounding engine": a map from
// connection tuple to tracked flow, protected by its own mutex since
// packets for different connections are dispatched to detectreplay's
// single replay loop but the table itself is also what metrics.StatsSource
// polls from a different goroutine.
type flowTable struct {
	mu    sync.Mutex
	flows map[connKey]*flowEntry
	files *httpengine.Files
}

func newFlowTable(files *httpengine.Files) *flowTable {
	return &flowTable{flows: make(map[connKey]*flowEntry), files: files}
}

// getOrCreate returns the tracked entry for key, allocating a new flow and
// application-layer state on first sight of this connection.
func (t *flowTable) getOrCreate(key connKey) *flowEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.flows[key]; ok {
		return e
	}
	state := httpengine.NewState()
	flow := detect.NewFlow(httpengine.Proto)
	e := &flowEntry{flow: flow, state: state, traceID: uuid.New()}
	t.flows[key] = e
	t.files.Track(flow, state)
	return e
}

// ActiveFlowCount implements metrics.StatsSource.
func (t *flowTable) ActiveFlowCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.flows)
}

// StoredItemCount implements metrics.StatsSource: the total number of
// transactions currently parsed out across every tracked flow, the closest
// proxy this demo has to "live detect records" without reaching into
// pkg/detect's own chunked stores.
func (t *flowTable) StoredItemCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, e := range t.flows {
		total += len(e.state.Transactions)
	}
	return total
}
