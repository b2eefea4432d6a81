package detect

// txDirState is one direction's worth of transactional bookkeeping (C2):
// the chunked Item store plus the filestore counter and direction flags
// from the data model.
type txDirState struct {
	store        dirStore[Item]
	filestoreCnt int
	flags        DirFlags
}

// reset clears the store and counters but keeps allocated chunks, per the
// lifecycle component's reset/reset_txs semantics.
func (d *txDirState) reset() {
	d.store.reset()
	d.filestoreCnt = 0
	d.flags = 0
}

// flowDirState is one direction's worth of flow-scoped bookkeeping (C2 for
// FlowState): the chunked FlowItem store. Flow-scoped state has no
// filestore counter of its own, filestore accounting is always
// transaction-scoped.
type flowDirState struct {
	store dirStore[FlowItem]
}

func (d *flowDirState) reset() {
	d.store.reset()
}
