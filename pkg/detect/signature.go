package detect

// Signature is the subset of a parsed rule the detect core needs: its
// compact id, the submatch lists it carries (keyed by the name of the
// inspection engine that consumes them, e.g. "http_method", "http_uri"),
// its flow-scoped AMATCH list, and the handful of flags/actions the core
// itself branches on. Everything else about a signature (the full
// condition tree, priority, metadata) belongs to the signature matcher and
// is never touched here.
type Signature struct {
	ID SignatureID

	// NoAlert suppresses AppendAlert even on a full match (the signature
	// still drives state, e.g. for `flowbits`-only rules).
	NoAlert bool
	Action  string

	// Filestore marks this signature as a filestore candidate: each
	// CANT_MATCH_FILESTORE decline it reports on a transaction feeds the
	// direction's filestore counter; a match does not.
	Filestore bool

	// SMLists holds one entry per transactional submatch list this
	// signature populates; the engine registered under the same name in
	// the EngineTable is the only one invoked for it. A nil/absent entry
	// means "this engine has nothing to check for this signature" (the
	// "sm_list is non-empty" test).
	SMLists map[string]any

	// AMatch is the flow-scoped submatch list (AMATCH), walked in order by
	// the flow-scoped branch of the start and continue drivers.
	AMatch []FlowSubMatch

	// DCE marks this signature as carrying a DCE/RPC submatch list,
	// consumed only when the Driver has a DCEProvider and its DCEState
	// reports a DCE/RPC payload for the flow's protocol and state (the
	// core itself does not check flow.Proto).
	DCE any
}

// HasList reports whether the signature populated the named transactional
// submatch list.
func (s *Signature) HasList(name string) bool {
	if s.SMLists == nil {
		return false
	}
	v, ok := s.SMLists[name]
	return ok && v != nil
}

// FlowSubMatchResult is the three-valued outcome of one AMATCH submatch
// evaluation: 1 = match, 0 = not yet (suspend here), 2 = CANT_MATCH.
type FlowSubMatchResult int

const (
	FlowSubMatchSuspend   FlowSubMatchResult = 0
	FlowSubMatchMatch     FlowSubMatchResult = 1
	FlowSubMatchCantMatch FlowSubMatchResult = 2
)

// FlowSubMatch is one entry of a signature's AMATCH list. Callback is
// re-evaluated from scratch against the current app-layer state each time
// the walk reaches it; the core only remembers *which* entry to resume
// from (the nm cursor), not any internal progress within the entry.
type FlowSubMatch struct {
	Name     string
	Callback func(state any) (FlowSubMatchResult, error)
}
