package httpengine

import "github.com/cuemby/vigil/pkg/detect"

// Sig is the YAML-friendly description of one HTTP signature; cmd/detectreplay
// unmarshals a demo rule file into a slice of these and Build converts
// each into the detect.Signature shape the core consumes. Tests build
// Sigs directly without going through YAML at all.
type Sig struct {
	ID detect.SignatureID `yaml:"id"`

	Method    string `yaml:"method,omitempty"`
	URI       string `yaml:"uri,omitempty"`
	UserAgent string `yaml:"user_agent,omitempty"`
	Cookie    string `yaml:"cookie,omitempty"`

	// Filestore marks this signature as a filestore candidate. Filename,
	// if set, additionally restricts which offered file qualifies;
	// left empty, any file offered on a matching transaction qualifies.
	Filestore bool   `yaml:"filestore,omitempty"`
	Filename  string `yaml:"filename,omitempty"`

	NoAlert bool `yaml:"no_alert,omitempty"`
}

// Build converts s into the detect.Signature the core operates on.
func (s Sig) Build() *detect.Signature {
	lists := make(map[string]any)
	if s.Method != "" {
		lists[smMethod] = s.Method
	}
	if s.URI != "" {
		lists[smURI] = s.URI
	}
	if s.UserAgent != "" {
		lists[smUserAgent] = s.UserAgent
	}
	if s.Cookie != "" {
		lists[smCookie] = s.Cookie
	}
	if s.Filestore {
		lists[smFile] = s.Filename
	}
	return &detect.Signature{
		ID:        s.ID,
		NoAlert:   s.NoAlert,
		Filestore: s.Filestore,
		SMLists:   lists,
	}
}

// SignatureSet is a fixed, immutable signature registry: the
// SignatureProvider lookup and the per-direction filestore candidate
// count an EngineTable must report both derive from the same set,
// computed once at construction the way the real engine table is
// built once at startup and never mutated afterward.
type SignatureSet struct {
	bySID          map[detect.SignatureID]*detect.Signature
	filestoreCount [2]int // indexed by dirIndex; every signature here is to_server-only
}

// NewSignatureSet builds a SignatureSet from already-built signatures.
func NewSignatureSet(sigs ...*detect.Signature) *SignatureSet {
	s := &SignatureSet{bySID: make(map[detect.SignatureID]*detect.Signature, len(sigs))}
	for _, sig := range sigs {
		s.bySID[sig.ID] = sig
		if sig.Filestore {
			s.filestoreCount[dirIndex(detect.ToServer)]++
		}
	}
	return s
}

// BuildSignatureSet is NewSignatureSet for the common case of a YAML-loaded
// []Sig: build each one and register it.
func BuildSignatureSet(sigs []Sig) *SignatureSet {
	built := make([]*detect.Signature, len(sigs))
	for i, s := range sigs {
		built[i] = s.Build()
	}
	return NewSignatureSet(built...)
}

// Signature implements detect.SignatureProvider.
func (s *SignatureSet) Signature(sid detect.SignatureID) (*detect.Signature, bool) {
	sig, ok := s.bySID[sid]
	return sig, ok
}

// All returns every signature registered in s, for callers (cmd/detectreplay)
// that need to run StartDetection once per loaded signature rather than
// look one up by id.
func (s *SignatureSet) All() []*detect.Signature {
	out := make([]*detect.Signature, 0, len(s.bySID))
	for _, sig := range s.bySID {
		out = append(out, sig)
	}
	return out
}

// Engines implements detect.EngineTable; this package registers one
// fixed engine table for every protocol/direction pair, so it ignores
// both arguments.
func (s *SignatureSet) Engines(proto detect.AppProto, dir detect.Direction) []detect.Engine {
	return engineOrder
}

// FilestoreCandidates implements detect.EngineTable.
func (s *SignatureSet) FilestoreCandidates(proto detect.AppProto, dir detect.Direction) int {
	return s.filestoreCount[dirIndex(dir)]
}
