package detect

// InspectFlags is the per-record bitset described in the data model: which
// engines have already inspected a signature on a transaction, plus the
// sticky terminal markers. Engine-specific "inspected" bits are assigned at
// registration time by the EngineTable (see Engine in interfaces.go)
// starting at EngineFlagBase, so this type only fixes the meaning of the
// low bits that the core itself interprets.
type InspectFlags uint32

const (
	// FlagFullInspect means no further inspection is needed on this
	// transaction unless a new file clears it.
	FlagFullInspect InspectFlags = 1 << iota
	// FlagCantMatch means this signature has been proven unable to match
	// on this transaction.
	FlagCantMatch
	// FlagFileTSInspect/FlagFileTCInspect record that a record's match
	// decision already consumed the file seen so far in that direction;
	// they are cleared together with FlagFullInspect/FlagCantMatch when a
	// new file arrives in the matching direction (the file re-open rule).
	FlagFileTSInspect
	FlagFileTCInspect

	// EngineFlagBase is the first bit available for engines registered
	// with an EngineTable. Engines before this point in the iota chain are
	// reserved for core semantics; an EngineTable implementation assigns
	// its own engines' Flag values starting here, one bit each.
	EngineFlagBase
)

func (f InspectFlags) has(bit InspectFlags) bool { return f&bit != 0 }

func (f *InspectFlags) set(bit InspectFlags)   { *f |= bit }
func (f *InspectFlags) clear(bit InspectFlags) { *f &^= bit }

// DirFlags is the direction-scoped bitset living on DirState: file-arrival
// announcements and the file-store-disabled latch.
type DirFlags uint8

const (
	DirFlagFileTSNew DirFlags = 1 << iota
	DirFlagFileTCNew
	DirFlagFileStoreDisabled
)

func (f DirFlags) has(bit DirFlags) bool { return f&bit != 0 }
func (f *DirFlags) set(bit DirFlags)     { *f |= bit }
func (f *DirFlags) clear(bit DirFlags)   { *f &^= bit }

// fileInspectFlagFor returns the sticky "this record already consumed the
// file in this direction" bit for dir.
func fileInspectFlagFor(dir Direction) InspectFlags {
	if dir == ToServer {
		return FlagFileTSInspect
	}
	return FlagFileTCInspect
}

// fileNewFlagFor returns the direction-scoped "a new file just arrived in
// this direction" bit for dir.
func fileNewFlagFor(dir Direction) DirFlags {
	if dir == ToServer {
		return DirFlagFileTSNew
	}
	return DirFlagFileTCNew
}
