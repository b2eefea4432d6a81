package httpengine

import "github.com/cuemby/vigil/pkg/detect"

// Submatch list names, following the glossary's own example names
// (http_method, http_uri) rather than inventing new ones.
const (
	smMethod    = "http_method"
	smURI       = "http_uri"
	smUserAgent = "http_user_agent"
	smCookie    = "http_cookie"
	smFile      = "http_file"
)

// engineOrder is this protocol's fixed, process-wide inspection engine
// table: one entry per submatch list, in evaluation order, each owning
// a distinct InspectFlags bit starting at detect.EngineFlagBase. http_file
// runs last, it is the only engine that writes to the transaction
// (marking its file stored) rather than doing a plain field compare.
var engineOrder = []detect.Engine{
	{SMList: smMethod, Flag: detect.EngineFlagBase << 0, Callback: methodEngine},
	{SMList: smURI, Flag: detect.EngineFlagBase << 1, Callback: uriEngine},
	{SMList: smUserAgent, Flag: detect.EngineFlagBase << 2, Callback: userAgentEngine},
	{SMList: smCookie, Flag: detect.EngineFlagBase << 3, Callback: cookieEngine},
	{SMList: smFile, Flag: detect.EngineFlagBase << 4, FileEngine: true, Callback: fileEngine},
}

// decide turns a field comparison into the engine result the core
// expects. available false means the field hasn't arrived on the wire
// yet, and the walk should simply suspend rather than decide anything.
// A signature marked Filestore escalates a plain decline into
// CANT_MATCH_FILESTORE even when the declining field has nothing to do
// with the file itself (a method or URI mismatch on a filestore rule
// still counts against the direction's filestore-candidate tally).
func decide(sig *detect.Signature, available, match bool) detect.EngineResult {
	if !available {
		return detect.ResultNoMatch
	}
	if match {
		return detect.ResultMatch
	}
	if sig.Filestore {
		return detect.ResultCantMatchFilestore
	}
	return detect.ResultCantMatch
}

func methodEngine(sig *detect.Signature, txAny any, _ detect.Direction) (detect.EngineResult, error) {
	tx := txAny.(*Transaction)
	want, _ := sig.SMLists[smMethod].(string)
	return decide(sig, tx.ReqProgress >= progressRequestLine, tx.Method == want), nil
}

func uriEngine(sig *detect.Signature, txAny any, _ detect.Direction) (detect.EngineResult, error) {
	tx := txAny.(*Transaction)
	want, _ := sig.SMLists[smURI].(string)
	return decide(sig, tx.ReqProgress >= progressRequestLine, tx.URI == want), nil
}

func userAgentEngine(sig *detect.Signature, txAny any, _ detect.Direction) (detect.EngineResult, error) {
	tx := txAny.(*Transaction)
	want, _ := sig.SMLists[smUserAgent].(string)
	return decide(sig, tx.ReqProgress >= progressHeaders, tx.UserAgent == want), nil
}

func cookieEngine(sig *detect.Signature, txAny any, _ detect.Direction) (detect.EngineResult, error) {
	tx := txAny.(*Transaction)
	want, _ := sig.SMLists[smCookie].(string)
	return decide(sig, tx.ReqProgress >= progressHeaders, tx.Cookie == want), nil
}

// fileEngine is both the filename restriction check and the positive
// "mark this file stored" action: unlike the field engines, which only
// read the transaction, it writes to it, since marking Stored is a side
// effect on the transaction itself, not a result the core's bookkeeping
// can carry.
// An empty sig.SMLists[smFile] value means any offered file qualifies
// (plain `filestore`, no `filename` keyword).
func fileEngine(sig *detect.Signature, txAny any, _ detect.Direction) (detect.EngineResult, error) {
	tx := txAny.(*Transaction)
	if tx.File == nil {
		return detect.ResultNoMatch, nil
	}
	want, _ := sig.SMLists[smFile].(string)
	if want != "" && tx.File.Name != want {
		return detect.ResultCantMatchFilestore, nil
	}
	tx.File.Stored = true
	return detect.ResultMatch, nil
}
