package httpengine

import "github.com/cuemby/vigil/pkg/detect"

// NewDriver wires this package's Provider, SignatureSet, AlertRecorder,
// and Files into a *detect.Driver. HTTP carries no DCE/RPC payload, so
// the driver's DCE collaborator is left nil.
func NewDriver(sigs *SignatureSet, alerts *AlertRecorder, files *Files) *detect.Driver {
	return detect.NewDriver(NewProvider(), nil, sigs, alerts, files, sigs)
}
