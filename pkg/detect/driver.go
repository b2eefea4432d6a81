package detect

import (
	"github.com/cuemby/vigil/pkg/log"
	"github.com/rs/zerolog"
)

// Driver bundles the collaborators the start and continue drivers need:
// the app-layer provider, the optional DCE/RPC provider, the protocol's
// inspection engine table, and the alert/file sinks. One Driver is built
// once at startup and shared by every worker thread; the engine table
// behind it is process-wide and immutable once built, so the only
// mutable, contended state a Driver call ever touches belongs to the
// Flow passed into it, under that flow's lock.
type Driver struct {
	Tx    AppLayerTxProvider
	DCE   DCEProvider // nil if this protocol has no DCE/RPC payloads
	Table EngineTable
	Alert AlertSink
	Files FileEventSource
	Sigs  SignatureProvider

	logger zerolog.Logger
}

// NewDriver constructs a Driver. DCE may be nil for protocols without a
// DCE/RPC payload.
func NewDriver(tx AppLayerTxProvider, dce DCEProvider, table EngineTable, alert AlertSink, files FileEventSource, sigs SignatureProvider) *Driver {
	return &Driver{
		Tx:     tx,
		DCE:    dce,
		Table:  table,
		Alert:  alert,
		Files:  files,
		Sigs:   sigs,
		logger: log.WithComponent("detect"),
	}
}
