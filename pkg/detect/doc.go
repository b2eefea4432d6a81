/*
Package detect implements the stateful signature inspection core of the
detection engine: the hand-off between the stateless packet matcher (which
flags a signature as a candidate on a single packet) and the long-lived,
per-flow, per-transaction bookkeeping needed to decide whether a signature
has fully matched, can no longer match, or must wait for more input.

# Architecture

	┌────────────────────── FLOW (external) ───────────────────────┐
	│                                                                 │
	│   ┌─────────────┐        ┌──────────────────────────────┐    │
	│   │  FlowState  │        │  TxState (one per app-layer   │    │
	│   │ (flow-scoped│        │  transaction, owned by the    │    │
	│   │  signatures)│        │  app-layer parser)             │    │
	│   └──────┬──────┘        └───────────────┬────────────────┘    │
	│          │ DirState[2]                    │ DirState[2]        │
	│          ▼                                ▼                    │
	│   ┌────────────────────────────────────────────────┐          │
	│   │         chunked append-only record store        │          │
	│   │  (Chunk -> Chunk -> Chunk, CHUNK_SIZE slots each)│          │
	│   └────────────────────────────────────────────────┘          │
	└─────────────────────────────────────────────────────────────────┘

	StartDetection(flow, sig, dir, appState)    -- first look at a candidate
	ContinueDetection(flow, dir, appState)      -- advance stored records

Both entry points run under the caller-held flow write lock (see §5):
callbacks into inspection engines and app-layer providers must not block,
and the lock is the only synchronization primitive the package itself
relies on.

# Collaborators

detect never parses protocols or decides which signatures are candidates.
It is driven by, and calls back into, the capability sets described in
interfaces.go: the application-layer transaction provider, the DCE/RPC
payload provider, the inspection engine lookup table, the signature
lookup, the alert sink, and the file subsystem hook. Flow-scoped
submatches are not a separate provider: they are callbacks carried on
each Signature's AMatch list (signature.go). A concrete HTTP
implementation of every set except the DCE/RPC provider lives in
pkg/httpengine for testing and the replay demo; production embedders
supply their own.
*/
package detect
