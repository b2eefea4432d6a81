package detect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContinueDetectionResumesSuspendedRecord(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{1: {ID: 1, SMLists: map[string]any{"a": true, "b": true}}})
	state := newFakeState(1)
	state.txs[0].progress = 1
	state.txs[0].script("a", ResultMatch).script("b", ResultNoMatch)

	_, err := h.driver.StartDetection(h.flow, h.sigs[1], ToServer, state)
	require.NoError(t, err)
	require.Empty(t, h.alerts.alerts)

	// "b" still hasn't arrived: a continue call must not alert yet, and
	// must not re-run "a" (scripted to return only one result).
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Empty(t, h.alerts.alerts)

	// "b" arrives and matches; the transaction also completes.
	state.txs[0].script("b", ResultMatch)
	state.txs[0].progress = fakeCompletion

	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Len(t, h.alerts.alerts, 1)
	require.Equal(t, TxID(0), h.alerts.alerts[0].txID)

	// a further continue call must not re-alert: the record is terminal.
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Len(t, h.alerts.alerts, 1)
}

func TestContinueDetectionBreaksOnFirstInProgressTransaction(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{1: {ID: 1, SMLists: map[string]any{"a": true, "b": true}}})
	state := newFakeState(2)
	state.txs[0].progress = 1
	state.txs[1].progress = 1
	state.txs[0].script("a", ResultMatch).script("b", ResultNoMatch)
	state.txs[1].script("a", ResultMatch).script("b", ResultNoMatch)

	_, err := h.driver.StartDetection(h.flow, h.sigs[1], ToServer, state)
	require.NoError(t, err)
	require.Empty(t, h.alerts.alerts, "both transactions only made partial progress so far")

	// tx 1's "b" becomes available, but tx 0's still isn't: with tx 0
	// still in progress, this call must not reach tx 1 at all.
	state.txs[1].script("b", ResultMatch)
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Empty(t, h.alerts.alerts, "tx 0 is still in progress, so tx 1 must not be advanced past it this call")

	// once tx 0 resolves and completes, the walk can reach tx 1.
	state.txs[0].script("b", ResultMatch)
	state.txs[0].progress = fakeCompletion
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Len(t, h.alerts.alerts, 2)
}

func TestContinueDetectionFileReopenCarveOut(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{1: {ID: 1, Filestore: true, SMLists: map[string]any{"a": true}}})
	state := newFakeState(1)
	state.txs[0].progress = 1 // in progress, so the terminal record still gets persisted
	state.txs[0].script("a", ResultCantMatchFilestore)

	_, err := h.driver.StartDetection(h.flow, h.sigs[1], ToServer, state)
	require.NoError(t, err)
	require.Empty(t, h.alerts.alerts)

	// with no new file announced, the terminal CANT_MATCH record must
	// not be re-run even though a fresh "a" result is queued.
	state.txs[0].script("a", ResultMatch)
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Empty(t, h.alerts.alerts)

	// a new file arrives on the matching direction: the re-open rule
	// must clear the terminal bits and let the queued match through.
	state.txs[0].detect.NoteNewFile(ToServer)
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Len(t, h.alerts.alerts, 1)
}

func TestContinueDetectionFlowScopedResumesFromCursor(t *testing.T) {
	gate := false
	sig := &Signature{ID: 9, AMatch: []FlowSubMatch{
		{Callback: func(appState any) (FlowSubMatchResult, error) {
			return FlowSubMatchMatch, nil
		}},
		{Callback: func(appState any) (FlowSubMatchResult, error) {
			if !gate {
				return FlowSubMatchSuspend, nil
			}
			return FlowSubMatchMatch, nil
		}},
	}}
	h := newFakeHarness(0, fakeSigs{9: sig})
	state := newFakeState(0)

	_, err := h.driver.StartDetection(h.flow, sig, ToServer, state)
	require.NoError(t, err)
	require.Empty(t, h.alerts.alerts)

	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Empty(t, h.alerts.alerts, "the second submatch still suspends")

	gate = true
	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Len(t, h.alerts.alerts, 1)

	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	require.Len(t, h.alerts.alerts, 1, "a FULL_INSPECT flow record must not re-alert")
}
