package detect

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetTxsZeroesCountersFromLowestInspectID(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{1: {ID: 1, SMLists: map[string]any{"a": true}}})
	state := newFakeState(3)
	state.txs[0].progress = 1
	state.txs[1].progress = 1
	state.txs[2].progress = 1
	state.txs[0].script("a", ResultMatch)
	state.txs[1].script("a", ResultMatch)
	state.txs[2].script("a", ResultMatch)

	// a single call walks every transaction from the inspect id onward, so
	// one call is enough to persist a record on all three.
	_, err := h.driver.StartDetection(h.flow, h.sigs[1], ToServer, state)
	require.NoError(t, err)
	for _, tx := range state.txs {
		require.NotNil(t, tx.detect)
		require.NotZero(t, tx.detect.d(ToServer).store.cnt)
	}

	// a reload happening with ToServer's cursor at 1 and ToClient's still
	// at 0 zeroes every transaction from 0 up, since 0 is the lower of the
	// two directions' cursors.
	state.inspectID[ToServer.idx()] = 1
	state.inspectID[ToClient.idx()] = 0
	h.driver.ResetTxs(h.flow, state)

	for i, tx := range state.txs {
		require.Zerof(t, tx.detect.d(ToServer).store.cnt, "tx %d should have been reset", i)
	}
}

func TestResetTxsNoopWithoutDetectState(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{})
	state := newFakeState(1)
	// no detect state was ever allocated on this transaction.
	require.NotPanics(t, func() {
		h.driver.ResetTxs(h.flow, state)
	})
	require.Nil(t, state.txs[0].detect)
}

func TestResetClearsFlowScopedDirectionOnly(t *testing.T) {
	calls := 0
	sig := &Signature{ID: 9, AMatch: []FlowSubMatch{
		{Callback: func(appState any) (FlowSubMatchResult, error) {
			calls++
			return FlowSubMatchSuspend, nil
		}},
	}}
	h := newFakeHarness(0, fakeSigs{9: sig})
	state := newFakeState(0)

	_, err := h.driver.StartDetection(h.flow, sig, ToServer, state)
	require.NoError(t, err)
	_, err = h.driver.StartDetection(h.flow, sig, ToClient, state)
	require.NoError(t, err)
	fs := h.flow.FlowStateOrNil()
	require.NotNil(t, fs)
	require.NotZero(t, fs.d(ToServer).store.cnt)
	require.NotZero(t, fs.d(ToClient).store.cnt)

	h.driver.Reset(h.flow, ToServer)
	require.Zero(t, fs.d(ToServer).store.cnt)
	require.NotZero(t, fs.d(ToClient).store.cnt, "a ToServer reset must leave the ToClient-scoped store alone")

	// a ToClient reset then clears that direction as well.
	require.NotPanics(t, func() {
		h.driver.Reset(h.flow, ToClient)
	})
	require.Zero(t, fs.d(ToClient).store.cnt)
}

func TestUpdateInspectTxIDForwardsToProvider(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{})
	state := newFakeState(3)

	h.driver.UpdateInspectTxID(h.flow, state, ToServer, TxID(2))
	require.Equal(t, TxID(2), state.inspectID[ToServer.idx()])
	require.Equal(t, TxID(0), state.inspectID[ToClient.idx()], "the other direction's cursor is untouched")
}

func TestHasInspectableStateNoRecords(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{})
	state := newFakeState(1)

	require.Equal(t, 0, h.driver.HasInspectableState(h.flow, ToServer, 0, state))
}

func TestHasInspectableStateTxRecordsAdvancedVersion(t *testing.T) {
	h := newFakeHarness(0, fakeSigs{1: {ID: 1, SMLists: map[string]any{"a": true, "b": true}}})
	state := newFakeState(1)
	state.txs[0].progress = 1
	state.txs[0].script("a", ResultMatch).script("b", ResultNoMatch)

	_, err := h.driver.StartDetection(h.flow, h.sigs[1], ToServer, state)
	require.NoError(t, err)

	// a transactional record exists, but there is no flow state at all
	// yet, so any app-layer version the caller supplies counts as
	// "changed since".
	require.Equal(t, 1, h.driver.HasInspectableState(h.flow, ToServer, 42, state))
}

func TestHasInspectableStateFlowRecordsVersionMatch(t *testing.T) {
	sig := &Signature{ID: 9, AMatch: []FlowSubMatch{
		{Callback: func(appState any) (FlowSubMatchResult, error) {
			return FlowSubMatchSuspend, nil
		}},
	}}
	h := newFakeHarness(0, fakeSigs{9: sig})
	state := newFakeState(0)

	_, err := h.driver.StartDetection(h.flow, sig, ToServer, state)
	require.NoError(t, err)

	fs := h.flow.FlowStateOrNil()
	require.NotNil(t, fs)
	version := fs.detectALVersion[ToServer.idx()]

	// nothing has advanced since: the caller's last-observed version
	// still matches.
	require.Equal(t, 2, h.driver.HasInspectableState(h.flow, ToServer, version, state))

	require.NoError(t, h.driver.ContinueDetection(h.flow, ToServer, state))
	newVersion := fs.detectALVersion[ToServer.idx()]
	require.NotEqual(t, version, newVersion, "continuing the flow-scoped walk bumps the version even when it stays suspended")
	require.Equal(t, 1, h.driver.HasInspectableState(h.flow, ToServer, version, state), "the caller's stale version must now read as changed")
}
