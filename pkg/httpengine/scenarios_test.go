package httpengine_test

import (
	"fmt"
	"testing"

	"github.com/cuemby/vigil/pkg/detect"
	"github.com/cuemby/vigil/pkg/httpengine"
	"github.com/stretchr/testify/require"
)

// harness bundles one flow's worth of collaborators for a scenario test.
type harness struct {
	driver *detect.Driver
	flow   *detect.Flow
	state  *httpengine.State
	alerts *httpengine.AlertRecorder
	files  *httpengine.Files
	sigs   *httpengine.SignatureSet
}

func newHarness(t *testing.T, defs ...httpengine.Sig) *harness {
	t.Helper()
	sigs := httpengine.BuildSignatureSet(defs)
	alerts := httpengine.NewAlertRecorder()
	files := httpengine.NewFiles()
	h := &harness{
		driver: httpengine.NewDriver(sigs, alerts, files),
		flow:   detect.NewFlow(httpengine.Proto),
		state:  httpengine.NewState(),
		alerts: alerts,
		files:  files,
		sigs:   sigs,
	}
	files.Track(h.flow, h.state)
	return h
}

// feedAndStart feeds chunk, then calls StartDetection for every signature
// in sids against the current state, under the flow lock - it is used on
// the first chunk that brings a transaction a signature cares about into
// existence.
func feedAndStart(t *testing.T, h *harness, dir detect.Direction, chunk string, sids ...detect.SignatureID) {
	t.Helper()
	h.flow.Lock()
	defer h.flow.Unlock()
	h.state.Feed(dir, []byte(chunk))
	for _, sid := range sids {
		sig, ok := h.sigs.Signature(sid)
		require.True(t, ok)
		_, err := h.driver.StartDetection(h.flow, sig, dir, h.state)
		require.NoError(t, err)
	}
}

// feedAndContinue feeds chunk, then calls ContinueDetection - used for
// every chunk after a transaction's signatures have already been started.
func feedAndContinue(t *testing.T, h *harness, dir detect.Direction, chunk string) {
	t.Helper()
	h.flow.Lock()
	defer h.flow.Unlock()
	h.state.Feed(dir, []byte(chunk))
	require.NoError(t, h.driver.ContinueDetection(h.flow, dir, h.state))
}

// advancePastComplete moves dir's inspect-tx-id past every leading
// transaction that has nothing left to change, the way the surrounding
// engine would once it is done with them - without this, a later
// StartDetection call triggered by a brand new transaction would also
// re-walk and re-alert on transactions already fully resolved.
func advancePastComplete(h *harness, dir detect.Direction) {
	p := httpengine.NewProvider()
	count := p.GetTxCount(httpengine.Proto, h.state)
	completion := p.GetTxCompletionStatus(httpengine.Proto, dir)
	cur := uint64(p.GetInspectTxID(httpengine.Proto, h.state, dir))
	for cur < count {
		tx, _ := p.GetTx(httpengine.Proto, h.state, detect.TxID(cur))
		if p.GetTxProgress(httpengine.Proto, tx, dir) < completion {
			break
		}
		cur++
	}
	h.driver.UpdateInspectTxID(h.flow, h.state, dir, detect.TxID(cur))
}

func TestScenarioS1SingleChunkNoMatch(t *testing.T) {
	h := newHarness(t, httpengine.Sig{ID: 1, Method: "POST", Cookie: "dummy"})

	feedAndStart(t, h, detect.ToServer, "POST / HTTP/1.0\r\n", 1)

	require.Empty(t, h.alerts.Alerts(), "no alert expected on a single-line chunk")
	require.Len(t, h.state.Transactions, 1)

	tx := h.state.Transactions[0].Detect
	require.NotNil(t, tx, "one Item should have been persisted for tx 0")
}

func TestScenarioS2MultiChunkMatch(t *testing.T) {
	h := newHarness(t, httpengine.Sig{ID: 1, Method: "POST", Cookie: "dummy"})

	feedAndStart(t, h, detect.ToServer, "POST / HTTP/1.0\r\n", 1)
	require.Empty(t, h.alerts.Alerts())

	feedAndContinue(t, h, detect.ToServer, "User-Agent: Mozilla/1.0\r\n")
	require.Empty(t, h.alerts.Alerts(), "user-agent isn't part of this signature and shouldn't change the outcome")

	feedAndContinue(t, h, detect.ToServer, "Cookie: dummy\r\nContent-Length: 10\r\n\r\n")
	require.Len(t, h.alerts.Alerts(), 1, "cookie arriving should complete the match and alert exactly once")
	require.Equal(t, detect.SignatureID(1), h.alerts.Alerts()[0].SID)
	require.Equal(t, detect.TxID(0), h.alerts.Alerts()[0].TxID)

	feedAndContinue(t, h, detect.ToServer, "Http Body!")
	require.Len(t, h.alerts.Alerts(), 1, "the body chunk must not produce a duplicate alert")
}

func TestScenarioS3PipelinedTransactions(t *testing.T) {
	h := newHarness(t,
		httpengine.Sig{ID: 1, Method: "POST", UserAgent: "Mozilla", Cookie: "dummy"},
		httpengine.Sig{ID: 2, Method: "GET", UserAgent: "Firefox", Cookie: "dummy2"},
	)

	feedAndStart(t, h, detect.ToServer,
		"POST / HTTP/1.0\r\nUser-Agent: Mozilla\r\nCookie: dummy\r\nContent-Length: 0\r\n\r\n",
		1, 2)
	advancePastComplete(h, detect.ToServer)

	require.Len(t, h.alerts.Alerts(), 1)
	require.Equal(t, detect.SignatureID(1), h.alerts.Alerts()[0].SID)
	require.Equal(t, detect.TxID(0), h.alerts.Alerts()[0].TxID)

	feedAndStart(t, h, detect.ToServer,
		"GET / HTTP/1.0\r\nUser-Agent: Firefox\r\nCookie: dummy2\r\nContent-Length: 0\r\n\r\n",
		1, 2)
	advancePastComplete(h, detect.ToServer)

	require.Len(t, h.alerts.Alerts(), 2)
	require.Equal(t, detect.SignatureID(2), h.alerts.Alerts()[1].SID)
	require.Equal(t, detect.TxID(1), h.alerts.Alerts()[1].TxID)
}

func multipartBody(filename string) string {
	return "------boundary\r\n" +
		`Content-Disposition: form-data; name="file"; filename="` + filename + `"` + "\r\n" +
		"Content-Type: application/octet-stream\r\n\r\n" +
		"FILEDATA\r\n" +
		"------boundary--\r\n"
}

func TestScenarioS4FilestoreMatchEnablesStore(t *testing.T) {
	h := newHarness(t, httpengine.Sig{ID: 4, Method: "POST", URI: "/upload.cgi", Filestore: true})

	body := multipartBody("report.pdf")
	req := fmt.Sprintf("POST /upload.cgi HTTP/1.0\r\nContent-Length: %d\r\n\r\n%s", len(body), body)

	feedAndStart(t, h, detect.ToServer, req, 4)

	require.Len(t, h.alerts.Alerts(), 1)
	require.Equal(t, detect.SignatureID(4), h.alerts.Alerts()[0].SID)
	require.NotNil(t, h.state.Transactions[0].File)
	require.True(t, h.state.Transactions[0].File.Stored)
}

func TestScenarioS5FilestoreNonMatchDisablesStore(t *testing.T) {
	h := newHarness(t, httpengine.Sig{ID: 5, Method: "GET", URI: "/upload.cgi", Filestore: true})

	body := multipartBody("report.pdf")
	req := fmt.Sprintf("POST /upload.cgi HTTP/1.0\r\nContent-Length: %d\r\n\r\n%s", len(body), body)

	feedAndStart(t, h, detect.ToServer, req, 5)

	require.Empty(t, h.alerts.Alerts(), "method mismatch must not alert")
	require.NotNil(t, h.state.Transactions[0].File)
	require.True(t, h.state.Transactions[0].File.NoStore, "the only filestore candidate declined, store must be disabled")
}

func TestScenarioS6FilenameRestrictsFilestore(t *testing.T) {
	h := newHarness(t, httpengine.Sig{ID: 6, Filestore: true, Filename: "nomatch"})

	body := multipartBody("report.pdf")
	req := fmt.Sprintf("POST /upload.cgi HTTP/1.0\r\nContent-Length: %d\r\n\r\n%s", len(body), body)

	feedAndStart(t, h, detect.ToServer, req, 6)

	require.Empty(t, h.alerts.Alerts(), "filename mismatch must not alert")
	require.NotNil(t, h.state.Transactions[0].File)
	require.False(t, h.state.Transactions[0].File.Stored)
	require.True(t, h.state.Transactions[0].File.NoStore)
}
