package httpengine

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/cuemby/vigil/pkg/detect"
)

// crlf is the line terminator this parser looks for; no bare-\n
// tolerance, real HTTP/1.x doesn't need it and neither do the streams
// this package is fed.
var crlf = []byte("\r\n")

var knownMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"HEAD": true, "OPTIONS": true, "PATCH": true,
}

// Feed appends data to s's to_server parse buffer and advances as many
// transactions as the now-available bytes allow. A call that doesn't
// complete a request line, a header line, or the expected body length
// simply accumulates into s.pending/tx.bodyBuf and returns, waiting for
// the next Feed - exactly the "not enough data yet" case the core's
// engines are built to suspend on.
//
// Only to_server is modeled; a to_client call is a no-op.
func (s *State) Feed(dir detect.Direction, data []byte) {
	if dir != detect.ToServer {
		return
	}
	s.pending = append(s.pending, data...)

	for {
		if s.cur == nil {
			if !s.startTransaction() {
				return
			}
			continue
		}

		tx := s.cur
		switch {
		case tx.ReqProgress < progressHeaders:
			if !s.consumeHeaderLine(tx) {
				return
			}
		case tx.ReqProgress < progressBody:
			if tx.ContentLength == 0 {
				tx.ReqProgress = progressComplete
				s.cur = nil
			} else {
				tx.ReqProgress = progressBody
			}
		default:
			if !s.consumeBody(tx) {
				return
			}
		}
	}
}

// startTransaction tries to parse a request line out of pending and, on
// success, opens a new transaction for it. Returns false when there
// isn't a full line yet, or the line doesn't look like a request line
// at all (the caller should stop and wait for more bytes either way).
func (s *State) startTransaction() bool {
	idx := bytes.Index(s.pending, crlf)
	if idx < 0 {
		return false
	}
	line := s.pending[:idx]
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) < 2 || !knownMethods[string(parts[0])] {
		return false
	}
	s.pending = s.pending[idx+2:]

	tx := &Transaction{
		ID:          uint64(len(s.Transactions)),
		Method:      string(parts[0]),
		URI:         string(parts[1]),
		ReqProgress: progressRequestLine,
	}
	s.Transactions = append(s.Transactions, tx)
	s.cur = tx
	return true
}

// consumeHeaderLine pulls one header line (or the blank line ending the
// header block) off pending. Returns false when a full line isn't
// available yet.
func (s *State) consumeHeaderLine(tx *Transaction) bool {
	idx := bytes.Index(s.pending, crlf)
	if idx < 0 {
		return false
	}
	line := s.pending[:idx]
	s.pending = s.pending[idx+2:]

	if len(line) == 0 {
		tx.ReqProgress = progressHeaders
		return true
	}
	applyHeader(tx, line)
	return true
}

// applyHeader folds one "Key: Value" header line into the handful of
// fields the registered engines care about.
func applyHeader(tx *Transaction, line []byte) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return
	}
	key := strings.TrimSpace(string(line[:idx]))
	val := strings.TrimSpace(string(line[idx+1:]))

	switch strings.ToLower(key) {
	case "user-agent":
		tx.UserAgent = val
	case "cookie":
		tx.Cookie = val
	case "content-length":
		if n, err := strconv.Atoi(val); err == nil {
			tx.ContentLength = n
		}
	}
}

// consumeBody drains as much of the expected body as pending currently
// holds, scanning it for a multipart filename along the way. Returns
// false when no new body bytes are available yet.
func (s *State) consumeBody(tx *Transaction) bool {
	need := tx.ContentLength - tx.bodyReceived
	if need <= 0 {
		tx.ReqProgress = progressComplete
		s.cur = nil
		return true
	}
	take := len(s.pending)
	if take > need {
		take = need
	}
	if take == 0 {
		return false
	}

	tx.bodyBuf = append(tx.bodyBuf, s.pending[:take]...)
	s.pending = s.pending[take:]
	tx.bodyReceived += take
	extractFilename(tx)

	if tx.bodyReceived >= tx.ContentLength {
		tx.ReqProgress = progressComplete
		s.cur = nil
	}
	return true
}

// filenameMarker is the multipart Content-Disposition attribute this
// demo looks for; a real parser would honor the boundary and part
// headers properly, this one just scans the accumulated body for the
// one attribute the filestore engine needs.
const filenameMarker = `filename="`

func extractFilename(tx *Transaction) {
	if tx.File != nil {
		return
	}
	idx := bytes.Index(tx.bodyBuf, []byte(filenameMarker))
	if idx < 0 {
		return
	}
	start := idx + len(filenameMarker)
	end := bytes.IndexByte(tx.bodyBuf[start:], '"')
	if end < 0 {
		return
	}
	tx.File = &File{Name: string(tx.bodyBuf[start : start+end])}
}
