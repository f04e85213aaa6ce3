package transfer

import (
	"github.com/ZerkerEOD/hostlink/internal/hasher"
)

// Direction is the way file bytes move relative to this host.
type Direction string

const (
	DirectionUpload   Direction = "upload"   // peer to local disk
	DirectionDownload Direction = "download" // local disk to peer
)

// Outcome labels used for transfer counters and summaries.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusEmpty   = "empty"
)

// Result describes one finished transfer.
type Result struct {
	Direction Direction
	Path      string
	Bytes     int64         // bytes written to disk or to the peer
	Hash      hasher.Digest // set only on success
	Err       error         // file error reported to the peer
	NoData    bool          // upload ended before any body arrived
}

// OK reports whether the transfer completed and a hash was sent.
func (r Result) OK() bool {
	return r.Err == nil && !r.NoData
}

// Status returns the outcome label for the result.
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return StatusFailure
	case r.NoData:
		return StatusEmpty
	default:
		return StatusSuccess
	}
}
