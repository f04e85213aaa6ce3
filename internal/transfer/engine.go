/*
 * Package transfer moves file bytes between the peer connection and local
 * disk, pairing every completed transfer with a content hash.
 *
 * Failures touching the local file are reported to the peer as text and the
 * session continues. Failures on the connection, or while hashing, are
 * returned to the caller and end the session.
 */
package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ZerkerEOD/hostlink/internal/config"
	"github.com/ZerkerEOD/hostlink/internal/hasher"
	"github.com/ZerkerEOD/hostlink/internal/protocol"
	"github.com/ZerkerEOD/hostlink/pkg/debug"
)

// errNoData means the peer sent no upload body.
var errNoData = errors.New("no data received")

// Engine performs uploads and downloads with a fixed chunk size.
type Engine struct {
	chunkSize int
	framing   config.Framing

	// hashFile is swapped in tests
	hashFile func(path string, chunkSize int) (hasher.Digest, error)
}

// NewEngine creates an engine using the chunk size and framing from cfg.
func NewEngine(cfg *config.Config) *Engine {
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	return &Engine{
		chunkSize: chunkSize,
		framing:   cfg.Framing,
		hashFile:  hasher.File,
	}
}

// Upload receives a file body from in and stores it at path, creating or
// truncating the file. Replies go to out.
//
// With legacy framing the body is a single chunk read, so anything longer
// than one chunk is cut off. With line framing the peer sends a decimal
// byte count on its own line followed by exactly that many bytes. That body
// is consumed even when path cannot be opened.
//
// The returned error is non-nil only for fatal failures.
func (e *Engine) Upload(path string, in *protocol.Reader, out io.Writer) (Result, error) {
	res := Result{Direction: DirectionUpload, Path: path}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		debug.Error("Failed to open upload target %s: %v", path, err)
		res.Err = err
		if e.framing != config.FramingLegacy {
			if derr := discardBody(in); errors.Is(derr, protocol.ErrConnection) {
				return res, fmt.Errorf("upload %s: %w", path, derr)
			}
		}
		return res, protocol.Replyf(out, "Failed to open file %s: %v\n", path, err)
	}

	var n int64
	if e.framing == config.FramingLegacy {
		n, err = e.receiveChunk(f, in)
	} else {
		n, err = e.receiveBody(f, in)
	}
	closeErr := f.Close()
	res.Bytes = n

	switch {
	case errors.Is(err, errNoData):
		debug.Info("No data received for upload to %s", path)
		res.NoData = true
		return res, nil
	case errors.Is(err, protocol.ErrConnection):
		return res, fmt.Errorf("upload %s: %w", path, err)
	case err == nil && closeErr != nil:
		err = closeErr
	}

	if err != nil {
		debug.Error("Failed to write upload %s: %v", path, err)
		res.Err = err
		return res, protocol.Replyf(out, "Failed to write file %s: %v\n", path, err)
	}

	if err := protocol.Replyf(out, "File saved successfully\n"); err != nil {
		return res, err
	}

	digest, err := e.hashFile(path, e.chunkSize)
	if err != nil {
		return res, fmt.Errorf("upload %s: %w", path, err)
	}
	res.Hash = digest
	debug.Info("Saved %d bytes to %s (hash %s)", n, path, digest)

	return res, protocol.Replyf(out, "File hash: %s\n", digest)
}

// receiveChunk stores the result of one chunk read.
func (e *Engine) receiveChunk(f *os.File, in *protocol.Reader) (int64, error) {
	buf := make([]byte, e.chunkSize)
	n, err := in.ReadChunk(buf)
	if errors.Is(err, io.EOF) {
		return 0, errNoData
	}
	if err != nil {
		return 0, err
	}

	w, err := f.Write(buf[:n])
	return int64(w), err
}

// readLength reads the line framed body length. An empty, zero or missing
// length is errNoData.
func readLength(in *protocol.Reader) (int64, error) {
	line, err := in.ReadLine()
	if errors.Is(err, io.EOF) {
		return 0, errNoData
	}
	if err != nil {
		return 0, err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return 0, errNoData
	}
	size, err := strconv.ParseInt(line, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid upload length %q", line)
	}
	if size == 0 {
		return 0, errNoData
	}
	return size, nil
}

// discardBody consumes a line framed body that has nowhere to go.
func discardBody(in *protocol.Reader) error {
	size, err := readLength(in)
	if err != nil {
		return err
	}
	n, err := io.CopyN(io.Discard, in, size)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: peer closed after %d of %d body bytes",
			protocol.ErrConnection, n, size)
	}
	return err
}

// receiveBody reads the length line and then the body. After a file write
// fails the rest of the body is still consumed so the stream stays in step.
func (e *Engine) receiveBody(f *os.File, in *protocol.Reader) (int64, error) {
	size, err := readLength(in)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, e.chunkSize)
	remaining := size
	var written int64
	var writeErr error

	for remaining > 0 {
		want := int64(len(buf))
		if remaining < want {
			want = remaining
		}

		n, err := in.Read(buf[:want])
		if n > 0 {
			remaining -= int64(n)
			if writeErr == nil {
				w, werr := f.Write(buf[:n])
				written += int64(w)
				writeErr = werr
			}
		}
		if remaining == 0 {
			break
		}
		if errors.Is(err, io.EOF) {
			return written, fmt.Errorf("%w: peer closed after %d of %d body bytes",
				protocol.ErrConnection, size-remaining, size)
		}
		if err != nil {
			return written, err
		}
	}

	return written, writeErr
}

// Download streams the file at path to out in chunks, then sends its hash.
// The returned error is non-nil only for fatal failures.
func (e *Engine) Download(path string, out io.Writer) (Result, error) {
	res := Result{Direction: DirectionDownload, Path: path}

	f, err := os.Open(path)
	if err != nil {
		debug.Error("Failed to open download source %s: %v", path, err)
		res.Err = err
		return res, protocol.Replyf(out, "Failed to open file %s: %v\n", path, err)
	}

	buf := make([]byte, e.chunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				f.Close()
				return res, fmt.Errorf("download %s: %w: write: %v", path, protocol.ErrConnection, err)
			}
			res.Bytes += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.Close()
			debug.Error("Failed to read %s after %d bytes: %v", path, res.Bytes, rerr)
			res.Err = rerr
			return res, protocol.Replyf(out, "\nFailed to read file %s: %v\n", path, rerr)
		}
	}
	f.Close()

	digest, err := e.hashFile(path, e.chunkSize)
	if err != nil {
		return res, fmt.Errorf("download %s: %w", path, err)
	}
	res.Hash = digest
	debug.Info("Sent %d bytes from %s (hash %s)", res.Bytes, path, digest)

	return res, protocol.Replyf(out, "\nFile hash: %s\n", digest)
}
