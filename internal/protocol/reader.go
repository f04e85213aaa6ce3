package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ZerkerEOD/hostlink/internal/config"
)

const (
	// MaxLineSize bounds a single command or length line in line framing.
	MaxLineSize = 64 * 1024
	// LegacyMessageSize bounds one command read in legacy framing. It does
	// not follow the transfer chunk size.
	LegacyMessageSize = 1024
)

var (
	// ErrConnection marks a failure on the peer connection itself, as
	// opposed to a local file. It is fatal to the session.
	ErrConnection = errors.New("connection error")
	// ErrLineTooLong is returned when a line exceeds MaxLineSize.
	ErrLineTooLong = errors.New("line exceeds maximum size")
)

// Reader frames inbound messages. Command reads and upload body reads share
// one buffer so bytes that arrive together with a command are not lost.
type Reader struct {
	br      *bufio.Reader
	framing config.Framing
}

// NewReader wraps r using the given framing.
func NewReader(r io.Reader, framing config.Framing) *Reader {
	return &Reader{
		br:      bufio.NewReaderSize(r, MaxLineSize),
		framing: framing,
	}
}

// Framing reports the framing mode the reader was built with.
func (r *Reader) Framing() config.Framing {
	return r.framing
}

// ReadMessage returns the next command message. It returns io.EOF once the
// peer has closed the stream.
func (r *Reader) ReadMessage() ([]byte, error) {
	if r.framing == config.FramingLegacy {
		buf := make([]byte, LegacyMessageSize)
		n, err := r.ReadChunk(buf)
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}

	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, err
		}
		// Blank lines are keep-alive noise, not commands.
		if len(line) == 0 {
			continue
		}
		return []byte(line), nil
	}
}

// ReadLine returns the next line without its "\n" or "\r\n" terminator. A
// final unterminated line before EOF is returned as a line.
func (r *Reader) ReadLine() (string, error) {
	line, err := r.br.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", fmt.Errorf("%w: %w (%d bytes)", ErrConnection, ErrLineTooLong, MaxLineSize)
	case errors.Is(err, io.EOF):
		if len(line) == 0 {
			return "", io.EOF
		}
	case err != nil:
		return "", fmt.Errorf("%w: read: %v", ErrConnection, err)
	}

	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	return string(line), nil
}

// ReadChunk performs one read of at most len(p) bytes. A zero-length read is
// reported as io.EOF: the peer has nothing more to send.
func (r *Reader) ReadChunk(p []byte) (int, error) {
	n, err := r.br.Read(p)
	if n > 0 {
		return n, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return 0, io.EOF
	}
	return 0, fmt.Errorf("%w: read: %v", ErrConnection, err)
}

// Read implements io.Reader over the buffered stream for body transfers.
// Connection errors other than EOF are wrapped with ErrConnection.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.br.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: read: %v", ErrConnection, err)
	}
	return n, err
}

// Replyf writes one formatted reply to the peer. Write failures are
// connection errors.
func Replyf(w io.Writer, format string, args ...interface{}) error {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		return fmt.Errorf("%w: write: %v", ErrConnection, err)
	}
	return nil
}
