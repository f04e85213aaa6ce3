/*
 * Package agent runs the hostlink client session.
 *
 * A session owns the single peer connection. It reads one command at a
 * time and runs its handler to completion before reading the next, so the
 * connection is never shared between handlers. The session ends when the
 * peer closes the stream, when the peer sends EXIT, or on the first fatal
 * error.
 */
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ZerkerEOD/hostlink/internal/config"
	"github.com/ZerkerEOD/hostlink/internal/protocol"
	"github.com/ZerkerEOD/hostlink/internal/status"
	"github.com/ZerkerEOD/hostlink/internal/telemetry"
	"github.com/ZerkerEOD/hostlink/internal/transfer"
	"github.com/ZerkerEOD/hostlink/pkg/console"
	"github.com/ZerkerEOD/hostlink/pkg/debug"
	"github.com/google/uuid"
)

// transferEngine moves file bytes for UPLOAD and DOWNLOAD.
type transferEngine interface {
	Upload(path string, in *protocol.Reader, out io.Writer) (transfer.Result, error)
	Download(path string, out io.Writer) (transfer.Result, error)
}

// Session serves peer commands over one connection
type Session struct {
	// Unique ID used to tell sessions apart in the logs
	ID uuid.UUID

	conn     io.ReadWriteCloser
	reader   *protocol.Reader
	engine   transferEngine
	provider status.Provider
	log      *debug.Scoped

	// Number of commands handled, unknown messages included
	commands int

	closeOnce sync.Once
	closeErr  error
}

// NewSession creates a session over conn. Status reports are read from
// provider.
func NewSession(conn io.ReadWriteCloser, cfg *config.Config, provider status.Provider) *Session {
	id := uuid.New()
	return &Session{
		ID:       id,
		conn:     conn,
		reader:   protocol.NewReader(conn, cfg.Framing),
		engine:   transfer.NewEngine(cfg),
		provider: provider,
		log:      debug.With("session", id.String()),
	}
}

// Commands returns how many messages the session has dispatched.
func (s *Session) Commands() int {
	return s.commands
}

// Run serves commands until the peer closes the connection or sends EXIT,
// both of which return nil. Any other return is fatal. Cancelling ctx closes
// the connection, which unblocks a pending read, and Run returns ctx.Err().
// The connection is always closed when Run returns.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.log.Info("Context cancelled, closing connection")
		s.Close()
	})
	defer stop()
	defer s.Close()

	s.log.Info("Session started (%s framing)", s.reader.Framing())

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := s.reader.ReadMessage()
		if errors.Is(err, io.EOF) {
			s.log.Info("Peer closed the connection after %d commands", s.commands)
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("Failed to read command: %v", err)
			return fmt.Errorf("read command: %w", err)
		}

		exit, err := s.dispatch(protocol.Parse(msg))
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("Fatal error: %v", err)
			return err
		}
		if exit {
			return nil
		}
	}
}

// dispatch runs the handler for one command. It reports whether the session
// should end.
func (s *Session) dispatch(cmd protocol.Command) (bool, error) {
	s.commands++
	telemetry.RecordCommand(cmd.Kind.String())
	s.log.Debug("Dispatching %s command", cmd.Kind)

	switch cmd.Kind {
	case protocol.KindUpload:
		return false, s.runTransfer(func() (transfer.Result, error) {
			return s.engine.Upload(cmd.Arg, s.reader, s.conn)
		})

	case protocol.KindDownload:
		return false, s.runTransfer(func() (transfer.Result, error) {
			return s.engine.Download(cmd.Arg, s.conn)
		})

	case protocol.KindStatus:
		record, err := status.Report(s.provider, s.conn)
		if err != nil {
			return false, fmt.Errorf("status: %w", err)
		}
		s.log.Debug("Sent status report for %s %s", record.OSName, record.OSVersion)
		return false, nil

	case protocol.KindExit:
		s.log.Info("Exit requested by peer")
		return true, nil

	default:
		console.Warning("Unknown message: %s", cmd.Raw)
		telemetry.RecordUnknown()
		return false, nil
	}
}

// runTransfer runs one upload or download, then records and prints its
// outcome. Only fatal errors are returned.
func (s *Session) runTransfer(run func() (transfer.Result, error)) error {
	start := time.Now()
	res, err := run()
	elapsed := time.Since(start)

	outcome := res.Status()
	if err != nil {
		outcome = transfer.StatusFailure
	}
	telemetry.RecordTransfer(string(res.Direction), outcome, res.Bytes, elapsed)

	if err != nil {
		return fmt.Errorf("%s: %w", res.Direction, err)
	}

	switch {
	case res.OK():
		console.Success("%s %s: %s in %v (hash %s)", res.Direction, res.Path,
			console.FormatBytes(res.Bytes), elapsed.Round(time.Millisecond), res.Hash)
	case res.NoData:
		console.Warning("%s %s: no data received", res.Direction, res.Path)
	default:
		console.Error("%s %s failed: %v", res.Direction, res.Path, res.Err)
	}
	return nil
}

// Close closes the peer connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
