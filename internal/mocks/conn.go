package mocks

import (
	"bytes"
	"io"
	"net"
	"sync"
)

// MockConn is a scripted peer connection for testing. Each queued message is
// delivered by its own Read, the way a stream delivers separate peer writes
// that did not coalesce. Once the queue is empty Read reports io.EOF, as if
// the peer had closed the stream.
type MockConn struct {
	mu sync.Mutex

	reads   [][]byte
	written bytes.Buffer

	// Control behavior
	ReadError  error // returned once the queue drains, instead of io.EOF
	WriteError error
	CloseError error
	Closed     bool

	// Call tracking
	ReadCalls  int
	WriteCalls int
	CloseCalls int
}

// NewMockConn creates a connection that will deliver msgs in order.
func NewMockConn(msgs ...string) *MockConn {
	m := &MockConn{}
	m.Queue(msgs...)
	return m
}

// Queue appends messages to be read.
func (m *MockConn) Queue(msgs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.reads = append(m.reads, []byte(msg))
	}
}

// QueueBytes appends a binary message to be read.
func (m *MockConn) QueueBytes(msg []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads = append(m.reads, append([]byte(nil), msg...))
}

// Read implements io.Reader
func (m *MockConn) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++

	if m.Closed {
		return 0, net.ErrClosed
	}
	if len(m.reads) == 0 {
		if m.ReadError != nil {
			return 0, m.ReadError
		}
		return 0, io.EOF
	}

	msg := m.reads[0]
	n := copy(p, msg)
	if n < len(msg) {
		m.reads[0] = msg[n:]
	} else {
		m.reads = m.reads[1:]
	}
	return n, nil
}

// Write implements io.Writer
func (m *MockConn) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteCalls++

	if m.Closed {
		return 0, net.ErrClosed
	}
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	return m.written.Write(p)
}

// Close implements io.Closer
func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	m.Closed = true
	return m.CloseError
}

// Written returns everything written to the connection so far.
func (m *MockConn) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// Pending reports how many queued messages have not been read.
func (m *MockConn) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reads)
}
