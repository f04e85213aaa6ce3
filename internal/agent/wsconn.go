package agent

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/ZerkerEOD/hostlink/pkg/debug"
	"github.com/gorilla/websocket"
)

// wsConn presents a websocket connection as a byte stream. Each inbound
// message is drained before the next one is started, so one message never
// spans two reads unless it is larger than the caller's buffer. Each Write
// is sent as one binary message.
type wsConn struct {
	ws *websocket.Conn

	// Reader for the message currently being drained
	cur io.Reader

	writeMux  sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func newWSConn(ws *websocket.Conn) *wsConn {
	return &wsConn{ws: ws}
}

// Read implements io.Reader. A close frame from the peer reads as io.EOF.
func (c *wsConn) Read(p []byte) (int, error) {
	for {
		if c.cur == nil {
			_, r, err := c.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					debug.Info("WebSocket closed by peer: %v", err)
					return 0, io.EOF
				}
				return 0, err
			}
			c.cur = r
		}

		n, err := c.cur.Read(p)
		if errors.Is(err, io.EOF) {
			c.cur = nil
			if n == 0 {
				// empty message, move on to the next one
				continue
			}
			err = nil
		}
		return n, err
	}
}

// Write implements io.Writer
func (c *wsConn) Write(p []byte) (int, error) {
	c.writeMux.Lock()
	defer c.writeMux.Unlock()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame and closes the underlying connection. It is safe
// to call from another goroutine while Read is blocked.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait)); err != nil {
			debug.Debug("Failed to send close frame: %v", err)
		}
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
