package agent

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZerkerEOD/hostlink/internal/config"
	"github.com/ZerkerEOD/hostlink/internal/mocks"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// configFor points a config at a test listener address.
func configFor(t *testing.T, addr string, transport config.Transport) *config.Config {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Host = host
	cfg.Port = port
	cfg.Transport = transport
	cfg.DialTimeout = 2 * time.Second
	return cfg
}

func TestDial_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	// The peer sends STATUS, reads the report and hangs up.
	replies := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		conn.Write([]byte("STATUS\n"))
		r := bufio.NewReader(conn)
		var lines []string
		for i := 0; i < 6; i++ {
			line, err := r.ReadString('\n')
			if err != nil {
				break
			}
			lines = append(lines, line)
		}
		replies <- strings.Join(lines, "")
	}()

	cfg := configFor(t, ln.Addr().String(), config.TransportTCP)
	conn, err := Dial(context.Background(), cfg)
	require.NoError(t, err)

	s := NewSession(conn, cfg, mocks.NewMockHostProvider())
	require.NoError(t, s.Run(context.Background()))

	select {
	case got := <-replies:
		assert.Equal(t, statusReply, got)
	case <-time.After(2 * time.Second):
		t.Fatal("peer did not receive a status report")
	}
}

func TestDial_TCPRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	_, err = Dial(context.Background(), configFor(t, addr, config.TransportTCP))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to "+addr)
}

func TestDial_UnsupportedTransport(t *testing.T) {
	cfg := config.Default()
	cfg.Transport = "carrier-pigeon"

	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestDial_WebSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	replies := make(chan string, 2)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws", r.URL.Path)
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		// an empty message must not read as end of stream
		ws.WriteMessage(websocket.TextMessage, nil)
		ws.WriteMessage(websocket.TextMessage, []byte("HELLO\n"))
		ws.WriteMessage(websocket.TextMessage, []byte("STATUS\n"))

		_, reply, err := ws.ReadMessage()
		if err != nil {
			return
		}
		replies <- string(reply)

		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		// wait for the client's close frame
		ws.ReadMessage()
	}))
	defer srv.Close()

	cfg := configFor(t, strings.TrimPrefix(srv.URL, "http://"), config.TransportWebSocket)
	conn, err := Dial(context.Background(), cfg)
	require.NoError(t, err)

	s := NewSession(conn, cfg, mocks.NewMockHostProvider())
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, 2, s.Commands())

	select {
	case got := <-replies:
		assert.Equal(t, statusReply, got)
	case <-time.After(2 * time.Second):
		t.Fatal("peer did not receive a status report")
	}
}

func TestDial_WebSocketRejected(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := configFor(t, strings.TrimPrefix(srv.URL, "http://"), config.TransportWebSocket)
	_, err := Dial(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to WebSocket server")
}

func TestWSConn_ReadAcrossSmallBuffers(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		ws.WriteMessage(websocket.BinaryMessage, []byte("abcdef"))
		ws.WriteMessage(websocket.BinaryMessage, []byte("gh"))
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		ws.ReadMessage()
	}))
	defer srv.Close()

	cfg := configFor(t, strings.TrimPrefix(srv.URL, "http://"), config.TransportWebSocket)
	conn, err := Dial(context.Background(), cfg)
	require.NoError(t, err)
	defer conn.Close()

	var got []string
	buf := make([]byte, 4)
	for {
		n, err := conn.Read(buf)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(buf[:n]))
	}
	// reads never cross a message boundary
	assert.Equal(t, []string{"abcd", "ef", "gh"}, got)
}
