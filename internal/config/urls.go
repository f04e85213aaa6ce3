/*
 * Package config provides configuration and peer address handling for the
 * hostlink client.
 */
package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ZerkerEOD/hostlink/pkg/debug"
)

// Address returns host:port for the tcp transport.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// WebSocketURL returns the ws:// URL for the websocket transport
func (c *Config) WebSocketURL() string {
	path := c.WSPath
	if path == "" {
		path = DefaultWSPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{
		Scheme: "ws",
		Host:   c.Address(),
		Path:   path,
	}
	return u.String()
}

// Endpoint returns what the selected transport dials: an address for tcp,
// a URL for ws.
func (c *Config) Endpoint() string {
	if c.Transport == TransportWebSocket {
		return c.WebSocketURL()
	}
	return c.Address()
}

// LogSummary writes the resolved configuration to the debug log.
func (c *Config) LogSummary() {
	debug.Info("Peer Configuration:")
	debug.Info("  Transport: %s", c.Transport)
	debug.Info("  Endpoint: %s", c.Endpoint())
	debug.Info("  Framing: %s", c.Framing)
	debug.Info("  Chunk size: %d", c.ChunkSize)
	debug.Info("  Dial timeout: %v", c.DialTimeout)
	if c.MetricsAddr != "" {
		debug.Info("  Metrics: %s", c.MetricsAddr)
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s %s (%s framing, %d byte chunks)", c.Transport, c.Endpoint(), c.Framing, c.ChunkSize)
}
