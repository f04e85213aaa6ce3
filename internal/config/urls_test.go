package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name             string
		mutate           func(*Config)
		expectedAddress  string
		expectedWSURL    string
		expectedEndpoint string
	}{
		{
			name:             "default configuration",
			mutate:           func(*Config) {},
			expectedAddress:  "127.0.0.1:8081",
			expectedWSURL:    "ws://127.0.0.1:8081/ws",
			expectedEndpoint: "127.0.0.1:8081",
		},
		{
			name: "custom host and port",
			mutate: func(c *Config) {
				c.Host = "example.com"
				c.Port = "8080"
			},
			expectedAddress:  "example.com:8080",
			expectedWSURL:    "ws://example.com:8080/ws",
			expectedEndpoint: "example.com:8080",
		},
		{
			name: "websocket transport uses URL",
			mutate: func(c *Config) {
				c.Transport = TransportWebSocket
				c.WSPath = "agent/stream"
			},
			expectedAddress:  "127.0.0.1:8081",
			expectedWSURL:    "ws://127.0.0.1:8081/agent/stream",
			expectedEndpoint: "ws://127.0.0.1:8081/agent/stream",
		},
		{
			name: "empty websocket path falls back",
			mutate: func(c *Config) {
				c.Transport = TransportWebSocket
				c.WSPath = ""
			},
			expectedAddress:  "127.0.0.1:8081",
			expectedWSURL:    "ws://127.0.0.1:8081/ws",
			expectedEndpoint: "ws://127.0.0.1:8081/ws",
		},
		{
			name: "ipv6 host is bracketed",
			mutate: func(c *Config) {
				c.Host = "::1"
			},
			expectedAddress:  "[::1]:8081",
			expectedWSURL:    "ws://[::1]:8081/ws",
			expectedEndpoint: "[::1]:8081",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			assert.Equal(t, tt.expectedAddress, cfg.Address())
			assert.Equal(t, tt.expectedWSURL, cfg.WebSocketURL())
			assert.Equal(t, tt.expectedEndpoint, cfg.Endpoint())
			assert.Contains(t, cfg.String(), tt.expectedEndpoint)
		})
	}
}
