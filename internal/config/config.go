package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ZerkerEOD/hostlink/pkg/debug"
	"github.com/joho/godotenv"
)

// Transport selects how the client reaches the peer.
type Transport string

const (
	TransportTCP       Transport = "tcp"
	TransportWebSocket Transport = "ws"
)

// Framing selects how inbound commands are delimited on the stream.
type Framing string

const (
	// FramingLine expects newline-terminated commands and length-prefixed
	// upload bodies.
	FramingLine Framing = "line"
	// FramingLegacy treats one transport read as one command and reads a
	// single chunk per upload.
	FramingLegacy Framing = "legacy"
)

const (
	DefaultHost        = "127.0.0.1"
	DefaultPort        = "8081"
	DefaultWSPath      = "/ws"
	DefaultChunkSize   = 1024
	MaxChunkSize       = 1 << 20
	DefaultDialTimeout = 10 * time.Second
)

// Environment keys understood by the client. The same keys are read from
// the process environment and from a .env file.
const (
	EnvHost        = "HL_HOST"
	EnvPort        = "HL_PORT"
	EnvTransport   = "HL_TRANSPORT"
	EnvWSPath      = "HL_WS_PATH"
	EnvFraming     = "HL_FRAMING"
	EnvChunkSize   = "HL_CHUNK_SIZE"
	EnvDialTimeout = "HL_DIAL_TIMEOUT"
	EnvMetricsAddr = "HL_METRICS_ADDR"
	EnvEnvFile     = "HL_ENV_FILE"
	EnvDebug       = "DEBUG"
	EnvLogLevel    = "LOG_LEVEL"
)

var envKeys = []string{
	EnvHost, EnvPort, EnvTransport, EnvWSPath, EnvFraming,
	EnvChunkSize, EnvDialTimeout, EnvMetricsAddr, EnvDebug, EnvLogLevel,
}

// Config holds the client's runtime configuration
type Config struct {
	Host        string        // Peer host
	Port        string        // Peer port
	Transport   Transport     // tcp or ws
	WSPath      string        // Request path for the websocket transport
	Framing     Framing       // line or legacy
	ChunkSize   int           // Bytes per read/write for transfers and hashing
	DialTimeout time.Duration // Connect timeout
	MetricsAddr string        // Optional listen address for /metrics
	Debug       bool          // Enable debug logging
	LogLevel    string        // DEBUG, INFO, WARNING or ERROR
}

// Default returns the configuration the client uses when nothing is set.
// The peer address matches the fixed address older builds dialed.
func Default() *Config {
	return &Config{
		Host:        DefaultHost,
		Port:        DefaultPort,
		Transport:   TransportTCP,
		WSPath:      DefaultWSPath,
		Framing:     FramingLine,
		ChunkSize:   DefaultChunkSize,
		DialTimeout: DefaultDialTimeout,
		LogLevel:    "INFO",
	}
}

// Environ collects the client's keys from the process environment.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, key := range envKeys {
		if value, ok := os.LookupEnv(key); ok && value != "" {
			env[key] = value
		}
	}
	return env
}

// ReadEnvFile parses a .env file into a map without touching the process
// environment.
func ReadEnvFile(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	for k, v := range env {
		env[k] = stripComment(v)
	}
	return env, nil
}

// stripComment removes a trailing "# ..." that godotenv keeps for unquoted
// values written as KEY=value # note.
func stripComment(v string) string {
	if i := strings.Index(v, " #"); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}

// Apply overlays any keys present in env. Empty values are ignored so a
// partially filled .env file cannot blank out defaults.
func (c *Config) Apply(env map[string]string) error {
	var errs []error

	if v := env[EnvHost]; v != "" {
		c.Host = v
	}
	if v := env[EnvPort]; v != "" {
		c.Port = v
	}
	if v := env[EnvTransport]; v != "" {
		c.Transport = Transport(strings.ToLower(v))
	}
	if v := env[EnvWSPath]; v != "" {
		c.WSPath = v
	}
	if v := env[EnvFraming]; v != "" {
		c.Framing = Framing(strings.ToLower(v))
	}
	if v := env[EnvChunkSize]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", EnvChunkSize, v, err))
		} else {
			c.ChunkSize = n
		}
	}
	if v := env[EnvDialTimeout]; v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: %w", EnvDialTimeout, v, err))
		} else {
			c.DialTimeout = d
		}
	}
	if v := env[EnvMetricsAddr]; v != "" {
		c.MetricsAddr = v
	}
	if v := env[EnvDebug]; v != "" {
		c.Debug = v == "true" || v == "1"
	}
	if v := env[EnvLogLevel]; v != "" {
		c.LogLevel = strings.ToUpper(v)
	}

	return errors.Join(errs...)
}

// Validate checks that the configuration can be used to dial and serve.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("peer host must not be empty")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid peer port %q", c.Port)
	}
	switch c.Transport {
	case TransportTCP, TransportWebSocket:
	default:
		return fmt.Errorf("unknown transport %q (want %s or %s)", c.Transport, TransportTCP, TransportWebSocket)
	}
	switch c.Framing {
	case FramingLine, FramingLegacy:
	default:
		return fmt.Errorf("unknown framing %q (want %s or %s)", c.Framing, FramingLine, FramingLegacy)
	}
	if c.ChunkSize < 1 || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk size %d out of range 1..%d", c.ChunkSize, MaxChunkSize)
	}
	if c.DialTimeout < 0 {
		return fmt.Errorf("dial timeout must not be negative, got %v", c.DialTimeout)
	}
	return nil
}

// ExportLogging pushes the logging settings into the environment read by
// pkg/debug and reinitializes it.
func (c *Config) ExportLogging() {
	if c.Debug {
		os.Setenv(EnvDebug, "true")
	}
	if c.LogLevel != "" {
		os.Setenv(EnvLogLevel, c.LogLevel)
	}
	debug.Reinitialize()
}
