package debug

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

var (
	// IsEnabled controls whether debug messages are output
	IsEnabled bool
	// CurrentLevel is the minimum level of messages to output
	CurrentLevel LogLevel

	mu     sync.RWMutex
	logger *zap.Logger

	levelNames = map[LogLevel]string{
		LevelDebug:   "DEBUG",
		LevelInfo:    "INFO",
		LevelWarning: "WARNING",
		LevelError:   "ERROR",
	}
	levelMap = map[string]LogLevel{
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"WARNING": LevelWarning,
		"WARN":    LevelWarning,
		"ERROR":   LevelError,
	}
	zapLevels = map[LogLevel]zapcore.Level{
		LevelDebug:   zapcore.DebugLevel,
		LevelInfo:    zapcore.InfoLevel,
		LevelWarning: zapcore.WarnLevel,
		LevelError:   zapcore.ErrorLevel,
	}
	zapLevelNames = map[zapcore.Level]string{
		zapcore.DebugLevel: "DEBUG",
		zapcore.InfoLevel:  "INFO",
		zapcore.WarnLevel:  "WARNING",
		zapcore.ErrorLevel: "ERROR",
	}
)

func init() {
	logger = newLogger(zapcore.Lock(os.Stdout))
	applyEnv()

	// Only log initialization if debugging is enabled
	if IsEnabled {
		Info("Debug logging initialized - Enabled: %v, Level: %s", IsEnabled, levelNames[CurrentLevel])
	}
}

// newLogger builds the zap logger behind the package functions. Filtering by
// level happens in write, so the core accepts everything.
func newLogger(ws zapcore.WriteSyncer) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		CallerKey:        "caller",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeLevel:      encodeLevel,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, zapcore.DebugLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	name, ok := zapLevelNames[l]
	if !ok {
		name = l.CapitalString()
	}
	enc.AppendString("[" + name + "]")
}

func applyEnv() {
	debugEnv := os.Getenv("DEBUG")
	IsEnabled = debugEnv == "true" || debugEnv == "1"

	levelEnv := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if level, exists := levelMap[levelEnv]; exists {
		CurrentLevel = level
	} else {
		CurrentLevel = LevelInfo // Default to INFO if not specified
	}
}

// SetOutput redirects log output, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(zapcore.AddSync(w))
}

// Sync flushes buffered log entries.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Sync()
}

// write is the single path into zap. Every exported entry point calls it
// directly so the caller skip stays at two frames.
func write(level LogLevel, fields []zap.Field, format string, v ...interface{}) {
	if !IsEnabled || level < CurrentLevel {
		return
	}

	mu.RLock()
	l := logger
	mu.RUnlock()

	if ce := l.Check(zapLevels[level], fmt.Sprintf(format, v...)); ce != nil {
		ce.Write(fields...)
	}
}

// Log prints a debug message with the specified level if debugging is enabled
func Log(level LogLevel, format string, v ...interface{}) {
	write(level, nil, format, v...)
}

// Debug logs a debug level message
func Debug(format string, v ...interface{}) {
	write(LevelDebug, nil, format, v...)
}

// Info logs an info level message
func Info(format string, v ...interface{}) {
	write(LevelInfo, nil, format, v...)
}

// Warning logs a warning level message
func Warning(format string, v ...interface{}) {
	write(LevelWarning, nil, format, v...)
}

// Error logs an error level message
func Error(format string, v ...interface{}) {
	write(LevelError, nil, format, v...)
}

// Scoped attaches one structured field to every message it logs.
type Scoped struct {
	field zap.Field
}

// With returns a Scoped logger tagging entries with key=value.
func With(key, value string) *Scoped {
	return &Scoped{field: zap.String(key, value)}
}

// Debug logs a debug level message
func (s *Scoped) Debug(format string, v ...interface{}) {
	write(LevelDebug, []zap.Field{s.field}, format, v...)
}

// Info logs an info level message
func (s *Scoped) Info(format string, v ...interface{}) {
	write(LevelInfo, []zap.Field{s.field}, format, v...)
}

// Warning logs a warning level message
func (s *Scoped) Warning(format string, v ...interface{}) {
	write(LevelWarning, []zap.Field{s.field}, format, v...)
}

// Error logs an error level message
func (s *Scoped) Error(format string, v ...interface{}) {
	write(LevelError, []zap.Field{s.field}, format, v...)
}

// Reinitialize updates the debug settings based on current environment variables
func Reinitialize() {
	applyEnv()

	if IsEnabled {
		Info("Debug logging reinitialized - Enabled: %v, Level: %s", IsEnabled, levelNames[CurrentLevel])
	}
}
