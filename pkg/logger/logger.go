// Package logger provides structured logging for Synk Hub.
// It keeps a small Field-based API on top of zap so that packages do not
// import zap directly, and supports context propagation.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general operational information.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
	// LevelFatal is for fatal errors that require program termination.
	LevelFatal
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Common field constructors for convenience.
func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{Key: key, Value: value.Format(time.RFC3339)}
}

// Any creates a field with any value.
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Format selects the encoder.
type Format string

const (
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Logger is the main logger type. It is safe for concurrent use.
type Logger struct {
	z *zap.Logger
}

// Options configures the logger.
type Options struct {
	Output     io.Writer
	Level      Level
	Format     Format
	AddCaller  bool
	CallerSkip int
}

// DefaultOptions returns sensible defaults for the logger.
func DefaultOptions() Options {
	return Options{
		Output:    os.Stdout,
		Level:     LevelInfo,
		Format:    FormatJSON,
		AddCaller: true,
	}
}

// New creates a new Logger with the given options.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var encoder zapcore.Encoder
	if opts.Format == FormatConsole {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(opts.Output), opts.Level.zapLevel())

	zopts := []zap.Option{}
	if opts.AddCaller {
		// Debug/Info/... wrap zap calls one level deep.
		zopts = append(zopts, zap.AddCaller(), zap.AddCallerSkip(1+opts.CallerSkip))
	}

	return &Logger{z: zap.New(core, zopts...)}
}

// NewFromZap wraps an existing zap logger, e.g. one built on zaptest/observer.
func NewFromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// Default creates a logger with default options.
func Default() *Logger {
	return New(DefaultOptions())
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Zap exposes the underlying zap logger.
func (l *Logger) Zap() *zap.Logger {
	return l.z
}

// With returns a new Logger with the given fields added.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(toZap(fields)...)}
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return l.z.Core().Enabled(level.zapLevel())
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...Field) {
	l.z.Debug(msg, toZap(fields)...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...Field) {
	l.z.Info(msg, toZap(fields)...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...Field) {
	l.z.Warn(msg, toZap(fields)...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...Field) {
	l.z.Error(msg, toZap(fields)...)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Context key for logger.
type ctxKey struct{}

// WithContext returns a new context with the logger attached.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context, or returns a default logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

// RequestIDKey is a common field key for request tracing.
const RequestIDKey = "request_id"

// WithRequestID returns a logger with request ID field added.
func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.With(String(RequestIDKey, requestID))
}

// Domain logging helpers.
func UserID(id string) Field        { return String("user_id", id) }
func Score(v float64) Field         { return Float64("score", v) }
func Count(n int) Field             { return Int("count", n) }
func Component(name string) Field   { return String("component", name) }
func Operation(name string) Field   { return String("operation", name) }
func Latency(d time.Duration) Field { return Duration("latency", d) }
