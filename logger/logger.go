package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes for development logging
const (
	Reset      = "\033[0m"
	DebugColor = "\033[36m" // Cyan
	InfoColor  = "\033[32m" // Green
	WarnColor  = "\033[33m" // Yellow
	ErrorColor = "\033[31m" // Red
	FatalColor = "\033[35m" // Magenta
)

// logger implements the Logger interface using zap
type logger struct {
	zap *zap.Logger
}

// Context keys
type contextKey int

const (
	requestIDKey contextKey = iota
	traceIDKey
)

// New creates a new logger with the given configuration
func New(config Config) Logger {
	var zapLogger *zap.Logger

	logLevel := zapcore.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		logLevel = zapcore.DebugLevel
	case "info":
		logLevel = zapcore.InfoLevel
	case "warn", "warning":
		logLevel = zapcore.WarnLevel
	case "error":
		logLevel = zapcore.ErrorLevel
	case "fatal":
		logLevel = zapcore.FatalLevel
	}

	if config.Environment == "production" || config.Format == "json" {
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(logLevel)
		zapLogger, _ = zapConfig.Build(zap.AddCallerSkip(1))
	} else {
		zapLogger = createDevelopmentLogger(logLevel)
	}

	return &logger{zap: zapLogger}
}

// NewDevelopment creates a development logger with colors
func NewDevelopment() Logger {
	return &logger{zap: createDevelopmentLogger(zapcore.DebugLevel)}
}

// NewProduction creates a production logger
func NewProduction() Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	zapLogger, _ := config.Build(zap.AddCallerSkip(1))

	return &logger{zap: zapLogger}
}

// createDevelopmentLogger creates a development logger with custom formatting
func createDevelopmentLogger(level zapcore.Level) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	core := zapcore.NewCore(
		encoder,
		zapcore.AddSync(os.Stdout),
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// customColorLevelEncoder adds colors to log levels
func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string

	switch level {
	case zapcore.DebugLevel:
		color = DebugColor
	case zapcore.InfoLevel:
		color = InfoColor
	case zapcore.WarnLevel:
		color = WarnColor
	case zapcore.ErrorLevel:
		color = ErrorColor
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = FatalColor
	default:
		color = Reset
	}

	levelText := level.CapitalString()
	enc.AppendString(color + levelText + Reset)
}

// Implementation of Logger interface

func (l *logger) Debug(msg string, fields ...Field) {
	l.zap.Debug(msg, fieldsToZap(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.zap.Info(msg, fieldsToZap(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.zap.Warn(msg, fieldsToZap(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.zap.Error(msg, fieldsToZap(fields)...)
}

func (l *logger) Fatal(msg string, fields ...Field) {
	l.zap.Fatal(msg, fieldsToZap(fields)...)
}

func (l *logger) Debugf(template string, args ...interface{}) {
	l.zap.Debug(fmt.Sprintf(template, args...))
}

func (l *logger) Infof(template string, args ...interface{}) {
	l.zap.Info(fmt.Sprintf(template, args...))
}

func (l *logger) Warnf(template string, args ...interface{}) {
	l.zap.Warn(fmt.Sprintf(template, args...))
}

func (l *logger) Errorf(template string, args ...interface{}) {
	l.zap.Error(fmt.Sprintf(template, args...))
}

func (l *logger) Fatalf(template string, args ...interface{}) {
	l.zap.Fatal(fmt.Sprintf(template, args...))
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fieldsToZap(fields)...)}
}

// WithContext enriches the logger with request/trace identifiers from the context.
func (l *logger) WithContext(ctx context.Context) Logger {
	fields := make([]zap.Field, 0, 2)

	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	if traceID, ok := ctx.Value(traceIDKey).(string); ok && traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}

	if len(fields) == 0 {
		return l
	}

	return &logger{zap: l.zap.With(fields...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}

// WithRequestID attaches a request identifier to the context for WithContext pickup.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithTraceID attaches a trace identifier to the context for WithContext pickup.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// field implements Field backed by a zap.Field
type field struct {
	key   string
	value interface{}
	zap   zap.Field
}

func (f field) Key() string         { return f.key }
func (f field) Value() interface{}  { return f.value }
func (f field) ZapField() zap.Field { return f.zap }

// String creates a string field
func String(key, value string) Field {
	return field{key: key, value: value, zap: zap.String(key, value)}
}

// Int creates an int field
func Int(key string, value int) Field {
	return field{key: key, value: value, zap: zap.Int(key, value)}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return field{key: key, value: value, zap: zap.Int64(key, value)}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return field{key: key, value: value, zap: zap.Bool(key, value)}
}

// Duration creates a duration field
func Duration(key string, value time.Duration) Field {
	return field{key: key, value: value, zap: zap.Duration(key, value)}
}

// Err creates an error field
func Err(err error) Field {
	return field{key: "error", value: err, zap: zap.Error(err)}
}

// Any creates a field with an arbitrary value
func Any(key string, value interface{}) Field {
	return field{key: key, value: value, zap: zap.Any(key, value)}
}

// Strings creates a string-slice field
func Strings(key string, value []string) Field {
	return field{key: key, value: value, zap: zap.Strings(key, value)}
}

func fieldsToZap(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, f := range fields {
		zapFields[i] = f.ZapField()
	}

	return zapFields
}

// noopLogger discards everything. Used in tests and as a safe default.
type noopLogger struct{}

// NewNoop creates a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(msg string, fields ...Field)              {}
func (noopLogger) Info(msg string, fields ...Field)               {}
func (noopLogger) Warn(msg string, fields ...Field)               {}
func (noopLogger) Error(msg string, fields ...Field)              {}
func (noopLogger) Fatal(msg string, fields ...Field)              {}
func (noopLogger) Debugf(template string, args ...interface{})    {}
func (noopLogger) Infof(template string, args ...interface{})     {}
func (noopLogger) Warnf(template string, args ...interface{})     {}
func (noopLogger) Errorf(template string, args ...interface{})    {}
func (noopLogger) Fatalf(template string, args ...interface{})    {}
func (n noopLogger) With(fields ...Field) Logger                  { return n }
func (n noopLogger) WithContext(ctx context.Context) Logger       { return n }
func (n noopLogger) Named(name string) Logger                     { return n }
func (noopLogger) Sync() error                                    { return nil }
