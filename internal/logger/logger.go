// Package logger provides a structured logging interface for corpuscrawler.
// It is built on top of zap and mirrors the shape of the logging layer the
// rest of the pipeline components depend on: a small Interface instead of a
// concrete *zap.Logger, so that a NoOp implementation can stand in for tests.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging level understood by New.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

// Interface defines the logging operations the rest of the codebase depends
// on. Nothing outside this package imports zap directly.
type Interface interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	Fatal(msg string, fields ...any)
	With(fields ...any) Interface
	Sync() error
}

// Config configures a new logger.
type Config struct {
	Level       Level
	Development bool
	Encoding    string // "json" or "console"
	OutputPaths []string
}

// ZapLogger implements Interface on top of zap.Logger.
type ZapLogger struct {
	z *zap.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		cfg = &Config{Level: InfoLevel, Encoding: "console", OutputPaths: []string{"stdout"}}
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	if cfg.Encoding != "" {
		zcfg.Encoding = cfg.Encoding
	}
	if len(cfg.OutputPaths) > 0 {
		zcfg.OutputPaths = cfg.OutputPaths
	}

	zcfg.EncoderConfig.TimeKey = "timestamp"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.MessageKey = "message"
	zcfg.EncoderConfig.StacktraceKey = ""

	zcfg.Level = zap.NewAtomicLevelAt(zapLevel(cfg.Level))

	z, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &ZapLogger{z: z}, nil
}

func zapLevel(l Level) zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) Debug(msg string, fields ...any) { l.z.Debug(msg, convertFields(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...any)  { l.z.Info(msg, convertFields(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...any)  { l.z.Warn(msg, convertFields(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...any) { l.z.Error(msg, convertFields(fields)...) }
func (l *ZapLogger) Fatal(msg string, fields ...any) { l.z.Fatal(msg, convertFields(fields)...) }

func (l *ZapLogger) With(fields ...any) Interface {
	return &ZapLogger{z: l.z.With(convertFields(fields)...)}
}

func (l *ZapLogger) Sync() error { return l.z.Sync() }

// convertFields turns variadic key/value pairs into zap.Fields, masking any
// key that looks like a credential.
func convertFields(fields []any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, (len(fields)+1)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			key = fmt.Sprintf("field%d", i)
		}
		out = append(out, zap.Any(key, maskSensitive(key, fields[i+1])))
	}
	if len(fields)%2 != 0 {
		out = append(out, zap.Any("extra", fields[len(fields)-1]))
	}
	return out
}

var sensitiveKeyParts = []string{"password", "apikey", "api_key", "token", "secret", "cookie"}

func maskSensitive(key string, value any) any {
	lk := strings.ToLower(key)
	for _, s := range sensitiveKeyParts {
		if strings.Contains(lk, s) {
			return "[REDACTED]"
		}
	}
	return value
}

// NewNoOp returns a logger that discards everything; used in tests and in
// library call sites that accept a nil logger.
func NewNoOp() Interface { return noop{} }

type noop struct{}

func (noop) Debug(string, ...any)  {}
func (noop) Info(string, ...any)   {}
func (noop) Warn(string, ...any)   {}
func (noop) Error(string, ...any)  {}
func (noop) Fatal(string, ...any)  {}
func (noop) With(...any) Interface { return noop{} }
func (noop) Sync() error           { return nil }
