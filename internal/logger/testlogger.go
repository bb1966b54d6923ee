package logger

import "sync"

// TestLogger is an Interface implementation that records every call, for
// assertions in package tests that want to check a specific message/field
// was logged without depending on zap's output format.
type TestLogger struct {
	mu    sync.Mutex
	lines []string
}

func NewTest() *TestLogger { return &TestLogger{} }

func (l *TestLogger) record(level, msg string, fields []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, level+": "+msg)
	_ = fields
}

func (l *TestLogger) Debug(msg string, fields ...any) { l.record("debug", msg, fields) }
func (l *TestLogger) Info(msg string, fields ...any)  { l.record("info", msg, fields) }
func (l *TestLogger) Warn(msg string, fields ...any)  { l.record("warn", msg, fields) }
func (l *TestLogger) Error(msg string, fields ...any) { l.record("error", msg, fields) }
func (l *TestLogger) Fatal(msg string, fields ...any) { l.record("fatal", msg, fields) }
func (l *TestLogger) With(fields ...any) Interface    { return l }
func (l *TestLogger) Sync() error                     { return nil }

func (l *TestLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}
