package logging

import "github.com/vvka-141/pgload/pkg/pgload"

// MultiLogger forwards every call to each of its loggers in order.
type MultiLogger struct {
	loggers []pgload.Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...pgload.Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) Verbose(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Verbose(format, args...)
	}
}

func (m *MultiLogger) Info(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Info(format, args...)
	}
}

func (m *MultiLogger) Error(format string, args ...interface{}) {
	for _, l := range m.loggers {
		l.Error(format, args...)
	}
}

var (
	_ pgload.Logger = (*ConsoleLogger)(nil)
	_ pgload.Logger = (*FileLogger)(nil)
	_ pgload.Logger = (*MultiLogger)(nil)
	_ pgload.Logger = (*NullLogger)(nil)
)
