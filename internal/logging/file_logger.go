package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// FileLogger appends one "[timestamp] message" line per call to a file.
// The file is opened, appended and closed on every call; no lock is held
// between calls. Info and Error lines look the same, since the status log
// carries free text only. Verbose diagnostics never reach the status log.
type FileLogger struct {
	path string
	now  func() time.Time
}

// NewFileLogger creates a FileLogger for path. Parent directories are
// created on first write.
func NewFileLogger(path string) *FileLogger {
	return &FileLogger{
		path: path,
		now:  time.Now,
	}
}

// Path returns the log file location.
func (l *FileLogger) Path() string { return l.path }

// Verbose is a no-op: the status log holds outcome lines only.
func (l *FileLogger) Verbose(format string, args ...interface{}) {}

// Info appends the message.
func (l *FileLogger) Info(format string, args ...interface{}) {
	l.append(render(format, args))
}

// Error appends the message.
func (l *FileLogger) Error(format string, args ...interface{}) {
	l.append(render(format, args))
}

func (l *FileLogger) append(msg string) {
	if err := l.appendLine(msg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write log file %s: %v\n", l.path, err)
	}
}

func (l *FileLogger) appendLine(msg string) error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	line := fmt.Sprintf("[%s] %s\n", l.now().Format(pgload.LogTimestampLayout), msg)
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
