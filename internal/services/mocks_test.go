package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/pgload/pkg/pgload"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

// mockConn is a test double for both pgload.DBConnection and
// pgload.PooledConnection. Every Exec is recorded; constraint lookups report
// the constraint as present.
type mockConn struct {
	mu         sync.Mutex
	executed   []string
	args       [][]any
	execFunc   func(sql string, args []any) error
	acquireErr error
	acquired   int
	released   int
}

func (m *mockConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	m.executed = append(m.executed, sql)
	m.args = append(m.args, args)
	m.mu.Unlock()

	if m.execFunc != nil {
		if err := m.execFunc(sql, args); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockConn) QueryRow(_ context.Context, _ string, _ ...any) pgload.Row {
	return &mockRow{}
}

func (m *mockConn) Acquire(_ context.Context) (pgload.PooledConnection, error) {
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.mu.Lock()
	m.acquired++
	m.mu.Unlock()
	return m, nil
}

func (m *mockConn) Release() {
	m.mu.Lock()
	m.released++
	m.mu.Unlock()
}

func (m *mockConn) inserts() [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out [][]any
	for i, sql := range m.executed {
		if strings.HasPrefix(sql, "INSERT INTO") {
			out = append(out, m.args[i])
		}
	}
	return out
}

// mockRow answers every EXISTS lookup with true.
type mockRow struct{}

func (m *mockRow) Scan(dest ...any) error {
	if b, ok := dest[0].(*bool); ok {
		*b = true
		return nil
	}
	return fmt.Errorf("unexpected scan target %T", dest[0])
}

type recordingLogger struct {
	mu      sync.Mutex
	infos   []string
	errors  []string
	verbose []string
}

func (l *recordingLogger) Verbose(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = append(l.verbose, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type mockLogger struct{}

func (m *mockLogger) Verbose(_ string, _ ...interface{}) {}
func (m *mockLogger) Info(_ string, _ ...interface{})    {}
func (m *mockLogger) Error(_ string, _ ...interface{})   {}
