package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/vvka-141/pgload/internal/db"
	"github.com/vvka-141/pgload/internal/extract"
	"github.com/vvka-141/pgload/internal/metrics"
	"github.com/vvka-141/pgload/internal/normalize"
	"github.com/vvka-141/pgload/internal/schema"
	"github.com/vvka-141/pgload/internal/upsert"
	"github.com/vvka-141/pgload/pkg/pgload"
)

// Outcome log lines. Exactly one of them is written per run that gets past
// extraction.
const (
	successFormat = "Data sent to Postgres successfully: %d record(s) written to %s"
	failureFormat = "Error sending data to Postgres: %v"
)

type connectFunc func(ctx context.Context, config *pgload.ConnectionConfig) (pgload.DBConnection, func(), error)

// Loader runs the extract, normalize and write pipeline.
// Thread-Safety: NOT safe for concurrent Run() calls on the same instance.
type Loader struct {
	connectorFactory pgload.ConnectorFactory
	logger           pgload.Logger
	metrics          metrics.Backend
	ensurer          *schema.Ensurer
	writer           *upsert.Writer
	connect          connectFunc
}

// NewLoader creates a Loader. It panics on a nil connectorFactory or logger,
// since those are wiring mistakes. A nil backend disables metrics.
func NewLoader(connectorFactory pgload.ConnectorFactory, logger pgload.Logger, backend metrics.Backend) *Loader {
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	if backend == nil {
		backend = metrics.Nop{}
	}

	l := &Loader{
		connectorFactory: connectorFactory,
		logger:           logger,
		metrics:          backend,
		ensurer:          schema.NewEnsurer(logger),
		writer:           upsert.NewWriter(logger),
	}
	l.connect = l.defaultConnect
	return l
}

func (l *Loader) defaultConnect(ctx context.Context, config *pgload.ConnectionConfig) (pgload.DBConnection, func(), error) {
	connector, err := l.connectorFactory(config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w: %w", pgload.ErrConnectionFailed, err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		if c, ok := connector.(io.Closer); ok {
			c.Close()
		}
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		if c, ok := connector.(io.Closer); ok {
			c.Close()
		}
	}
	return db.NewPoolAdapter(pool), cleanup, nil
}

// Run loads cfg.InputPath into cfg.Table.
//
// A configuration or extraction failure is returned as the error and nothing
// is logged. Everything after normalization is one failure boundary: a
// connection, schema or write failure is logged as a single error line and
// carried in LoadResult.Err, and Run itself returns a nil error.
func (l *Loader) Run(ctx context.Context, cfg pgload.LoadConfig) (*pgload.LoadResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &pgload.LoadResult{RunID: uuid.New()}
	l.logger.Verbose("run %s: loading %s into table %s", result.RunID, cfg.InputPath, cfg.Table)

	raw, err := extract.File(cfg.InputPath)
	if err != nil {
		return nil, err
	}

	norm, err := normalize.New(cfg.Separator, l.logger).Normalize(raw)
	if err != nil {
		return nil, err
	}
	result.Read = norm.Read
	result.Removed = norm.Removed

	result.Written, result.Err = l.write(ctx, cfg, norm)
	result.Duration = time.Since(start)

	if result.Err != nil {
		l.logger.Error(failureFormat, result.Err)
	} else {
		l.logger.Info(successFormat, result.Written, cfg.Table)
	}

	l.pushMetrics(ctx, result)
	return result, nil
}

// write is the write phase: connect, take one connection, ensure the table
// and upsert every record. The connection and pool are released on every path.
func (l *Loader) write(ctx context.Context, cfg pgload.LoadConfig, norm *normalize.Result) (int, error) {
	conn, cleanup, err := l.connect(ctx, cfg.Connection)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	pc, err := conn.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire connection: %w: %w", pgload.ErrConnectionFailed, err)
	}
	defer pc.Release()

	if err := l.ensurer.Ensure(ctx, pc, cfg.Table, cfg.ConflictKey); err != nil {
		return 0, err
	}

	return l.writer.Write(ctx, pc, cfg.Table, cfg.ConflictKey, norm.Columns, norm.Records)
}

func (l *Loader) pushMetrics(ctx context.Context, result *pgload.LoadResult) {
	metrics.RecordRun(l.metrics, result)
	if err := l.metrics.Flush(ctx); err != nil {
		l.logger.Verbose("run %s: metrics push failed: %v", result.RunID, err)
	}
}
