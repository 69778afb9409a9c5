// Package metrics records per-run counters for a load without tying the
// loader to a metrics system. The loader depends only on Backend; concrete
// systems live in subpackages.
package metrics

import (
	"context"

	"github.com/vvka-141/pgload/pkg/pgload"
)

// Metric names shared by every backend.
const (
	RecordsTotal       = "pgload_records_total"
	RunsTotal          = "pgload_runs_total"
	RunDurationSeconds = "pgload_run_duration_seconds"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// Observe records a duration-style value.
	Observe(name string, value float64, labels Labels)
	// Flush pushes collected metrics, if the backend needs it.
	Flush(ctx context.Context) error
}

// Nop discards everything. It is the default when no backend is configured.
type Nop struct{}

func (Nop) IncCounter(string, float64, Labels) {}
func (Nop) Observe(string, float64, Labels)    {}
func (Nop) Flush(context.Context) error        { return nil }

// RecordRun translates a finished run into metrics on b.
func RecordRun(b Backend, res *pgload.LoadResult) {
	if b == nil || res == nil {
		return
	}

	recordCount(b, "read", res.Read)
	recordCount(b, "duplicates_removed", res.Removed)
	recordCount(b, "written", res.Written)

	status := "success"
	if !res.Succeeded() {
		status = res.FailureKind() + "_failure"
	}
	b.IncCounter(RunsTotal, 1, Labels{"status": status})
	b.Observe(RunDurationSeconds, res.Duration.Seconds(), Labels{"status": status})
}

func recordCount(b Backend, kind string, n int) {
	if n <= 0 {
		return
	}
	b.IncCounter(RecordsTotal, float64(n), Labels{"kind": kind})
}
