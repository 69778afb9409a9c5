// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A load is a short batch job with nothing to scrape, so
// results are pushed once when the run ends.
package prompush

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/vvka-141/pgload/internal/metrics"
)

// DefaultJobName is the Pushgateway job used when none is given.
const DefaultJobName = "pgload"

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string
	jobName    string
	grouping   map[string]string
	reg        *prometheus.Registry

	recordCounter *prometheus.CounterVec // pgload_records_total{kind}
	runCounter    *prometheus.CounterVec // pgload_runs_total{status}
	runDuration   *prometheus.GaugeVec   // pgload_run_duration_seconds{status}
}

// NewBackend constructs a Pushgateway backend. grouping adds Pushgateway
// grouping labels (the target table, for example) so runs against different
// tables do not overwrite each other.
func NewBackend(jobName, gatewayURL string, grouping map[string]string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = DefaultJobName
	}

	reg := prometheus.NewRegistry()

	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Records seen by the last load, partitioned by kind (read, duplicates_removed, written).",
		},
		[]string{"kind"},
	)
	runCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RunsTotal,
			Help: "Load runs, partitioned by outcome.",
		},
		[]string{"status"},
	)
	runDuration := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metrics.RunDurationSeconds,
			Help: "Wall time of the last load run in seconds.",
		},
		[]string{"status"},
	)

	for _, c := range []prometheus.Collector{recordCounter, runCounter, runDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		grouping:      grouping,
		reg:           reg,
		recordCounter: recordCounter,
		runCounter:    runCounter,
		runDuration:   runDuration,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.RecordsTotal:
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
	case metrics.RunsTotal:
		b.runCounter.WithLabelValues(labels["status"]).Add(delta)
	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) Observe(name string, value float64, labels metrics.Labels) {
	if name != metrics.RunDurationSeconds {
		return
	}
	b.runDuration.WithLabelValues(labels["status"]).Set(value)
}

// Flush pushes the registry to the Pushgateway, replacing the previous
// push for the same job and grouping.
func (b *Backend) Flush(ctx context.Context) error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	for k, v := range b.grouping {
		p = p.Grouping(k, v)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}

var _ metrics.Backend = (*Backend)(nil)
