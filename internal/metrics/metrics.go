// Package metrics records API and lifecycle metrics for a single run.
//
// The process is short-lived (one action per invocation), so metrics are not
// scraped. When a Pushgateway URL is configured they are pushed once at the
// end of the run; otherwise they only exist for the duration of the process.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "quantserver"

// API call results.
const (
	ResultSuccess      = "success"
	ResultClientError  = "client_error"
	ResultServerError  = "server_error"
	ResultNetworkError = "network_error"
	ResultError        = "error"
)

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	actionsTotal       *prometheus.CounterVec
	actionDuration     *prometheus.HistogramVec
	lastSuccess        *prometheus.GaugeVec
	pollDuration       *prometheus.HistogramVec
	snapshotsPruned    prometheus.Counter
	backupSnapshots    prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of provider API requests by method and result",
			},
			[]string{"provider", "method", "result"},
		),
		apiRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "Latency of provider API requests in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"provider", "method"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "actions_total",
				Help:      "Total number of lifecycle actions by result",
			},
			[]string{"action", "result"},
		),
		actionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "action_duration_seconds",
				Help:      "Duration of lifecycle actions in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 13), // 1s to ~68min
			},
			[]string{"action"},
		),
		lastSuccess: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful lifecycle action",
			},
			[]string{"action"},
		),
		pollDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "lifecycle",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a resource to settle, by outcome",
				Buckets:   prometheus.ExponentialBuckets(10, 2, 10), // 10s to ~85min
			},
			[]string{"resource", "outcome"},
		),
		snapshotsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshots",
			Name:      "pruned_total",
			Help:      "Total number of backup snapshots deleted by pruning",
		}),
		backupSnapshots: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshots",
			Name:      "backups",
			Help:      "Number of backup snapshots observed at the last listing",
		}),
	}

	r.registry.MustRegister(
		r.apiRequestsTotal,
		r.apiRequestDuration,
		r.actionsTotal,
		r.actionDuration,
		r.lastSuccess,
		r.pollDuration,
		r.snapshotsPruned,
		r.backupSnapshots,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RecordAPIRequest records one HTTP attempt.
func (r *Recorder) RecordAPIRequest(provider, method, result string, latency time.Duration) {
	if r == nil {
		return
	}
	r.apiRequestsTotal.WithLabelValues(provider, method, result).Inc()
	r.apiRequestDuration.WithLabelValues(provider, method).Observe(latency.Seconds())
}

// RecordAction records the result of a lifecycle action.
func (r *Recorder) RecordAction(action string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	r.actionsTotal.WithLabelValues(action, result).Inc()
	r.actionDuration.WithLabelValues(action).Observe(duration.Seconds())
	if err == nil {
		r.lastSuccess.WithLabelValues(action).SetToCurrentTime()
	}
}

// RecordWait records how long a poll loop ran and how it ended.
func (r *Recorder) RecordWait(resource, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.pollDuration.WithLabelValues(resource, outcome).Observe(elapsed.Seconds())
}

// RecordPruned adds n deleted snapshots.
func (r *Recorder) RecordPruned(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.snapshotsPruned.Add(float64(n))
}

// SetBackupCount records the number of backup snapshots observed.
func (r *Recorder) SetBackupCount(n int) {
	if r == nil {
		return
	}
	r.backupSnapshots.Set(float64(n))
}

// Push sends all metrics to a Pushgateway, replacing the job's group.
func (r *Recorder) Push(ctx context.Context, url, job string, grouping map[string]string) error {
	if r == nil || url == "" {
		return nil
	}
	pusher := push.New(url, job).Gatherer(r.registry)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
