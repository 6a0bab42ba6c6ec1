// Package metrics provides a Prometheus-backed Metrics for a corosched
// Scheduler (which uses core.NilMetrics unless one is configured), adapted
// from the teacher's
// observability/prometheus.MetricsExporter.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/taskloop/corosched/core"

	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// Exporter adapts core.Metrics to Prometheus collectors.
type Exporter struct {
	workDurationSeconds *prom.HistogramVec
	faultTotal          *prom.CounterVec
	rejectedTotal       *prom.CounterVec
	queueDepth          *prom.GaugeVec
}

var _ core.Metrics = (*Exporter)(nil)

// NewExporter creates and registers Prometheus collectors for core.Metrics.
func NewExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*Exporter, error) {
	if namespace == "" {
		namespace = "corosched"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "work_duration_seconds",
		Help:      "Synchronous-region execution duration of a dequeued Work item, in seconds.",
		Buckets:   buckets,
	}, []string{"scheduler"})
	faultVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "fault_total",
		Help:      "Total number of unhandled faults (panics or errors) from submitted work.",
	}, []string{"scheduler"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "rejected_total",
		Help:      "Total number of submissions rejected because the scheduler was closed.",
	}, []string{"scheduler", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "active_queue_depth",
		Help:      "Current active-queue depth.",
	}, []string{"scheduler"})

	registrations := []func() error{
		func() (err error) { durationVec, err = registerCollector(reg, durationVec); return },
		func() (err error) { faultVec, err = registerCollector(reg, faultVec); return },
		func() (err error) { rejectedVec, err = registerCollector(reg, rejectedVec); return },
		func() (err error) { queueDepthVec, err = registerCollector(reg, queueDepthVec); return },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return nil, err
		}
	}

	return &Exporter{
		workDurationSeconds: durationVec,
		faultTotal:          faultVec,
		rejectedTotal:       rejectedVec,
		queueDepth:          queueDepthVec,
	}, nil
}

// RecordWorkDuration records a Work item's synchronous execution duration.
func (m *Exporter) RecordWorkDuration(schedulerName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.workDurationSeconds.WithLabelValues(normalizeLabel(schedulerName)).Observe(duration.Seconds())
}

// RecordFault records an unhandled fault.
func (m *Exporter) RecordFault(schedulerName string) {
	if m == nil {
		return
	}
	m.faultTotal.WithLabelValues(normalizeLabel(schedulerName)).Inc()
}

// RecordQueueDepth records the current active-queue depth.
func (m *Exporter) RecordQueueDepth(schedulerName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(schedulerName)).Set(float64(depth))
}

// RecordRejected records a rejected submission.
func (m *Exporter) RecordRejected(schedulerName string, reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(normalizeLabel(schedulerName), normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
