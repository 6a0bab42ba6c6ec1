package corosched

import "github.com/taskloop/corosched/core"

// Option configures a Scheduler at construction time, following the
// teacher's TaskSchedulerConfig functional-options pattern.
type Option func(*core.Config)

// WithLogger sets the Logger a Scheduler reports faults through. The
// default is core.NoOpLogger; see corosched/logging for a logrus-backed
// Logger.
func WithLogger(l core.Logger) Option {
	return func(c *core.Config) { c.Logger = l }
}

// WithMetrics sets the Metrics a Scheduler records through. The default is
// core.NilMetrics; see corosched/metrics for a Prometheus-backed Metrics.
func WithMetrics(m core.Metrics) Option {
	return func(c *core.Config) { c.Metrics = m }
}

// WithExecutor sets the Executor that runs the Scheduler's run loop. The
// default is core.GoExecutor, one goroutine per run-loop spawn; see
// corosched/workerpool for bounded-pool and dedicated-goroutine alternatives.
func WithExecutor(e core.Executor) Option {
	return func(c *core.Config) { c.Executor = e }
}

// WithHistoryCapacity sets how many completed Work executions History
// retains for diagnostics. The default is 100.
func WithHistoryCapacity(n int) Option {
	return func(c *core.Config) { c.HistoryCapacity = n }
}

// WithUnhandledExceptionHandler attaches a handler invoked whenever
// submitted work faults. If unset, a fault with no handler re-panics on
// whatever goroutine was driving the work at the time.
func WithUnhandledExceptionHandler(fn func(*core.Scheduler, error)) Option {
	return func(c *core.Config) { c.UnhandledException = fn }
}
