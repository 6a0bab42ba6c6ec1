package core

import "time"

// Metrics collects observability signal from a Scheduler's run loop. All
// methods must be non-blocking and safe to call concurrently; corosched
// calls them inline from the run loop, from submitting goroutines and from
// async-completion goroutines, so a slow Metrics implementation directly
// slows scheduler turns and submissions.
type Metrics interface {
	// RecordWorkDuration records how long a dequeued Work item's
	// synchronous region took to execute.
	RecordWorkDuration(schedulerName string, duration time.Duration)
	// RecordFault records an unhandled fault (panic or error) from work.
	RecordFault(schedulerName string)
	// RecordQueueDepth records the current active-queue length.
	RecordQueueDepth(schedulerName string, depth int)
	// RecordRejected records a submission dropped because the scheduler
	// was already closed.
	RecordRejected(schedulerName string, reason string)
}

// NilMetrics discards everything; it's the default when no Metrics is
// configured.
type NilMetrics struct{}

func (NilMetrics) RecordWorkDuration(schedulerName string, duration time.Duration) {}
func (NilMetrics) RecordFault(schedulerName string)                               {}
func (NilMetrics) RecordQueueDepth(schedulerName string, depth int)                {}
func (NilMetrics) RecordRejected(schedulerName string, reason string)              {}
