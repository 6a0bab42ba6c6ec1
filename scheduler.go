package corosched

import "github.com/taskloop/corosched/core"

// Scheduler re-exports core.Scheduler: the engine lives in corosched/core,
// and this package is a thin constructor-and-options facade over it.
type Scheduler = core.Scheduler

// Options re-exports core.Options, the submission-qualifier bitset.
type Options = core.Options

// SchedulerStats re-exports core.SchedulerStats.
type SchedulerStats = core.SchedulerStats

// WorkExecutionRecord re-exports core.WorkExecutionRecord.
type WorkExecutionRecord = core.WorkExecutionRecord

const (
	// Normal is the zero-qualifier submission.
	Normal = core.Normal
	// Atomic widens serialization across an async Work's suspension
	// points: nothing else on the scheduler runs until it fully completes.
	Atomic = core.Atomic
)

// Re-exported error kinds (spec.md §7).
type (
	MisuseError    = core.MisuseError
	InvariantError = core.InvariantError
	UserFault      = core.UserFault
	Cancelled      = core.Cancelled
)

// Promise re-exports core.Promise, the handle returned by the *Await
// submission variants.
type Promise = core.Promise

// New constructs a Scheduler with the given name, applying opts in order.
func New(name string, opts ...Option) *Scheduler {
	var cfg core.Config
	for _, opt := range opts {
		opt(&cfg)
	}
	return core.New(name, cfg)
}
