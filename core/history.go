package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultHistoryCapacity = 100

// WorkExecutionRecord captures one completed Work execution, adapted from
// the teacher's TaskExecutionRecord ring buffer entry.
type WorkExecutionRecord struct {
	WorkID     uuid.UUID
	Kind       Kind
	StartedAt  time.Time
	FinishedAt time.Time
	Duration   time.Duration
	Faulted    bool
}

// SchedulerStats is a point-in-time snapshot of a Scheduler's internal
// state, grounded on the teacher's RunnerStats.
type SchedulerStats struct {
	Name              string
	ActiveQueueLen    int
	PendingQueueLen   int
	BarrierQueueLen   int
	InAtomic          bool
	InBarrier         bool
	WaitingSync       bool
	WaitingBarrier    bool
	RunningAsyncCount int64
	Disposed          bool
}

type executionHistory struct {
	mu    sync.Mutex
	items []WorkExecutionRecord
	head  int
	count int
}

func newExecutionHistory(capacity int) *executionHistory {
	if capacity < 1 {
		capacity = defaultHistoryCapacity
	}
	return &executionHistory{items: make([]WorkExecutionRecord, capacity)}
}

func (h *executionHistory) add(rec WorkExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.items) == 0 {
		return
	}
	h.items[h.head] = rec
	h.head = (h.head + 1) % len(h.items)
	if h.count < len(h.items) {
		h.count++
	}
}

func (h *executionHistory) recent(limit int) []WorkExecutionRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 {
		return nil
	}
	if limit <= 0 || limit > h.count {
		limit = h.count
	}
	out := make([]WorkExecutionRecord, 0, limit)
	for i := range limit {
		idx := (h.head - 1 - i + len(h.items)) % len(h.items)
		out = append(out, h.items[idx])
	}
	return out
}
