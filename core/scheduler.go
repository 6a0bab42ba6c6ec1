// Package core implements the cooperative work scheduler: a single logical
// thread of serialized execution per Scheduler, with opt-in atomic work
// windows, quiescence barriers, and cross-scheduler rendezvous. It is
// adapted from the teacher's single-runner task-scheduling engine, reworked
// so the engine's own concurrency model — not a host-provided thread —
// drives admission, run-loop turns, and completion bookkeeping.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskloop/corosched/asynctask"
	"github.com/taskloop/corosched/internal/fifo"
)

// Config configures a new Scheduler. Zero value is a fully usable,
// dependency-free default.
type Config struct {
	Logger             Logger
	Metrics            Metrics
	Executor           Executor
	HistoryCapacity    int
	UnhandledException func(*Scheduler, error)
}

// Scheduler is a single-logical-thread cooperative work engine. See
// package doc for the serialization and ordering guarantees.
type Scheduler struct {
	Name string
	ID   uuid.UUID

	mu           sync.Mutex
	activeQueue  fifo.Queue[*Work]
	pendingQueue fifo.Queue[*Work]
	barrierQueue fifo.Queue[*Work]

	loopSpawned bool

	inAtomic   bool
	atomicWork *Work

	inBarrier      bool
	waitingBarrier *Work

	waitingSync          *Work // waiter-side: this scheduler is parked on a rendezvous it didn't start
	waitingOwnedSyncWork *Work // owner-side: this scheduler started a sync-qualified Work and is waiting for arrivals

	pendingSyncTargets map[*Scheduler]struct{} // schedulers this scheduler currently targets as a sync owner, in flight

	runningAsync int64 // atomic via the sync/atomic helpers in atomics.go

	disposed bool
	cancelMu sync.Mutex
	cancelFn context.CancelFunc
	cancelCtx context.Context

	logger   Logger
	metrics  Metrics
	history  *executionHistory
	executor Executor

	unhandled func(*Scheduler, error)
}

// New constructs a Scheduler. A zero Config is valid: NoOpLogger,
// NilMetrics, GoExecutor, and re-panic on unhandled faults.
func New(name string, cfg Config) *Scheduler {
	s := &Scheduler{
		Name:               name,
		ID:                 uuid.New(),
		logger:             cfg.Logger,
		metrics:            cfg.Metrics,
		executor:           cfg.Executor,
		history:            newExecutionHistory(cfg.HistoryCapacity),
		unhandled:          cfg.UnhandledException,
		pendingSyncTargets: make(map[*Scheduler]struct{}),
	}
	if s.logger == nil {
		s.logger = NoOpLogger{}
	}
	if s.metrics == nil {
		s.metrics = NilMetrics{}
	}
	if s.executor == nil {
		s.executor = GoExecutor{}
	}
	return s
}

// Stats returns a point-in-time snapshot of the scheduler's internal
// state, for diagnostics only.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStats{
		Name:              s.Name,
		ActiveQueueLen:    s.activeQueue.Len(),
		PendingQueueLen:   s.pendingQueue.Len(),
		BarrierQueueLen:   s.barrierQueue.Len(),
		InAtomic:          s.inAtomic,
		InBarrier:         s.inBarrier,
		WaitingSync:       s.waitingSync != nil,
		WaitingBarrier:    s.waitingBarrier != nil,
		RunningAsyncCount: loadCount(&s.runningAsync),
		Disposed:          s.disposed,
	}
}

// History returns the most recent completed Work executions, newest first.
func (s *Scheduler) History(limit int) []WorkExecutionRecord {
	return s.history.recent(limit)
}

// token lazily creates the scheduler's shared cancellation source and
// returns a context cancelled when Close runs.
func (s *Scheduler) token() context.Context {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.cancelCtx == nil {
		s.cancelCtx, s.cancelFn = context.WithCancel(context.Background())
	}
	return s.cancelCtx
}

// -------------------------------------------------------------------
// Submission surface
// -------------------------------------------------------------------

// newMisuse builds the MisuseError returned for an invalid submission,
// including a sync descriptor that names a nil target, the owning
// scheduler itself, a duplicate, or a scheduler that already targets the
// owner (a direct two-scheduler cycle).
func newMisuse(op, reason string) error { return &MisuseError{Op: op, Reason: reason} }

func (s *Scheduler) validateSyncTargets(op string, targets []*Scheduler) error {
	if len(targets) == 0 {
		return nil
	}
	seen := make(map[*Scheduler]struct{}, len(targets))
	for _, t := range targets {
		if t == nil {
			return newMisuse(op, "sync target is nil")
		}
		if t == s {
			return newMisuse(op, "sync target includes the owning scheduler itself")
		}
		if _, dup := seen[t]; dup {
			return newMisuse(op, "sync targets contain a duplicate")
		}
		seen[t] = struct{}{}
	}
	for _, t := range targets {
		if t.targetsOwnerDirectly(s) {
			return newMisuse(op, "sync descriptor would create a cycle with "+t.Name)
		}
	}
	return nil
}

func (s *Scheduler) targetsOwnerDirectly(owner *Scheduler) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pendingSyncTargets[owner]
	return ok
}

// Invoke submits a synchronous action. Atomic may not be combined with a
// synchronous action (there is nothing to widen a window around).
func (s *Scheduler) Invoke(action func(context.Context), opts Options, withToken bool, targets ...*Scheduler) error {
	if action == nil {
		return newMisuse("Invoke", "action is nil")
	}
	if opts&Atomic != 0 {
		return newMisuse("Invoke", "Atomic is not valid for a synchronous action")
	}
	if err := s.validateSyncTargets("Invoke", targets); err != nil {
		return err
	}
	w := newWork(KindAction, opts)
	w.action = action
	if withToken {
		w.Options |= optToken
	}
	s.submit(w, targets)
	return nil
}

// InvokeAsync submits an asynchronous function with no completion promise.
func (s *Scheduler) InvokeAsync(fn asynctask.Func, opts Options, withToken bool, targets ...*Scheduler) error {
	if fn == nil {
		return newMisuse("InvokeAsync", "fn is nil")
	}
	if err := s.validateSyncTargets("InvokeAsync", targets); err != nil {
		return err
	}
	w := newWork(KindAsyncFunc, opts)
	w.asyncFn = fn
	if withToken {
		w.Options |= optToken
	}
	s.submit(w, targets)
	return nil
}

// InvokeAwait submits an asynchronous function and returns a Promise that
// resolves once it completes (or is cancelled by Close).
func (s *Scheduler) InvokeAwait(fn asynctask.Func, opts Options, withToken bool, targets ...*Scheduler) (*Promise, error) {
	if fn == nil {
		return nil, newMisuse("InvokeAwait", "fn is nil")
	}
	if err := s.validateSyncTargets("InvokeAwait", targets); err != nil {
		return nil, err
	}
	w := newWork(KindAsyncFunc, opts)
	w.asyncFn = fn
	w.completion = NewPromise()
	if withToken {
		w.Options |= optToken
	}
	s.submit(w, targets)
	return w.completion, nil
}

// SetBarrier submits a barrier with no completion promise.
func (s *Scheduler) SetBarrier() {
	w := newWork(KindBarrier, 0)
	s.submit(w, nil)
}

// SetBarrierAwait submits a barrier and returns a Promise resolved once
// every async Work submitted before it has completed.
func (s *Scheduler) SetBarrierAwait() *Promise {
	w := newWork(KindBarrier, 0)
	w.completion = NewPromise()
	s.submit(w, nil)
	return w.completion
}

// submit records sync bookkeeping, pushes w through admission, and fans
// out sync markers to participants.
func (s *Scheduler) submit(w *Work, targets []*Scheduler) {
	if len(targets) > 0 {
		w.sync = NewRendezvous(s, targets)
		s.mu.Lock()
		for _, t := range targets {
			s.pendingSyncTargets[t] = struct{}{}
		}
		s.mu.Unlock()
	}
	s.enqueue(w)
	if w.sync != nil {
		for _, p := range targets {
			marker := newWork(KindSyncMarker, optSync)
			marker.sync = w.sync
			p.enqueue(marker)
		}
	}
}

func (s *Scheduler) clearPendingSyncTargets(targets []*Scheduler) {
	if len(targets) == 0 {
		return
	}
	s.mu.Lock()
	for _, t := range targets {
		delete(s.pendingSyncTargets, t)
	}
	s.mu.Unlock()
}

// -------------------------------------------------------------------
// Admission (spec §4.2)
// -------------------------------------------------------------------

func (s *Scheduler) enqueue(w *Work) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		s.metrics.RecordRejected(s.Name, "closed")
		s.resolveCancelled(w)
		return
	}
	switch {
	case s.inBarrier:
		s.barrierQueue.Push(w)
	case s.inAtomic:
		s.pendingQueue.Push(w)
	default:
		s.activeQueue.Push(w)
		s.spawnLoopLocked()
	}
	if w.Kind == KindBarrier {
		// Everything submitted after a barrier waits in barrierQueue
		// until the barrier is consumed.
		s.inBarrier = true
	}
	depth := s.activeQueue.Len()
	s.mu.Unlock()
	s.metrics.RecordQueueDepth(s.Name, depth)
}

func (s *Scheduler) resolveCancelled(w *Work) {
	if w.completion != nil {
		w.completion.resolve(Result{Cancelled: true})
	}
}

// postContinuation enqueues an asynctask resumption. Continuations always
// run, even after Close, because they are the remainder of already
// in-flight work, not new submissions.
func (s *Scheduler) postContinuation(owner *Work, fn func()) {
	w := newWork(KindPost, optPost)
	w.action = func(context.Context) { fn() }
	w.origin = owner

	s.mu.Lock()
	if s.inAtomic && !(owner != nil && owner == s.atomicWork) {
		s.pendingQueue.Push(w)
	} else {
		s.activeQueue.Push(w)
	}
	s.spawnLoopLocked()
	s.mu.Unlock()
}

func (s *Scheduler) spawnLoopLocked() {
	if s.loopSpawned {
		return
	}
	s.loopSpawned = true
	s.executor.Run(s.runLoop)
}

// -------------------------------------------------------------------
// Run loop (spec §4.3)
// -------------------------------------------------------------------

func (s *Scheduler) runLoop() {
	for {
		s.mu.Lock()
		if s.waitingSync != nil || s.waitingOwnedSyncWork != nil {
			s.loopSpawned = false
			s.mu.Unlock()
			return
		}
		w, ok := s.activeQueue.Pop()
		if !ok {
			s.loopSpawned = false
			s.mu.Unlock()
			return
		}

		switch {
		case w.sync != nil && w.Kind != KindSyncMarker:
			s.waitingOwnedSyncWork = w
			s.mu.Unlock()
			w.sync.ownerArrived()

		case w.Kind == KindSyncMarker:
			s.waitingSync = w
			s.mu.Unlock()
			w.sync.waiterArrived(s)

		case w.isAtomic():
			if s.inAtomic {
				s.mu.Unlock()
				s.reportFault(&InvariantError{Reason: "atomic work dequeued while another atomic window is open"})
				continue
			}
			s.inAtomic = true
			s.atomicWork = w
			s.activeQueue, s.pendingQueue = s.pendingQueue, s.activeQueue
			s.mu.Unlock()
			s.executeWork(w, workRouter{s, w})

		case w.Kind == KindBarrier:
			if loadCount(&s.runningAsync) > 0 {
				s.inBarrier = true
				s.waitingBarrier = w
				s.mu.Unlock()
			} else {
				s.inBarrier = true
				s.mu.Unlock()
				s.consumeBarrier(w)
			}

		default:
			s.mu.Unlock()
			s.executeWork(w, schedulerRouter{s})
		}
	}
}

// executeWork runs w's payload to its synchronous end (return, or first
// Await for async work) and records diagnostics.
func (s *Scheduler) executeWork(w *Work, router asynctask.ContinuationRouter) {
	started := time.Now()
	ctx := context.Background()
	if w.wantsToken() {
		ctx = s.token()
	}
	ctx = asynctask.WithContinuationRouter(ctx, router)

	faulted := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				faulted = true
				s.reportFault(fmt.Errorf("panic: %v", r))
			}
		}()

		switch w.Kind {
		case KindAction, KindPost:
			w.action(ctx)
			if w.Kind == KindAction && w.completion != nil {
				w.completion.resolve(Result{})
			}
		case KindAsyncFunc:
			fut := asynctask.Start(ctx, w.asyncFn)
			addCount(&s.runningAsync, 1)
			go func() {
				<-fut.Done()
				s.onAsyncComplete(w, fut)
			}()
		}
	}()

	s.history.add(WorkExecutionRecord{
		WorkID:     w.ID,
		Kind:       w.Kind,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Duration:   time.Since(started),
		Faulted:    faulted,
	})
	s.metrics.RecordWorkDuration(s.Name, time.Since(started))
}

// -------------------------------------------------------------------
// Completion & barrier quiescence (spec §4.4)
// -------------------------------------------------------------------

func (s *Scheduler) onAsyncComplete(w *Work, fut *asynctask.Future) {
	addCount(&s.runningAsync, -1)

	err := fut.Err()
	cancelled := errors.Is(err, context.Canceled)
	if w.completion != nil {
		switch {
		case cancelled:
			w.completion.resolve(Result{Cancelled: true})
		case err != nil:
			w.completion.resolve(Result{Future: fut, Err: err})
			s.reportFault(err)
		default:
			w.completion.resolve(Result{Future: fut})
		}
	} else if err != nil && !cancelled {
		s.reportFault(err)
	}

	if w.isAtomic() {
		if w.sync != nil {
			w.sync.releaseWaiters()
			s.clearPendingSyncTargets(w.sync.Participants())
		}
		s.mu.Lock()
		s.inAtomic = false
		s.atomicWork = nil
		s.activeQueue, s.pendingQueue = s.pendingQueue, s.activeQueue
		if w.sync != nil {
			s.waitingOwnedSyncWork = nil
		}
		s.spawnLoopLocked()
		s.mu.Unlock()
	}

	s.mu.Lock()
	if loadCount(&s.runningAsync) == 0 && s.waitingBarrier != nil {
		barrierWork := s.waitingBarrier
		s.mu.Unlock()
		s.consumeBarrier(barrierWork)
		return
	}
	s.mu.Unlock()
}

// syncReady runs once every side of a rendezvous has arrived: it executes
// the owner's synchronous region, then (for non-atomic sync work) releases
// waiters immediately — atomic+sync work defers release to onAsyncComplete.
func (s *Scheduler) syncReady(r *Rendezvous) {
	s.mu.Lock()
	w := s.waitingOwnedSyncWork
	s.mu.Unlock()

	if w.isAtomic() {
		s.mu.Lock()
		s.inAtomic = true
		s.atomicWork = w
		s.activeQueue, s.pendingQueue = s.pendingQueue, s.activeQueue
		s.mu.Unlock()
	}

	s.executeWork(w, workRouter{s, w})

	if !w.isAtomic() {
		r.releaseWaiters()
		s.clearPendingSyncTargets(r.Participants())
		s.mu.Lock()
		s.waitingOwnedSyncWork = nil
		s.spawnLoopLocked()
		s.mu.Unlock()
	}
}

// syncEnd runs on a participant once the owner's rendezvous has released
// it: clear the waiter marker and resume the run loop.
func (s *Scheduler) syncEnd(r *Rendezvous) {
	s.mu.Lock()
	if s.waitingSync == nil || s.waitingSync.sync != r {
		s.mu.Unlock()
		s.reportFault(&InvariantError{Reason: "syncEnd called with no matching waiting marker"})
		return
	}
	s.waitingSync = nil
	s.spawnLoopLocked()
	s.mu.Unlock()
}

// consumeBarrier drains barrierQueue back into activeQueue, stopping at
// (and re-entering) a nested barrier marker.
func (s *Scheduler) consumeBarrier(w *Work) {
	s.mu.Lock()
	s.waitingBarrier = nil
	for {
		nw, ok := s.barrierQueue.Pop()
		if !ok {
			s.inBarrier = false
			break
		}
		if nw.Kind == KindBarrier {
			s.activeQueue.PushFront(nw)
			break
		}
		s.activeQueue.Push(nw)
	}
	s.spawnLoopLocked()
	s.mu.Unlock()

	if w.completion != nil {
		w.completion.resolve(Result{})
	}
}

// -------------------------------------------------------------------
// Close (spec §4.6)
// -------------------------------------------------------------------

// Close disposes the scheduler: new submissions resolve cancelled instead
// of running, already-queued non-Post work is drained and cancelled, and
// the shared cancellation token (if ever requested) fires so running work
// can observe it. Queued Post work items are retained rather than
// cancelled: they are continuations of already-in-flight asynchronous
// work, so discarding them would leave the suspended Func goroutine
// blocked forever instead of letting it observe the cancellation token
// and unwind.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true

	drainCancelling := func(q *fifo.Queue[*Work]) {
		var retained []*Work
		for {
			w, ok := q.Pop()
			if !ok {
				break
			}
			if w.Kind == KindPost {
				retained = append(retained, w)
				continue
			}
			s.resolveCancelled(w)
		}
		for _, w := range retained {
			q.Push(w)
		}
	}
	drainCancelling(&s.activeQueue)
	drainCancelling(&s.pendingQueue)
	drainCancelling(&s.barrierQueue)
	if s.waitingBarrier != nil {
		s.resolveCancelled(s.waitingBarrier)
		s.waitingBarrier = nil
	}
	if !s.activeQueue.Empty() {
		s.spawnLoopLocked()
	}
	s.mu.Unlock()

	s.cancelMu.Lock()
	if s.cancelFn != nil {
		s.cancelFn()
	}
	s.cancelMu.Unlock()
}

// -------------------------------------------------------------------
// Fault reporting (spec §7, §9)
// -------------------------------------------------------------------

func (s *Scheduler) reportFault(err error) {
	var inv *InvariantError
	if errors.As(err, &inv) {
		s.logger.Error("invariant violated", F("scheduler", s.Name), F("error", err))
	} else {
		s.logger.Error("unhandled fault", F("scheduler", s.Name), F("error", err))
	}
	s.metrics.RecordFault(s.Name)

	if s.unhandled != nil {
		s.unhandled(s, err)
		return
	}
	panic(&UserFault{Scheduler: s.Name, Err: err})
}
