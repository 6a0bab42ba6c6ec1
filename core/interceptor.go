package core

import "github.com/taskloop/corosched/asynctask"

// schedulerRouter is the ambient continuation router installed for
// ordinary (non-atomic, non-sync-owning) async work: every resumption
// re-enters as a plain Post with no owning Work.
type schedulerRouter struct {
	s *Scheduler
}

func (r schedulerRouter) Post(fn func()) {
	r.s.postContinuation(nil, fn)
}

// workRouter is installed for the duration of an atomic or sync-owning
// Work's execution. Resumptions it produces are tagged with the owning
// Work so the atomic-window Post routing rule (§4.4) can recognize them.
type workRouter struct {
	s *Scheduler
	w *Work
}

func (r workRouter) Post(fn func()) {
	r.s.postContinuation(r.w, fn)
}

var (
	_ asynctask.ContinuationRouter = schedulerRouter{}
	_ asynctask.ContinuationRouter = workRouter{}
)
