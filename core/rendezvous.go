package core

import "sync/atomic"

// Rendezvous coordinates a cross-scheduler sync: one owner and one or more
// participant ("waiter") schedulers all park until every side has arrived,
// then the owner's synchronous region runs before any waiter is released.
type Rendezvous struct {
	owner        *Scheduler
	participants []*Scheduler
	remaining    atomic.Int64
}

// NewRendezvous builds a Rendezvous for owner targeting participants. The
// arrival count is participants+1 (the owner itself also has to arrive).
func NewRendezvous(owner *Scheduler, participants []*Scheduler) *Rendezvous {
	r := &Rendezvous{owner: owner, participants: append([]*Scheduler(nil), participants...)}
	r.remaining.Store(int64(len(participants) + 1))
	return r
}

// Participants returns the waiter-side schedulers of this rendezvous.
func (r *Rendezvous) Participants() []*Scheduler { return r.participants }

func (r *Rendezvous) ownerArrived() {
	if r.remaining.Add(-1) == 0 {
		r.owner.syncReady(r)
	}
}

func (r *Rendezvous) waiterArrived(s *Scheduler) {
	if r.remaining.Add(-1) == 0 {
		r.owner.syncReady(r)
	}
}

// releaseWaiters signals every participant that the owner's synchronous
// region (or, for atomic+sync work, the whole atomic window) has ended.
func (r *Rendezvous) releaseWaiters() {
	for _, p := range r.participants {
		p.syncEnd(r)
	}
}
