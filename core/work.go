package core

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskloop/corosched/asynctask"
)

// Kind tags the payload a Work item carries. Go closures already capture
// whatever state a caller needs, so this collapses the state/no-state and
// token/no-token overload families a non-closure host language would need
// into one kind per payload shape.
type Kind int

const (
	// KindAction is a synchronous func(context.Context) payload.
	KindAction Kind = iota
	// KindAsyncFunc is an asynctask.Func payload, driven through Start.
	KindAsyncFunc
	// KindPost is an internal continuation re-entry; its action is
	// whatever the asynctask runtime needs run to resume a suspended Func.
	KindPost
	// KindBarrier carries no payload; it marks a barrier point.
	KindBarrier
	// KindSyncMarker is the waiter-side half of a cross-scheduler
	// rendezvous, pushed onto a participant by the owner's enqueue.
	KindSyncMarker
)

// Options is a bitset of submission qualifiers. Atomic is the only bit a
// caller sets directly; the rest are assigned internally.
type Options uint32

const (
	// Normal is the zero value: no qualifiers.
	Normal Options = 0
	// Atomic requests an atomic work window (see Scheduler run loop).
	Atomic Options = 1 << 0

	optPost  Options = 1 << 8
	optSync  Options = 1 << 9
	optToken Options = 1 << 10
)

// Work is one unit admitted to a Scheduler's queues.
type Work struct {
	ID      uuid.UUID
	Kind    Kind
	Options Options

	action  func(context.Context)
	asyncFn asynctask.Func

	completion *Promise
	sync       *Rendezvous
	origin     *Work // for KindPost: the atomic/sync-owning Work this continuation belongs to, if any
}

func newWork(kind Kind, opts Options) *Work {
	return &Work{ID: uuid.New(), Kind: kind, Options: opts}
}

func (w *Work) isAtomic() bool { return w.Options&Atomic != 0 }
func (w *Work) wantsToken() bool { return w.Options&optToken != 0 }
