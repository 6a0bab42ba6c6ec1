package corosched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskloop/corosched/asynctask"
)

func TestNew_DefaultsRunWithoutAnyOptions(t *testing.T) {
	s := New("facade")
	defer s.Close()

	done := make(chan struct{})
	require.NoError(t, s.Invoke(func(ctx context.Context) { close(done) }, Normal, false))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("submitted action never ran")
	}
}

func TestNew_UnhandledExceptionHandlerOptionIsApplied(t *testing.T) {
	var faulted error
	done := make(chan struct{})
	s := New("facade",
		WithHistoryCapacity(5),
		WithUnhandledExceptionHandler(func(sched *Scheduler, err error) {
			faulted = err
			close(done)
		}),
	)
	defer s.Close()

	require.NoError(t, s.Invoke(func(ctx context.Context) {
		panic("bad")
	}, Normal, false))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unhandled exception handler never invoked")
	}
	require.ErrorContains(t, faulted, "bad")
}

func TestInvokeAwait_ResolvesThroughPublicPromise(t *testing.T) {
	s := New("facade")
	defer s.Close()

	p, err := s.InvokeAwait(func(ctx context.Context, y asynctask.Yielder) error {
		return nil
	}, Normal, false)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("promise never resolved")
	}
	res := p.Result()
	require.NoError(t, res.Err)
	require.False(t, res.Cancelled)
}

func TestSyncTargets_RendezvousAcrossTwoFacadeSchedulers(t *testing.T) {
	owner := New("owner")
	participant := New("participant")
	defer owner.Close()
	defer participant.Close()

	var mu sync.Mutex
	var order []string
	gate := make(chan struct{})

	require.NoError(t, participant.Invoke(func(ctx context.Context) {
		<-gate
		mu.Lock()
		order = append(order, "participant")
		mu.Unlock()
	}, Normal, false))

	ownerDone := make(chan struct{})
	require.NoError(t, owner.Invoke(func(ctx context.Context) {
		mu.Lock()
		order = append(order, "owner")
		mu.Unlock()
		close(ownerDone)
	}, Normal, false, participant))

	close(gate)

	select {
	case <-ownerDone:
	case <-time.After(time.Second):
		t.Fatal("owner never ran after its sync target arrived")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"participant", "owner"}, order)
}

func TestSyncTargets_SelfReferenceIsRejectedAsMisuse(t *testing.T) {
	s := New("facade")
	defer s.Close()

	err := s.Invoke(func(ctx context.Context) {}, Normal, false, s)
	var misuse *MisuseError
	require.ErrorAs(t, err, &misuse)
}
