// Package corosched implements a per-instance, cooperative work scheduler:
// a single logical thread of serialized execution, with opt-in atomic work
// windows, quiescence barriers, and cross-scheduler rendezvous.
//
// A Scheduler serializes everything submitted to it by default — at most
// one synchronous region runs at a time, in submission order. Submitting
// Atomic work widens that guarantee across an asynchronous function's
// suspension points: nothing else on the same scheduler runs until the
// atomic work fully completes. SetBarrier lets a caller wait for every
// asynchronous work submitted earlier to finish before anything submitted
// after the barrier begins. Invoke and InvokeAsync accept sync targets,
// letting an owning scheduler rendezvous with one or more participant
// schedulers before its work's synchronous region runs.
//
//	s := corosched.New("worker-1")
//	defer s.Close()
//
//	_ = s.Invoke(func(ctx context.Context) {
//		fmt.Println("hello from the run loop")
//	}, corosched.Normal, false)
//
//	done, _ := s.InvokeAwait(func(ctx context.Context, y asynctask.Yielder) error {
//		wake := make(chan struct{})
//		go func() { time.Sleep(10 * time.Millisecond); close(wake) }()
//		y.Await(wake)
//		fmt.Println("resumed")
//		return nil
//	}, corosched.Normal, false)
//	done.Wait(context.Background())
//
// The actual task/run-loop machinery lives in corosched/core; corosched
// itself is a thin constructor-and-options facade over it, the way the
// teacher's own core package stayed importable on its own.
package corosched
