package workerpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPoolExecutor_RunsAllSubmittedWork(t *testing.T) {
	p := NewPoolExecutor(4, nil)
	defer p.Stop()

	var n int64
	var wg sync.WaitGroup
	wg.Add(50)
	for i := 0; i < 50; i++ {
		p.Run(func() {
			atomic.AddInt64(&n, 1)
			wg.Done()
		})
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool never finished its work")
	}
	require.Equal(t, int64(50), atomic.LoadInt64(&n))
}

func TestPoolExecutor_PanicRecoveredAndReported(t *testing.T) {
	var caught int
	var mu sync.Mutex
	done := make(chan struct{})

	p := NewPoolExecutor(1, func(workerID int, r any) {
		mu.Lock()
		caught++
		mu.Unlock()
		close(done)
	})
	defer p.Stop()

	p.Run(func() { panic("boom") })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panic handler never invoked")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, caught)
}

func TestDedicatedExecutor_RunsInSubmissionOrderWithoutOverlap(t *testing.T) {
	e := NewDedicatedExecutor(nil)
	defer e.Stop()

	var order []int
	var inFlight int32
	var overlapped bool
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(20)

	for i := 0; i < 20; i++ {
		i := i
		e.Run(func() {
			if atomic.AddInt32(&inFlight, 1) > 1 {
				mu.Lock()
				overlapped = true
				mu.Unlock()
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			atomic.AddInt32(&inFlight, -1)
			wg.Done()
		})
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.False(t, overlapped, "a dedicated executor must never run two tasks concurrently")
	for i, v := range order {
		require.Equal(t, i, v)
	}
}
