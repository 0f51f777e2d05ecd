package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestOpLockGrantsInArrivalOrder(t *testing.T) {
	var l opLock
	if err := l.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := l.acquire(context.Background()); err != nil {
				t.Errorf("acquire %d: %v", n, err)
				return
			}
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			l.release()
		}(i)
		time.Sleep(20 * time.Millisecond) // fix arrival order
	}

	l.release()
	wg.Wait()

	for i, n := range order {
		if n != i {
			t.Fatalf("waiters granted out of order: %v", order)
		}
	}
}

func TestOpLockCancelledWaiterSkipped(t *testing.T) {
	var l opLock
	if err := l.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- l.acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-errCh; err == nil {
		t.Fatal("cancelled acquire should fail")
	}

	// the lock must still be releasable and reusable
	l.release()
	if err := l.acquire(context.Background()); err != nil {
		t.Fatalf("lock unusable after cancelled waiter: %v", err)
	}
	l.release()
}

func TestOpLockMutualExclusion(t *testing.T) {
	var l opLock
	var active, max int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.acquire(context.Background()); err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			active++
			if active > max {
				max = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			l.release()
		}()
	}
	wg.Wait()

	if max != 1 {
		t.Errorf("lock held by %d goroutines at once", max)
	}
}
