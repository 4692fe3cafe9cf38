package lock

import (
	"context"
	"sync"
	"testing"
)

func TestMemory_TryAcquire(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	release, ok, err := m.TryAcquire(ctx, "poll:event:1")
	if err != nil || !ok {
		t.Fatalf("TryAcquire() = ok %v, err %v", ok, err)
	}

	// Held: second attempt fails, other names are unaffected.
	if _, ok, _ := m.TryAcquire(ctx, "poll:event:1"); ok {
		t.Error("TryAcquire() succeeded while lock held")
	}
	rel2, ok, _ := m.TryAcquire(ctx, "poll:event:2")
	if !ok {
		t.Error("TryAcquire() on a different name failed")
	}
	rel2()

	release()
	release3, ok, _ := m.TryAcquire(ctx, "poll:event:1")
	if !ok {
		t.Error("TryAcquire() failed after release")
	}
	release3()
}

func TestMemory_SingleWinnerUnderContention(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, _ := m.TryAcquire(ctx, "poll:event:9"); ok {
				mu.Lock()
				won++
				mu.Unlock()
				// Hold until every goroutine has tried.
			}
		}()
	}
	wg.Wait()

	if won != 1 {
		t.Errorf("%d goroutines won the lock, want exactly 1", won)
	}
}
