package resource

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"iris/internal/logging"
)

func TestAcquireBoundsConcurrency(t *testing.T) {
	gov := New(logging.NewNop(), Config{MaxConcurrent: 2})

	release1, err := gov.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release2, err := gov.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if gov.InFlight() != 2 {
		t.Fatalf("InFlight = %d, want 2", gov.InFlight())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := gov.Acquire(ctx); err == nil {
		t.Fatal("third acquire should block until cancellation")
	}

	release1()
	release1() // release is idempotent
	if gov.InFlight() != 1 {
		t.Fatalf("InFlight = %d after release, want 1", gov.InFlight())
	}
	release2()
}

func TestMemoryPressureRunsCleanupOnce(t *testing.T) {
	gov := New(logging.NewNop(), Config{
		MaxConcurrent:      1,
		MemoryHighWaterPct: 80,
		RetryInterval:      10 * time.Millisecond,
		MaxWait:            time.Second,
	})

	var cleanups atomic.Int64
	var mu sync.Mutex
	used := 95.0
	gov.usedMemoryPct = func() (float64, bool) {
		mu.Lock()
		defer mu.Unlock()
		return used, true
	}
	gov.RegisterCleanup(func() {
		cleanups.Add(1)
		mu.Lock()
		used = 40
		mu.Unlock()
	})

	release, err := gov.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()

	if cleanups.Load() != 1 {
		t.Fatalf("cleanup ran %d times, want 1", cleanups.Load())
	}
}

func TestMemoryPressureAdmitsAfterMaxWait(t *testing.T) {
	gov := New(logging.NewNop(), Config{
		MaxConcurrent:      1,
		MemoryHighWaterPct: 80,
		RetryInterval:      5 * time.Millisecond,
		MaxWait:            30 * time.Millisecond,
	})
	gov.usedMemoryPct = func() (float64, bool) { return 99, true }

	start := time.Now()
	release, err := gov.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed under sustained pressure: %v", err)
	}
	release()

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("admitted after %s, want at least the max wait", elapsed)
	}
}

func TestMemoryPressureHonorsCancellation(t *testing.T) {
	gov := New(logging.NewNop(), Config{
		MaxConcurrent:      1,
		MemoryHighWaterPct: 80,
		RetryInterval:      10 * time.Millisecond,
		MaxWait:            10 * time.Second,
	})
	gov.usedMemoryPct = func() (float64, bool) { return 99, true }

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := gov.Acquire(ctx); err == nil {
		t.Fatal("expected cancellation error")
	}
	if gov.InFlight() != 0 {
		t.Fatalf("InFlight = %d after failed acquire, want 0", gov.InFlight())
	}
}

func TestUnreadableMemoryNeverBlocks(t *testing.T) {
	gov := New(logging.NewNop(), Config{
		MaxConcurrent:      1,
		MemoryHighWaterPct: 80,
		MaxWait:            time.Second,
	})
	gov.usedMemoryPct = func() (float64, bool) { return 0, false }

	release, err := gov.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()
}

func TestDoReleasesSlot(t *testing.T) {
	gov := New(logging.NewNop(), Config{MaxConcurrent: 1})

	err := gov.Do(context.Background(), func(ctx context.Context) error {
		if gov.InFlight() != 1 {
			t.Fatalf("InFlight = %d inside Do, want 1", gov.InFlight())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if gov.InFlight() != 0 {
		t.Fatalf("InFlight = %d after Do, want 0", gov.InFlight())
	}
}
