package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSubmissionLimiter_AcquireRelease(t *testing.T) {
	limiter := NewSubmissionLimiter(2, time.Second)
	ctx := context.Background()

	if got := limiter.Available(); got != 2 {
		t.Errorf("initial Available = %d, want 2", got)
	}

	for i := 0; i < 2; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d failed: %v", i, err)
		}
	}
	if got := limiter.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}
	if got := limiter.Available(); got != 0 {
		t.Errorf("Available = %d, want 0", got)
	}

	limiter.Release()
	if got := limiter.ActiveCount(); got != 1 {
		t.Errorf("after Release, ActiveCount = %d, want 1", got)
	}

	limiter.Release()
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("after second Release, ActiveCount = %d, want 0", got)
	}
}

func TestSubmissionLimiter_TimesOutWhenFull(t *testing.T) {
	limiter := NewSubmissionLimiter(1, 100*time.Millisecond)
	ctx := context.Background()

	if err := limiter.Acquire(ctx); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	start := time.Now()
	err := limiter.Acquire(ctx)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTooManySubmissions) {
		t.Errorf("expected ErrTooManySubmissions, got %v", err)
	}
	if elapsed < 90*time.Millisecond {
		t.Errorf("gave up too fast: %v", elapsed)
	}
}

func TestSubmissionLimiter_NeverExceedsMax(t *testing.T) {
	const maxConcurrent = 3
	const submissions = 12

	limiter := NewSubmissionLimiter(maxConcurrent, 2*time.Second)

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		maxObserved int
	)
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer limiter.Release()

			mu.Lock()
			if n := limiter.ActiveCount(); n > maxObserved {
				maxObserved = n
			}
			mu.Unlock()

			time.Sleep(10 * time.Millisecond)
		}()
	}
	wg.Wait()

	if maxObserved > maxConcurrent {
		t.Errorf("observed %d concurrent submissions, max %d", maxObserved, maxConcurrent)
	}
	if got := limiter.ActiveCount(); got != 0 {
		t.Errorf("final ActiveCount = %d, want 0", got)
	}
}

func TestSubmissionLimiter_TryAcquire(t *testing.T) {
	limiter := NewSubmissionLimiter(1, time.Second)

	if !limiter.TryAcquire() {
		t.Fatal("first TryAcquire should succeed")
	}
	if limiter.TryAcquire() {
		t.Error("second TryAcquire should fail")
		limiter.Release()
	}

	limiter.Release()
	if !limiter.TryAcquire() {
		t.Error("TryAcquire after Release should succeed")
	}
	limiter.Release()
}

func TestSubmissionLimiter_ContextCancellation(t *testing.T) {
	limiter := NewSubmissionLimiter(1, 5*time.Second)
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer limiter.Release()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- limiter.Acquire(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Acquire did not return after cancellation")
	}
}

func TestSubmissionLimiter_WaitForDrain(t *testing.T) {
	limiter := NewSubmissionLimiter(2, time.Second)

	if err := limiter.WaitForDrain(context.Background()); err != nil {
		t.Fatalf("WaitForDrain on idle limiter: %v", err)
	}

	_ = limiter.Acquire(context.Background())
	_ = limiter.Acquire(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- limiter.WaitForDrain(context.Background())
	}()

	limiter.Release()
	select {
	case <-done:
		t.Fatal("WaitForDrain returned with one submission active")
	case <-time.After(50 * time.Millisecond):
	}

	limiter.Release()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WaitForDrain returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WaitForDrain did not complete after all released")
	}
}

func TestSubmissionLimiter_WaitForDrainCancelled(t *testing.T) {
	limiter := NewSubmissionLimiter(1, time.Second)
	_ = limiter.Acquire(context.Background())
	defer limiter.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := limiter.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestSubmissionLimiter_OnActiveChange(t *testing.T) {
	limiter := NewSubmissionLimiter(2, time.Second)

	var seen []int
	limiter.OnActiveChange(func(active int) { seen = append(seen, active) })

	_ = limiter.Acquire(context.Background())
	_ = limiter.Acquire(context.Background())
	limiter.Release()
	limiter.Release()

	want := []int{1, 2, 1, 0}
	if len(seen) != len(want) {
		t.Fatalf("observed %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("observed[%d] = %d, want %d", i, seen[i], want[i])
		}
	}
}

func TestSubmissionLimiter_OnActiveChangeOrdered(t *testing.T) {
	limiter := NewSubmissionLimiter(8, time.Second)

	var seen []int
	limiter.OnActiveChange(func(active int) { seen = append(seen, active) })

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Acquire(context.Background()); err != nil {
				t.Errorf("Acquire: %v", err)
				return
			}
			limiter.Release()
		}()
	}
	wg.Wait()

	if len(seen) != 400 {
		t.Fatalf("observed %d changes, want 400", len(seen))
	}
	prev := 0
	for i, n := range seen {
		if n-prev != 1 && prev-n != 1 {
			t.Fatalf("change %d: %d -> %d, want a step of one", i, prev, n)
		}
		prev = n
	}
	if last := seen[len(seen)-1]; last != 0 {
		t.Errorf("last observed = %d, want 0", last)
	}
}

func TestSubmissionLimiter_Status(t *testing.T) {
	limiter := NewSubmissionLimiter(3, time.Second)
	_ = limiter.Acquire(context.Background())
	defer limiter.Release()

	status := limiter.Status()
	if status.Active != 1 || status.Available != 2 || status.MaxConcurrent != 3 {
		t.Errorf("Status() = %+v, want {Active:1 Available:2 MaxConcurrent:3}", status)
	}
}

func TestSubmissionLimiter_DefaultValues(t *testing.T) {
	limiter := NewSubmissionLimiter(0, 0)

	if got := limiter.MaxConcurrent(); got != DefaultMaxConcurrentSubmissions {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentSubmissions)
	}
	if limiter.maxWait != DefaultSubmissionWait {
		t.Errorf("maxWait = %v, want %v", limiter.maxWait, DefaultSubmissionWait)
	}
}
