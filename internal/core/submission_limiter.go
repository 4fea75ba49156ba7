package core

// submission_limiter.go bounds how many prediction submissions run at once.
//
// The prediction service is a single external process; flooding it with
// parallel requests only makes every caller slower. Callers wait up to
// maxWait for a slot and then fail with ErrTooManySubmissions.
//
// WaitForDrain lets shutdown block until in-flight submissions finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySubmissions is returned when no slot frees up within the wait time.
var ErrTooManySubmissions = errors.New("too many submissions in progress, please try again later")

// Limiter defaults, used when the configured values are not positive.
const (
	DefaultMaxConcurrentSubmissions = 5
	DefaultSubmissionWait           = 30 * time.Second
)

// SubmissionLimiter is a counting semaphore with drain support.
type SubmissionLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	idle    chan struct{} // closed whenever active == 0
	observe func(active int)
}

// NewSubmissionLimiter allows at most maxConcurrent submissions at a time.
func NewSubmissionLimiter(maxConcurrent int, maxWait time.Duration) *SubmissionLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmissions
	}
	if maxWait <= 0 {
		maxWait = DefaultSubmissionWait
	}

	idle := make(chan struct{})
	close(idle)

	return &SubmissionLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// OnActiveChange registers fn to be called with the active count after every
// acquire and release. Used to feed the active-submissions gauge.
// fn runs under the limiter's lock, so calls arrive in count order; it must
// not call back into the limiter.
func (l *SubmissionLimiter) OnActiveChange(fn func(active int)) {
	l.mu.Lock()
	l.observe = fn
	l.mu.Unlock()
}

// Acquire waits for a slot. The caller must Release it when done.
// Returns ctx.Err() if ctx ends first and ErrTooManySubmissions if the wait
// time runs out.
func (l *SubmissionLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManySubmissions
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *SubmissionLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.inc()
		return true
	default:
		return false
	}
}

// Release gives back a slot taken by Acquire or TryAcquire.
func (l *SubmissionLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.notify()
	l.mu.Unlock()

	<-l.slots
}

func (l *SubmissionLimiter) inc() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.notify()
	l.mu.Unlock()
}

// notify must be called with mu held.
func (l *SubmissionLimiter) notify() {
	if l.observe != nil {
		l.observe(l.active)
	}
}

// ActiveCount returns the number of submissions holding a slot.
func (l *SubmissionLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *SubmissionLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *SubmissionLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no submission holds a slot or ctx ends.
func (l *SubmissionLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of the limiter for health output.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state.
func (l *SubmissionLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.slots),
	}
}
