package core

// repair_limiter.go implements concurrency control for repair processing.
//
// Each repair holds its whole input and output in memory, so the limiter
// uses a semaphore to restrict parallel repairs to a configurable maximum.
// When all slots are occupied, new requests wait up to maxWait before failing
// with ErrTooManyRepairs.
//
// WaitForDrain blocks until all active repairs complete and is used during
// graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyRepairs is returned when all repair slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyRepairs = errors.New("too many concurrent repairs, please try again later")

// DefaultMaxConcurrentRepairs is the default limit for parallel repairs.
const DefaultMaxConcurrentRepairs = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// RepairLimiter controls concurrent repair processing using a semaphore.
type RepairLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
	// rejected counts acquisitions that timed out.
	rejected int64
}

// NewRepairLimiter creates a limiter that allows at most maxConcurrent
// simultaneous repairs. Requests that cannot acquire a slot within maxWait
// receive ErrTooManyRepairs.
func NewRepairLimiter(maxConcurrent int, maxWait time.Duration) *RepairLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRepairs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &RepairLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a repair slot.
// The caller MUST call Release() when the repair completes (use defer).
func (l *RepairLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// Distinguish caller cancellation from our own wait timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.mu.Lock()
		l.rejected++
		l.mu.Unlock()
		return ErrTooManyRepairs
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire.
func (l *RepairLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of repairs currently holding a slot.
func (l *RepairLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent repairs.
func (l *RepairLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *RepairLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until all active repairs complete or ctx is done.
func (l *RepairLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter's state.
type LimiterStatus struct {
	Active        int   `json:"active"`
	Available     int   `json:"available"`
	MaxConcurrent int   `json:"max_concurrent"`
	Rejected      int64 `json:"rejected"`
}

// Status returns the current limiter state for monitoring.
func (l *RepairLimiter) Status() LimiterStatus {
	l.mu.RLock()
	active, rejected := l.active, l.rejected
	l.mu.RUnlock()

	return LimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
		Rejected:      rejected,
	}
}
