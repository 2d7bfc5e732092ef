package core

import (
	"fmt"
	"sync"
)

// CallLimiter enforces a maximum number of model calls per run, a safety net
// against runaway retry loops.
type CallLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallLimiter creates a limiter with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Increment increases the call counter and returns an error if the limit is
// exceeded.
func (l *CallLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("exceeded max model calls: %d", l.max)
	}

	return nil
}

// Count returns the current number of calls made.
func (l *CallLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many calls are left before hitting the limit,
// or -1 when unlimited.
func (l *CallLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1
	}

	return l.max - l.count
}
