package engine

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Budget tracks the global and per-target wall-clock limits of a run.
// Expiry is monotonic: once a scope transitions to expired it never
// reverses. Reads are cheap (an atomic flag plus a clock comparison)
// so workers can consult the budget before every dispatch.
type Budget struct {
	globalLimit    time.Duration
	perTargetLimit time.Duration

	start         time.Time
	globalExpired atomic.Bool
	onExpire      func(scope string)

	mu      sync.Mutex
	targets map[string]*targetBudget
}

type targetBudget struct {
	start   time.Time
	expired atomic.Bool
}

// NewBudget creates a budget. The global limit is always enforced (a
// zero limit expires immediately); perTargetLimit of zero disables
// per-target deadlines. onExpire, if non-nil, is invoked once per
// scope transition.
func NewBudget(globalLimit, perTargetLimit time.Duration, onExpire func(scope string)) *Budget {
	return &Budget{
		globalLimit:    globalLimit,
		perTargetLimit: perTargetLimit,
		onExpire:       onExpire,
		targets:        make(map[string]*targetBudget),
	}
}

// Start marks the beginning of the run.
func (b *Budget) Start() {
	b.start = time.Now()
}

// StartTarget marks the beginning of one target's scan window.
func (b *Budget) StartTarget(target string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.targets[target] = &targetBudget{start: time.Now()}
}

// GlobalExpired reports whether the whole run is out of time.
func (b *Budget) GlobalExpired() bool {
	if b.globalExpired.Load() {
		return true
	}
	if b.start.IsZero() {
		return false
	}
	if time.Since(b.start) >= b.globalLimit {
		if b.globalExpired.CompareAndSwap(false, true) && b.onExpire != nil {
			b.onExpire("global")
		}
		return true
	}
	return false
}

// Expired reports whether dispatch must stop for the given target,
// either because the run is out of time or the target's own window
// has closed.
func (b *Budget) Expired(target string) bool {
	if b.GlobalExpired() {
		return true
	}
	if b.perTargetLimit <= 0 {
		return false
	}
	b.mu.Lock()
	tb := b.targets[target]
	b.mu.Unlock()
	if tb == nil {
		return false
	}
	if tb.expired.Load() {
		return true
	}
	if time.Since(tb.start) >= b.perTargetLimit {
		if tb.expired.CompareAndSwap(false, true) && b.onExpire != nil {
			b.onExpire(target)
		}
		return true
	}
	return false
}

// Remaining returns the time left on the global budget.
func (b *Budget) Remaining() time.Duration {
	if b.start.IsZero() {
		return b.globalLimit
	}
	left := b.globalLimit - time.Since(b.start)
	if left < 0 {
		return 0
	}
	return left
}
