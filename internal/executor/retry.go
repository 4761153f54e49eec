package executor

import (
	"time"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/paintcore"
)

// ReconnectPolicy is the bounded exponential-backoff schedule for
// recovering from a Disconnected error (spec §7: "start 100 ms, cap 2 s,
// up to N attempts, N documented per deployment").
//
// Same exponential-backoff shape as a reconnect loop with growth factor
// 1.7 capped at a maximum delay; spec §7 pins the exact numbers here.
type ReconnectPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultReconnectPolicy is the documented-per-deployment N referenced by
// spec §7; this deployment documents N=8.
var DefaultReconnectPolicy = ReconnectPolicy{
	InitialDelay: 100 * time.Millisecond,
	MaxDelay:     2 * time.Second,
	MaxAttempts:  8,
}

// reacquirer is the narrow surface retryReacquire needs from
// internal/hidtransport, kept minimal so tests can substitute a fake.
type reacquirer interface {
	Reacquire() error
}

// retryReacquire attempts Reacquire up to policy.MaxAttempts times, with
// delay *= 1.7 each attempt capped at MaxDelay. Returns nil on the first
// success, or a Fatal-kind error wrapping the last failure once the budget
// is exhausted.
func retryReacquire(t reacquirer, policy ReconnectPolicy, sleep func(time.Duration)) error {
	delay := policy.InitialDelay
	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			sleep(delay)
			delay = time.Duration(float64(delay) * 1.7)
			if delay > policy.MaxDelay {
				delay = policy.MaxDelay
			}
		}
		if err := t.Reacquire(); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	return paintcore.Wrap(paintcore.KindFatal, "executor.retryReacquire", lastErr)
}
