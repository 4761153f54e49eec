package executor

import (
	"sync/atomic"
	"time"
)

// Control is the pause/stop signalling surface C5 drives and the Executor
// observes at every inter-operation boundary, never mid-operation (spec
// §4.4 Pause/stop cooperation, §5 Suspension points).
type Control struct {
	paused   atomic.Bool
	stopping atomic.Bool
	resumeCh chan struct{}
}

func NewControl() *Control {
	return &Control{resumeCh: make(chan struct{}, 1)}
}

func (c *Control) Pause() { c.paused.Store(true) }

func (c *Control) Resume() {
	c.paused.Store(false)
	select {
	case c.resumeCh <- struct{}{}:
	default:
	}
}

func (c *Control) Stop() { c.stopping.Store(true) }

func (c *Control) IsStopping() bool { return c.stopping.Load() }

// waitIfPaused blocks the caller while paused, waking on Resume or Stop.
// Called only at an inter-operation boundary, matching the "never mid-
// operation" invariant. Polls stopping on a short interval rather than
// requiring a dedicated stop channel, since Stop() has no wakeup signal of
// its own.
func (c *Control) waitIfPaused() {
	for c.paused.Load() && !c.stopping.Load() {
		select {
		case <-c.resumeCh:
		case <-time.After(50 * time.Millisecond):
		}
	}
}
