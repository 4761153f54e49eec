package executor

import (
	"sync"
	"testing"
	"time"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/logging"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/paintcore"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/planner"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/tunables"
)

// fakeTransport records every written frame and can be told to fail the
// next N writes with a Disconnected error, after which Reacquire succeeds.
type fakeTransport struct {
	mu           sync.Mutex
	frames       [][]byte
	failNextN    int
	reacquired   int
	reacquireErr error
}

func (f *fakeTransport) WriteReport(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNextN > 0 {
		f.failNextN--
		return paintcore.Wrap(paintcore.KindDisconnected, "fake", paintcore.ErrShortWrite)
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.frames = append(f.frames, cp)
	return nil
}

func (f *fakeTransport) Reacquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reacquired++
	return f.reacquireErr
}

func (f *fakeTransport) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func noSleep(time.Duration) {}

func newTestExecutor(t *fakeTransport) *Executor {
	tn := tunables.New(tunables.Triple{PressMs: 1, ReleaseMs: 1, WaitMs: 1}, 1)
	ctrl := NewControl()
	e := New(t, tn, ctrl, logging.New("test"), nil)
	e.sleep = noSleep
	return e
}

func TestRunSingleCellSkipInit(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)
	path := planner.Path{{X: 0, Y: 0}}

	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One Draw at (0,0): one pair of writes (press+release) = 2 frames, no
	// Move writes since the cell is already at the origin.
	if got := ft.frameCount(); got != 2 {
		t.Errorf("frame count = %d, want 2", got)
	}
}

func TestRunEmitsMoveAndDrawFrames(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)
	path := planner.Path{{X: 0, Y: 1}}

	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// One Move (2 frames: dpad-set + neutral) + one Draw (2 frames).
	if got := ft.frameCount(); got != 4 {
		t.Errorf("frame count = %d, want 4", got)
	}
}

func TestRunRespectsRepeats(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)
	e.tn.StoreRepeats(3)
	path := planner.Path{{X: 0, Y: 0}}

	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ft.frameCount(); got != 6 {
		t.Errorf("frame count = %d, want 6 (3 repeats x 2 frames)", got)
	}
}

func TestRunStopEmitsFinalSafeState(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)
	e.ctrl.Stop()
	path := planner.Path{{X: 0, Y: 0}, {X: 1, Y: 0}}

	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ft.frameCount(); got != 1 {
		t.Errorf("frame count = %d, want exactly 1 final safe-state frame", got)
	}
}

func TestRunRecoversFromDisconnectAndResumes(t *testing.T) {
	ft := &fakeTransport{failNextN: 1}
	e := newTestExecutor(ft)
	path := planner.Path{{X: 0, Y: 0}, {X: 1, Y: 0}}

	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft.reacquired != 1 {
		t.Errorf("reacquired = %d, want 1", ft.reacquired)
	}
	// First target's draw-press write fails and triggers reacquire; per
	// spec §4.4 that target's remaining operations are abandoned and the
	// Executor resumes from the next operation: the Move to (1,0) (2
	// frames: dpad-set + neutral) and the second target's Draw (2 frames).
	if got := ft.frameCount(); got != 4 {
		t.Errorf("frame count = %d, want 4", got)
	}
}

func TestRunExhaustsReconnectBudgetAndReturnsError(t *testing.T) {
	ft := &fakeTransport{failNextN: 100, reacquireErr: paintcore.New(paintcore.KindDisconnected, "fake", "still gone")}
	e := newTestExecutor(ft)
	e.reconnect = ReconnectPolicy{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxAttempts: 2}
	path := planner.Path{{X: 0, Y: 0}}

	err := e.Run(path, true)
	if err == nil {
		t.Fatal("expected an error once the reconnect budget is exhausted")
	}
	kind, ok := paintcore.KindOf(err)
	if !ok || kind != paintcore.KindFatal {
		t.Errorf("expected a Fatal-kind error, got %v", err)
	}
}

func TestRunHonoursSkipInitialization(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)
	path := planner.Path{}

	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ft.frameCount(); got != 0 {
		t.Errorf("frame count = %d, want 0 when skipping init on an empty path", got)
	}
}

func TestRunEmitsModeSelectAndCompletionWhenInitNotSkipped(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)
	path := planner.Path{{X: 0, Y: 0}}

	if err := e.Run(path, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handshakeFrames := 0
	for _, step := range DefaultHandshake {
		handshakeFrames += step.Repeats
	}
	handshakeFrames++ // final Neutralize write

	// handshake + mode-select (press+release) + one Draw (press+release) +
	// completion (press+release).
	want := handshakeFrames + 2 + 2 + 2
	if got := ft.frameCount(); got != want {
		t.Errorf("frame count = %d, want %d", got, want)
	}
}

func TestRunSkipsModeSelectAndCompletionOnEmptyPath(t *testing.T) {
	ft := &fakeTransport{}
	e := newTestExecutor(ft)

	if err := e.Run(planner.Path{}, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handshakeFrames := 0
	for _, step := range DefaultHandshake {
		handshakeFrames += step.Repeats
	}
	handshakeFrames++

	if got := ft.frameCount(); got != handshakeFrames {
		t.Errorf("frame count = %d, want %d (handshake only, no mode-select/completion on a zero-Draw path)", got, handshakeFrames)
	}
}

func TestRunProgressEventsAreMonotonic(t *testing.T) {
	ft := &fakeTransport{}
	var events []ProgressEvent
	var mu sync.Mutex
	tn := tunables.New(tunables.Triple{PressMs: 1, ReleaseMs: 1, WaitMs: 1}, 1)
	ctrl := NewControl()
	e := New(ft, tn, ctrl, logging.New("test"), func(ev ProgressEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})
	e.sleep = noSleep

	path := planner.Path{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}}
	if err := e.Run(path, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	last := 0
	for _, ev := range events {
		if ev.CurrentDot < last {
			t.Fatalf("current_dot decreased: %d after %d", ev.CurrentDot, last)
		}
		last = ev.CurrentDot
		if ev.CurrentDot > ev.TotalDots {
			t.Fatalf("current_dot %d exceeds total_dots %d", ev.CurrentDot, ev.TotalDots)
		}
	}
	if last != 3 {
		t.Errorf("final current_dot = %d, want 3", last)
	}
}
