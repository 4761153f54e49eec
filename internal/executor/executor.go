// Package executor implements C4, the Paint Executor (spec §4.4): it walks
// a planned Path, translating each Move/Draw into timed button sequences
// through C2 (gamepad) and C1 (hidtransport), honouring the live timing
// triple and repeat count, and deferring to pause/stop flags at every
// inter-operation boundary.
//
// The overall loop shape — suspend only at scheduled sleeps/writes/pause
// waits, check a shared flag between iterations, return to an outer
// reconnect wrapper on failure — follows a read/process/check-flag/
// reconnect-on-failure discipline: read one chunk of work, process it,
// check a non-blocking status signal between iterations, let the outer
// loop reconnect; here the same shape computes the next operation and
// writes it to HID instead.
package executor

import (
	"time"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/gamepad"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/logging"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/paintcore"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/planner"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/tunables"
)

// errStopRequested is an internal control-flow sentinel: it never leaves
// Run. It lets moveCursorToXY/translateDraw unwind out of a multi-step
// operation sequence the instant a stop is requested, satisfying "never
// mid-operation" by treating each individual Move or Draw-repeat as its
// own boundary rather than the whole per-coordinate bundle.
var errStopRequested = paintcore.New(paintcore.KindFatal, "executor", "stop requested")

// ProgressEvent is emitted at every operation boundary (spec §3 Progress
// Event) for C5 to fan out to observers.
type ProgressEvent struct {
	CurrentDot     int
	TotalDots      int
	CursorX        int
	CursorY        int
	DPadOps        int
	AButtonPresses int
	IsPaint        bool
}

// TerminalEvent carries a session-ending error for the final
// calibration_complete/progress-shaped event (spec §7 "User-visible
// behaviour").
type TerminalEvent struct {
	Status  string
	Message string
}

// hidWriter is the narrow surface Executor needs from internal/hidtransport
// (WriteReport/Reacquire), kept as an interface here so tests can
// substitute a fake endpoint instead of a real character device.
type hidWriter interface {
	WriteReport(frame []byte) error
	Reacquire() error
}

// Executor drives one paint or calibration session end to end. It is used
// once and discarded; C5 constructs a fresh Executor per session.
type Executor struct {
	transport hidWriter
	report    *gamepad.Report
	tn        *tunables.Tunables
	ctrl      *Control
	log       *logging.Logger
	reconnect ReconnectPolicy

	onProgress func(ProgressEvent)
	sleep      func(time.Duration)

	cursorX, cursorY       int
	dpadOps                int
	aPresses               int
	lastCurrent, lastTotal int
}

func New(t hidWriter, tn *tunables.Tunables, ctrl *Control, log *logging.Logger, onProgress func(ProgressEvent)) *Executor {
	e := &Executor{
		transport:  t,
		report:     gamepad.NewReport(),
		tn:         tn,
		ctrl:       ctrl,
		log:        log,
		reconnect:  DefaultReconnectPolicy,
		onProgress: onProgress,
	}
	e.sleep = e.sleepRealtime
	return e
}

// sleepRealtime is the scheduled-sleep primitive (spec §4.4 Timing
// contract: "MUST be realised as scheduled sleeps... resolution ≤1ms...
// an early wake-up is a correctness violation"). time.Sleep never wakes
// early; a late wake-up beyond a small slop is logged, never treated as an
// error.
func (e *Executor) sleepRealtime(d time.Duration) {
	if d <= 0 {
		return
	}
	start := time.Now()
	time.Sleep(d)
	if over := time.Since(start) - d; over > 5*time.Millisecond {
		e.log.Debug("late wake-up by %v", over)
	}
}

// Run executes the full session: handshake (unless skipInit), then every
// coordinate in path, honouring pause/stop at each boundary. Returns nil on
// clean completion or a deliberate stop, a wrapped Disconnected-turned-Fatal
// error on reconnect-budget exhaustion, or a Fatal error on an
// implementation-invariant violation.
func (e *Executor) Run(path planner.Path, skipInit bool) error {
	if !skipInit {
		if err := e.runHandshake(); err != nil {
			return err
		}
	}

	drawing := len(path) > 0
	if drawing && !skipInit {
		if err := e.runModeSelect(); err != nil {
			if err == errStopRequested {
				e.emitFinalSafeState()
				return nil
			}
			if recovered := e.handleDisconnect(err); recovered != nil {
				return recovered
			}
		}
	}

	total := len(path)
	for i, target := range path {
		if e.boundary() {
			e.emitFinalSafeState()
			return nil
		}

		if err := e.moveCursorToXY(target.X, target.Y); err != nil {
			if err == errStopRequested {
				e.emitFinalSafeState()
				return nil
			}
			if recovered := e.handleDisconnect(err); recovered != nil {
				return recovered
			}
			continue // spec §4.4: "on success resume from the next operation"
		}

		triple := e.tn.Load()
		repeats := e.tn.LoadRepeats()
		if err := e.translateDraw(triple, repeats); err != nil {
			if err == errStopRequested {
				e.emitFinalSafeState()
				return nil
			}
			if recovered := e.handleDisconnect(err); recovered != nil {
				return recovered
			}
			continue
		}

		e.emitProgress(i+1, total, true)
	}

	if drawing && !skipInit && !e.ctrl.IsStopping() {
		if err := e.runCompletion(); err != nil {
			if err == errStopRequested {
				e.emitFinalSafeState()
				return nil
			}
			if recovered := e.handleDisconnect(err); recovered != nil {
				return recovered
			}
		}
	}

	return nil
}

// boundary checks the Stopping/Paused flags at an inter-operation boundary
// (spec §4.4 Pause/stop cooperation). Returns true if the session should
// stop now.
func (e *Executor) boundary() bool {
	e.ctrl.waitIfPaused()
	return e.ctrl.IsStopping()
}

func (e *Executor) handleDisconnect(err error) error {
	kind, ok := paintcore.KindOf(err)
	if !ok || kind != paintcore.KindDisconnected {
		return paintcore.Wrap(paintcore.KindFatal, "executor.Run", err)
	}
	e.log.Warn("hid disconnected, attempting reacquire")
	if rerr := retryReacquire(e.transport, e.reconnect, e.sleep); rerr != nil {
		e.log.Error("reconnect budget exhausted: %v", rerr)
		return rerr
	}
	e.log.Info("hid reacquired, resuming from next operation")
	return nil
}

// moveCursorToXY emits one Move per unit step toward (x,y), vertical first
// then horizontal — the specific order is immaterial to spec §8 Invariant
// 2, which only constrains the total count.
func (e *Executor) moveCursorToXY(x, y int) error {
	for e.cursorY != y {
		if e.boundary() {
			return errStopRequested
		}
		dir := gamepad.DirDown
		if y < e.cursorY {
			dir = gamepad.DirUp
		}
		if err := e.translateMove(e.tn.Load(), dir); err != nil {
			return err
		}
		if dir == gamepad.DirDown {
			e.cursorY++
		} else {
			e.cursorY--
		}
		e.emitProgress(-1, -1, false)
	}
	for e.cursorX != x {
		if e.boundary() {
			return errStopRequested
		}
		dir := gamepad.DirRight
		if x < e.cursorX {
			dir = gamepad.DirLeft
		}
		if err := e.translateMove(e.tn.Load(), dir); err != nil {
			return err
		}
		if dir == gamepad.DirRight {
			e.cursorX++
		} else {
			e.cursorX--
		}
		e.emitProgress(-1, -1, false)
	}
	return nil
}

// translateMove implements spec §4.4's Move translation: set dpad, write,
// hold press_ms, neutral, write, hold release_ms.
func (e *Executor) translateMove(t tunables.Triple, dir gamepad.Direction) error {
	e.report.SetDPad(dir.DPad())
	if err := e.writeFrame(); err != nil {
		return err
	}
	e.sleep(time.Duration(t.PressMs) * time.Millisecond)

	e.report.SetDPad(gamepad.DPadNeutral)
	if err := e.writeFrame(); err != nil {
		return err
	}
	e.sleep(time.Duration(t.ReleaseMs) * time.Millisecond)

	e.dpadOps++
	return nil
}

// translateDraw implements spec §4.4's Draw translation for each of R
// repeats: press A, write; hold press_ms; release A, write; hold
// release_ms; hold wait_ms.
func (e *Executor) translateDraw(t tunables.Triple, repeats int) error {
	for r := 0; r < repeats; r++ {
		if e.boundary() {
			return errStopRequested
		}
		e.report.Press(gamepad.ButtonA)
		if err := e.writeFrame(); err != nil {
			return err
		}
		e.sleep(time.Duration(t.PressMs) * time.Millisecond)

		e.report.Release(gamepad.ButtonA)
		if err := e.writeFrame(); err != nil {
			return err
		}
		e.sleep(time.Duration(t.ReleaseMs) * time.Millisecond)
		e.sleep(time.Duration(t.WaitMs) * time.Millisecond)

		e.aPresses++
	}
	return nil
}

// ModeSelectButton is the drawing-mode button pressed once before the path
// commands begin, grounded on original_source's
// create_select_drawing_mode_command / DrawingMode::select_button. This
// backend's Canvas is always a single-bit pixel canvas, so the mode is
// fixed to the Pixel Pen selection (Button::L in the original's
// DrawingMode enum); NormalPen/ThickPen/Eraser have no counterpart in a
// 1-bit Canvas and are not exposed as a session option.
const ModeSelectButton = gamepad.ButtonL

// CompletionButton is pressed once the full path has drawn, grounded on
// create_completion_command's press/release of Button::HOME.
const CompletionButton = gamepad.ButtonHome

// runModeSelect presses and releases ModeSelectButton once, on the same
// translatePenToggle cycle a drag-paint Operation would use.
func (e *Executor) runModeSelect() error {
	if e.boundary() {
		return errStopRequested
	}
	return e.translatePenToggle(e.tn.Load(), ModeSelectButton)
}

// runCompletion presses and releases CompletionButton once the path is
// fully drawn.
func (e *Executor) runCompletion() error {
	if e.boundary() {
		return errStopRequested
	}
	return e.translatePenToggle(e.tn.Load(), CompletionButton)
}

// translatePenToggle implements the PenUp/PenDown Operation variant (spec
// §3): a single Move-shaped cycle using a modifier button mask instead of
// the D-pad. It backs both the drag-paint Operation variant (unused by the
// four current planner strategies) and the mode-select/completion button
// cycles above.
func (e *Executor) translatePenToggle(t tunables.Triple, modifier gamepad.Button) error {
	e.report.Press(modifier)
	if err := e.writeFrame(); err != nil {
		return err
	}
	e.sleep(time.Duration(t.PressMs) * time.Millisecond)

	e.report.Release(modifier)
	if err := e.writeFrame(); err != nil {
		return err
	}
	e.sleep(time.Duration(t.ReleaseMs) * time.Millisecond)
	return nil
}

func (e *Executor) runHandshake() error {
	triple := e.tn.Load()
	for _, step := range DefaultHandshake {
		for i := 0; i < step.Repeats; i++ {
			e.report.SetDPad(step.DPad)
			if err := e.writeFrame(); err != nil {
				if recovered := e.handleDisconnect(err); recovered != nil {
					return recovered
				}
				continue
			}
			holdMs := step.HoldMs
			if holdMs == 0 {
				holdMs = triple.ReleaseMs
			}
			e.sleep(time.Duration(holdMs) * time.Millisecond)
		}
	}
	e.report.Neutralize()
	return e.writeFrame()
}

func (e *Executor) writeFrame() error {
	return e.transport.WriteReport(e.report.Serialise())
}

// emitFinalSafeState releases all buttons and neutralises the D-pad and
// sticks, then writes one final report (spec §5 Cancellation: "always
// emits a final safe-state report").
func (e *Executor) emitFinalSafeState() {
	e.report.Neutralize()
	_ = e.writeFrame()
}

func (e *Executor) emitProgress(current, total int, isPaint bool) {
	if e.onProgress == nil {
		return
	}
	if current < 0 {
		current = e.lastCurrent
	} else {
		e.lastCurrent = current
	}
	if total < 0 {
		total = e.lastTotal
	} else {
		e.lastTotal = total
	}
	e.onProgress(ProgressEvent{
		CurrentDot:     current,
		TotalDots:      total,
		CursorX:        e.cursorX,
		CursorY:        e.cursorY,
		DPadOps:        e.dpadOps,
		AButtonPresses: e.aPresses,
		IsPaint:        isPaint,
	})
}
