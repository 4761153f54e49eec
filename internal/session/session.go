// Package session implements C5, the Session Supervisor (spec §4.5): an
// owned singleton slot holding at most one active paint or calibration
// session, exposing start/pause/resume/stop/update_timing/update_repeats/
// subscribe, and turning Executor progress into observer events.
//
// The observer fan-out (bounded channel per observer, drop-on-full, a drop
// counter, never blocking the Executor) generalizes a non-blocking
// single-slot send (select { case errC <- err: default: }) from "one
// error slot" to "one bounded progress-event channel per observer".
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/executor"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/hidtransport"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/logging"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/paintcore"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/planner"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/registry"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/tunables"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Message is the wire shape of every /ws/logs event (spec §6): exactly one
// of log / progress / calibration_complete is populated per message, and
// the omitempty tags make each JSON payload look like just that shape.
type Message struct {
	Type string `json:"type"`

	Level string `json:"level,omitempty"`
	Tag   string `json:"tag,omitempty"`
	Text  string `json:"text,omitempty"`

	Current        int  `json:"current,omitempty"`
	Total          int  `json:"total,omitempty"`
	X              int  `json:"x,omitempty"`
	Y              int  `json:"y,omitempty"`
	DPadOperations int  `json:"dpad_operations,omitempty"`
	AButtonPresses int  `json:"a_button_presses,omitempty"`
	IsPaint        bool `json:"is_paint,omitempty"`

	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// observerQueueCapacity is the bounded channel size of spec §5 ("e.g.
// capacity 64 events").
const observerQueueCapacity = 64

// Observer is one subscriber to Progress/log/terminal events. The
// Supervisor publishes with a non-blocking send and increments Dropped
// whenever the channel is full, never blocking the Executor.
type Observer struct {
	ch      chan Message
	Dropped atomic.Uint64
}

func newObserver() *Observer {
	return &Observer{ch: make(chan Message, observerQueueCapacity)}
}

// Messages is the channel the caller (internal/observerws) drains.
func (o *Observer) Messages() <-chan Message { return o.ch }

func (o *Observer) send(m Message) {
	select {
	case o.ch <- m:
	default:
		o.Dropped.Add(1)
	}
}

// handle is the live state for the one singleton session slot.
type handle struct {
	id        string
	artworkID string
	ctrl      *executor.Control
	tn        *tunables.Tunables
	doneCh    chan struct{}
	exec      *executor.Executor
	terminal  *Message
}

// Supervisor owns the singleton session slot (spec §9 Design Notes: "the
// slot's presence is the session's existence").
type Supervisor struct {
	mu      sync.Mutex
	state   State
	current *handle

	transport *hidtransport.Transport
	registry  *registry.Registry
	log       *logging.Logger

	observersMu sync.Mutex
	observers   []*Observer

	idGen func() string
}

func New(transport *hidtransport.Transport, reg *registry.Registry, log *logging.Logger, idGen func() string) *Supervisor {
	return &Supervisor{
		transport: transport,
		registry:  reg,
		log:       log,
		state:     StateIdle,
		idGen:     idGen,
	}
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe attaches a new observer (spec §4.5 subscribe). Multiple
// observers are allowed.
func (s *Supervisor) Subscribe() *Observer {
	o := newObserver()
	s.observersMu.Lock()
	s.observers = append(s.observers, o)
	s.observersMu.Unlock()
	return o
}

func (s *Supervisor) Unsubscribe(o *Observer) {
	s.observersMu.Lock()
	defer s.observersMu.Unlock()
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Supervisor) publish(m Message) {
	s.observersMu.Lock()
	obs := s.observers
	s.observersMu.Unlock()
	for _, o := range obs {
		o.send(m)
	}
}

// StartParams bundles the start(...) operation's parameters (spec §4.5).
type StartParams struct {
	Artwork            registry.Artwork
	Strategy           planner.Strategy
	Timing             tunables.Triple
	Repeats            int
	SkipInitialization bool
}

// Start rejects with Busy if a session exists; otherwise plans the path,
// marks state Running, spawns the Executor, and returns immediately with a
// session id (spec §4.5 start).
func (s *Supervisor) Start(p StartParams) (string, error) {
	path := p.Strategy.Plan(p.Artwork.Canvas)
	return s.startWithPath(path, p.Artwork.ID, p.Timing, p.Repeats, p.SkipInitialization)
}

// StartCalibration runs a fixed diagnostic pattern — the handshake table
// alone, zero Draws — matching original_source's test_controller.rs intent
// of calibration as a reduced paint session, without its CLI framing.
func (s *Supervisor) StartCalibration(timing tunables.Triple, skipInit bool) (string, error) {
	return s.startWithPath(planner.Path{}, "", timing, 1, skipInit)
}

func (s *Supervisor) startWithPath(path planner.Path, artworkID string, timing tunables.Triple, repeats int, skipInit bool) (string, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return "", paintcore.Wrap(paintcore.KindBusy, "session.Start", paintcore.ErrBusy)
	}

	id := s.idGen()
	tn := tunables.New(timing, repeats)
	ctrl := executor.NewControl()
	h := &handle{id: id, artworkID: artworkID, ctrl: ctrl, tn: tn, doneCh: make(chan struct{})}

	exec := executor.New(s.transport, tn, ctrl, s.log, s.onProgress)
	h.exec = exec
	s.current = h
	s.state = StateRunning
	s.mu.Unlock()

	go s.run(h, path, skipInit)
	return id, nil
}

func (s *Supervisor) run(h *handle, path planner.Path, skipInit bool) {
	defer close(h.doneCh)

	err := h.exec.Run(path, skipInit)

	s.mu.Lock()
	wasStopping := s.state == StateStopping
	s.state = StateIdle
	s.current = nil
	s.mu.Unlock()

	// Ephemeral by default (spec §3): the artwork is discarded once its
	// paint session completes, successfully or not.
	if h.artworkID != "" {
		s.registry.Delete(h.artworkID)
	}

	if err != nil {
		s.publish(Message{Type: "calibration_complete", Status: "error", Message: err.Error()})
		return
	}
	if !wasStopping {
		s.publish(Message{Type: "calibration_complete", Status: "ok", Message: "painting complete"})
	}
}

// PublishLog fans a logged line out to every observer as a {type:"log"}
// message (spec §6). Wired as the logging.Sink the daemon's logger is
// given once the Supervisor exists.
func (s *Supervisor) PublishLog(level, tag, text string) {
	s.publish(Message{Type: "log", Level: level, Tag: tag, Text: text})
}

func (s *Supervisor) onProgress(ev executor.ProgressEvent) {
	s.publish(Message{
		Type:           "progress",
		Current:        ev.CurrentDot,
		Total:          ev.TotalDots,
		X:              ev.CursorX,
		Y:              ev.CursorY,
		DPadOperations: ev.DPadOps,
		AButtonPresses: ev.AButtonPresses,
		IsPaint:        ev.IsPaint,
	})
}

// Pause toggles the pause flag observed by C4 (spec §4.5 pause()).
func (s *Supervisor) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return nil // idempotent per spec §6: pause/stop are idempotent
	}
	s.current.ctrl.Pause()
	s.state = StatePaused
	return nil
}

// Resume clears the pause flag and wakes the Executor (spec §4.5 resume()).
func (s *Supervisor) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return nil
	}
	s.current.ctrl.Resume()
	s.state = StateRunning
	return nil
}

// Stop sets the Stopping flag and returns immediately; the caller observes
// completion via the calibration_complete/progress terminal event, not by
// blocking here (spec §4.5 stop() says "await the Executor's clean exit",
// honoured asynchronously so the HTTP handler returns promptly — stop is
// idempotent per spec §6, so a second call while Stopping is a no-op).
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning && s.state != StatePaused {
		return nil
	}
	s.current.ctrl.Stop()
	s.current.ctrl.Resume() // unblock a paused Executor so it observes Stopping
	s.state = StateStopping
	return nil
}

// UpdateTiming writes the shared tunable triple; no lock longer than a
// single assignment is held (spec §4.5).
func (s *Supervisor) UpdateTiming(t tunables.Triple) error {
	s.mu.Lock()
	h := s.current
	s.mu.Unlock()
	if h == nil {
		return paintcore.Wrap(paintcore.KindInvalidInput, "session.UpdateTiming", paintcore.ErrNoSession)
	}
	h.tn.Store(t)
	return nil
}

// UpdateRepeats writes the shared repeat count.
func (s *Supervisor) UpdateRepeats(n int) error {
	s.mu.Lock()
	h := s.current
	s.mu.Unlock()
	if h == nil {
		return paintcore.Wrap(paintcore.KindInvalidInput, "session.UpdateRepeats", paintcore.ErrNoSession)
	}
	h.tn.StoreRepeats(n)
	return nil
}

// WaitDone blocks until the current session's Executor exits, or returns
// immediately if there is none. Used by tests that need deterministic
// completion rather than polling State().
func (s *Supervisor) WaitDone(timeout time.Duration) bool {
	s.mu.Lock()
	h := s.current
	s.mu.Unlock()
	if h == nil {
		return true
	}
	select {
	case <-h.doneCh:
		return true
	case <-time.After(timeout):
		return false
	}
}
