// Package hidtransport implements C1, the HID Transport (spec §4.1): a
// blocking "write one report" operation over the kernel-exported HID
// gadget endpoint (typically /dev/hidg0), whose success implies the OS
// accepted the frame for delivery to the console side of the USB link.
//
// Uses a stat-then-open discipline that classifies specific errno values
// as specific failure kinds, adapted from detecting an *active* input
// device to detecting a *bound* output device, plus a best-effort
// grab-for-exclusivity call before writes begin.
package hidtransport

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/gamepad"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/paintcore"
)

type state int

const (
	stateClosed state = iota
	stateOpen
)

// Transport is the C1 state machine: Closed -> Open -> Closed. A
// Disconnected error during WriteReport transitions Open->Closed
// automatically (spec §4.1).
type Transport struct {
	mu    sync.Mutex
	state state
	path  string
	f     *os.File
}

func New(path string) *Transport {
	return &Transport{path: path, state: stateClosed}
}

// Open acquires exclusive write access to the HID endpoint. Fails with
// NotAvailable when the node does not exist, NotBound when it exists but
// no host is attached, PermissionDenied when opening it is not permitted;
// any other error is wrapped as a plain Transport error.
func (t *Transport) Open() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.openLocked()
}

func (t *Transport) openLocked() error {
	if _, err := os.Stat(t.path); err != nil {
		if os.IsNotExist(err) {
			return paintcore.Wrap(paintcore.KindTransport, "hidtransport.Open", fmt.Errorf("%w: %s", paintcore.ErrNotAvailable, t.path))
		}
		return paintcore.Wrap(paintcore.KindTransport, "hidtransport.Open", err)
	}

	f, err := os.OpenFile(t.path, os.O_WRONLY, 0)
	if err != nil {
		if os.IsPermission(err) {
			return paintcore.Wrap(paintcore.KindTransport, "hidtransport.Open", paintcore.ErrPermissionDenied)
		}
		if errors.Is(err, syscall.ESHUTDOWN) || errors.Is(err, syscall.EPIPE) {
			return paintcore.Wrap(paintcore.KindTransport, "hidtransport.Open", fmt.Errorf("%w: %s", paintcore.ErrNotBound, t.path))
		}
		return paintcore.Wrap(paintcore.KindTransport, "hidtransport.Open", err)
	}

	// Best-effort grab. A gadget HID char device doesn't support
	// EVIOCGRAB (that's an evdev ioctl), so this only grabs in spirit:
	// attempt a non-fatal exclusivity hint via flock and ignore failure.
	_ = unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)

	t.f = f
	t.state = stateOpen
	return nil
}

// WriteReport writes exactly one report frame, atomic at the frame
// boundary. Fails with Disconnected when the host detaches mid-write;
// other OS errors surface as Transport.
func (t *Transport) WriteReport(frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(frame) != gamepad.WireLength {
		// A short write at the encoder boundary is a fatal
		// implementation bug, not a recoverable error (spec §4.1
		// Design choice).
		return paintcore.Wrap(paintcore.KindFatal, "hidtransport.WriteReport", fmt.Errorf("%w: got %d want %d", paintcore.ErrShortWrite, len(frame), gamepad.WireLength))
	}
	if t.state != stateOpen {
		return paintcore.Wrap(paintcore.KindTransport, "hidtransport.WriteReport", fmt.Errorf("transport not open"))
	}

	n, err := t.f.Write(frame)
	if err != nil {
		if isDisconnectErr(err) {
			t.closeLocked()
			return paintcore.Wrap(paintcore.KindDisconnected, "hidtransport.WriteReport", err)
		}
		return paintcore.Wrap(paintcore.KindTransport, "hidtransport.WriteReport", err)
	}
	if n != len(frame) {
		t.closeLocked()
		return paintcore.Wrap(paintcore.KindDisconnected, "hidtransport.WriteReport", fmt.Errorf("%w: wrote %d of %d", paintcore.ErrShortWrite, n, len(frame)))
	}
	return nil
}

// Reacquire closes and re-opens the endpoint. Invoked by the Executor
// after a Disconnected error during a retryable phase (spec §4.1, §4.4).
func (t *Transport) Reacquire() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
	return t.openLocked()
}

func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeLocked()
}

func (t *Transport) closeLocked() {
	if t.f != nil {
		_ = t.f.Close()
		t.f = nil
	}
	t.state = stateClosed
}

func isDisconnectErr(err error) bool {
	return errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ESHUTDOWN) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, os.ErrClosed)
}
