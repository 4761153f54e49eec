// Package gamepad holds the Gamepad Protocol Encoder (spec §4.2, C2): the
// live controller report as a bitfield, mutated by press/release/set_dpad/
// set_stick and serialised on demand.
//
// Bit layout is grounded on original_source/src/domain/controller/value_objects.rs
// (the Switch Pro Controller wire format this system emulates). The
// ButtonState bit-twiddling methods (Press/Release/IsPressed) are grounded
// on the pack's riking-joycon/prog4/jcpc/buttons.go ButtonState, adapted from that file's
// value-receiver style to a pointer-receiver style: spec §3 requires the
// report be "owned exclusively... no two components may mutate it
// concurrently", which reads naturally as in-place mutation rather than
// riking-joycon's copy-and-return style.
package gamepad

// Button is a bitmask identifying one Pro Controller button, matching
// value_objects.rs's Button constants exactly.
type Button uint16

const (
	ButtonY       Button = 0x0001
	ButtonB       Button = 0x0002
	ButtonA       Button = 0x0004
	ButtonX       Button = 0x0008
	ButtonL       Button = 0x0010
	ButtonR       Button = 0x0020
	ButtonZL      Button = 0x0040
	ButtonZR      Button = 0x0080
	ButtonMinus   Button = 0x0100
	ButtonPlus    Button = 0x0200
	ButtonLStick  Button = 0x0400
	ButtonRStick  Button = 0x0800
	ButtonHome    Button = 0x1000
	ButtonCapture Button = 0x2000
)

func (b Button) String() string {
	switch b {
	case ButtonY:
		return "Y"
	case ButtonB:
		return "B"
	case ButtonA:
		return "A"
	case ButtonX:
		return "X"
	case ButtonL:
		return "L"
	case ButtonR:
		return "R"
	case ButtonZL:
		return "ZL"
	case ButtonZR:
		return "ZR"
	case ButtonMinus:
		return "-"
	case ButtonPlus:
		return "+"
	case ButtonLStick:
		return "LStick"
	case ButtonRStick:
		return "RStick"
	case ButtonHome:
		return "Home"
	case ButtonCapture:
		return "Capture"
	default:
		return "Unknown"
	}
}

// DPad is the hat value: eight directions plus neutral, matching
// value_objects.rs's DPad constants.
type DPad uint8

const (
	DPadUp        DPad = 0x00
	DPadUpRight   DPad = 0x01
	DPadRight     DPad = 0x02
	DPadDownRight DPad = 0x03
	DPadDown      DPad = 0x04
	DPadDownLeft  DPad = 0x05
	DPadLeft      DPad = 0x06
	DPadUpLeft    DPad = 0x07
	DPadNeutral   DPad = 0x08
)

// Direction is the cardinal-only subset the Path Planner and Executor deal
// in (spec §3 Operation: Move(dir) is one of the four cardinal directions).
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) DPad() DPad {
	switch d {
	case DirUp:
		return DPadUp
	case DirDown:
		return DPadDown
	case DirLeft:
		return DPadLeft
	case DirRight:
		return DPadRight
	default:
		return DPadNeutral
	}
}

// StickPosition packs one analogue stick's normalized axes into the 8-bit
// wire range [0,255], matching value_objects.rs's StickPosition.
type StickPosition struct {
	X, Y uint8
}

var StickCenter = StickPosition{X: 128, Y: 128}

// FromNormalized maps x,y in [-1,1] to the wire range, matching
// value_objects.rs's from_normalized.
func FromNormalized(x, y float64) StickPosition {
	clamp := func(v float64) float64 {
		if v < -1 {
			return -1
		}
		if v > 1 {
			return 1
		}
		return v
	}
	return StickPosition{
		X: uint8((clamp(x) + 1.0) * 127.5),
		Y: uint8((clamp(y) + 1.0) * 127.5),
	}
}

// ButtonState is the pressed-bits bitmask, matching value_objects.rs's
// ButtonState.
type ButtonState uint16

func (s *ButtonState) Press(b Button)   { *s |= ButtonState(b) }
func (s *ButtonState) Release(b Button) { *s &^= ButtonState(b) }
func (s ButtonState) IsPressed(b Button) bool {
	return s&ButtonState(b) != 0
}
