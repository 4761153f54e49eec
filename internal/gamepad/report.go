package gamepad

// Report is the mutable controller report C2 owns exclusively (spec §3,
// §4.2): two button-ish masks in spirit (here one ButtonState bitmask),
// one D-pad hat, two sticks, plus the constant connection/battery fields.
// Exactly one serialise() is issued per write (spec §4.2 Rationale).
//
// Wire layout grounded verbatim on
// original_source/src/domain/controller/value_objects.rs's
// to_pro_controller_bytes: 64-byte Pro Controller standard input report,
// report ID 0x30, an incrementing timer byte, battery/connection byte 0x90
// (full battery, powered/USB), a 3-byte button block in the device's own
// bit order (distinct from this package's logical Button bitmask), 3-byte
// packed 12-bit stick pairs for left and right stick, vibrator byte zero.
type Report struct {
	buttons ButtonState
	dpad    DPad
	left    StickPosition
	right   StickPosition
	timer   uint8
}

// WireLength is the fixed wire length of the emulated gamepad's input
// report (spec §3 Controller Report: "≈64 bytes"). Short writes below this
// length are a fatal implementation bug per spec §4.1, never a recoverable
// error.
const WireLength = 64

func NewReport() *Report {
	return &Report{dpad: DPadNeutral, left: StickCenter, right: StickCenter}
}

func (r *Report) Press(b Button)   { r.buttons.Press(b) }
func (r *Report) Release(b Button) { r.buttons.Release(b) }

func (r *Report) SetDPad(d DPad) { r.dpad = d }

// SetStick packs x,y in [-1,1] into the wire range for the named stick.
func (r *Report) SetStick(which StickID, x, y float64) {
	pos := FromNormalized(x, y)
	switch which {
	case StickLeft:
		r.left = pos
	case StickRight:
		r.right = pos
	}
}

func (r *Report) Neutralize() {
	r.buttons = 0
	r.dpad = DPadNeutral
	r.left = StickCenter
	r.right = StickCenter
}

type StickID int

const (
	StickLeft StickID = iota
	StickRight
)

// dpadByte maps the hat value to the Pro Controller's Down/Up/Right/Left
// bit positions in byte 5, per value_objects.rs's match over self.dpad.value().
var dpadByte = map[DPad]byte{
	DPadUp:        0x02,
	DPadUpRight:   0x06,
	DPadRight:     0x04,
	DPadDownRight: 0x05,
	DPadDown:      0x01,
	DPadDownLeft:  0x09,
	DPadLeft:      0x08,
	DPadUpLeft:    0x0A,
	DPadNeutral:   0x00,
}

// Serialise returns the fixed-length byte sequence representing the
// current report (spec §4.2 serialise()). Exactly WireLength bytes; unused
// bits are zero; connection-info/battery bytes are the constant 0x90 for
// the encoder's whole lifetime.
func (r *Report) Serialise() []byte {
	out := make([]byte, WireLength)

	out[0] = 0x30 // standard input report
	out[1] = r.timer
	r.timer++
	out[2] = 0x90 // full battery, USB powered — constant for the encoder's lifetime

	buttons := uint16(r.buttons)

	var b3 byte
	if buttons&uint16(ButtonY) != 0 {
		b3 |= 0x01
	}
	if buttons&uint16(ButtonX) != 0 {
		b3 |= 0x02
	}
	if buttons&uint16(ButtonB) != 0 {
		b3 |= 0x04
	}
	if buttons&uint16(ButtonA) != 0 {
		b3 |= 0x08
	}
	if buttons&uint16(ButtonR) != 0 {
		b3 |= 0x40
	}
	if buttons&uint16(ButtonZR) != 0 {
		b3 |= 0x80
	}
	out[3] = b3

	var b4 byte
	if buttons&uint16(ButtonMinus) != 0 {
		b4 |= 0x01
	}
	if buttons&uint16(ButtonPlus) != 0 {
		b4 |= 0x02
	}
	if buttons&uint16(ButtonRStick) != 0 {
		b4 |= 0x04
	}
	if buttons&uint16(ButtonLStick) != 0 {
		b4 |= 0x08
	}
	if buttons&uint16(ButtonHome) != 0 {
		b4 |= 0x10
	}
	if buttons&uint16(ButtonCapture) != 0 {
		b4 |= 0x20
	}
	out[4] = b4

	b5 := dpadByte[r.dpad]
	if buttons&uint16(ButtonL) != 0 {
		b5 |= 0x40
	}
	if buttons&uint16(ButtonZL) != 0 {
		b5 |= 0x80
	}
	out[5] = b5

	lx := uint16(uint32(r.left.X) * 4095 / 255)
	ly := uint16(uint32(r.left.Y) * 4095 / 255)
	out[6] = byte(lx)
	out[7] = byte((lx>>8)&0x0F) | byte((ly&0x0F)<<4)
	out[8] = byte(ly >> 4)

	rx := uint16(uint32(r.right.X) * 4095 / 255)
	ry := uint16(uint32(r.right.Y) * 4095 / 255)
	out[9] = byte(rx)
	out[10] = byte((rx>>8)&0x0F) | byte((ry&0x0F)<<4)
	out[11] = byte(ry >> 4)

	out[12] = 0x00 // vibrator report, unused

	return out
}
