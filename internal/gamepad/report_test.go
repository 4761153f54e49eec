package gamepad

import "testing"

func TestSerialiseLength(t *testing.T) {
	r := NewReport()
	out := r.Serialise()
	if len(out) != WireLength {
		t.Fatalf("got length %d, want %d", len(out), WireLength)
	}
}

func TestSerialiseReportIDAndBattery(t *testing.T) {
	r := NewReport()
	out := r.Serialise()
	if out[0] != 0x30 {
		t.Errorf("report id = %#x, want 0x30", out[0])
	}
	if out[2] != 0x90 {
		t.Errorf("battery/connection byte = %#x, want 0x90", out[2])
	}
}

func TestSerialiseTimerIncrements(t *testing.T) {
	r := NewReport()
	first := r.Serialise()[1]
	second := r.Serialise()[1]
	if second != first+1 {
		t.Errorf("timer byte did not increment: %d then %d", first, second)
	}
}

func TestPressSetsButtonBit(t *testing.T) {
	r := NewReport()
	r.Press(ButtonA)
	out := r.Serialise()
	if out[3]&0x08 == 0 {
		t.Errorf("byte 3 = %#x, A bit (0x08) not set", out[3])
	}
}

func TestReleaseClearsButtonBit(t *testing.T) {
	r := NewReport()
	r.Press(ButtonA)
	r.Release(ButtonA)
	out := r.Serialise()
	if out[3]&0x08 != 0 {
		t.Errorf("byte 3 = %#x, A bit (0x08) still set after release", out[3])
	}
}

func TestSetDPadEncoding(t *testing.T) {
	cases := []struct {
		dpad DPad
		want byte
	}{
		{DPadUp, 0x02},
		{DPadDown, 0x01},
		{DPadLeft, 0x08},
		{DPadRight, 0x04},
		{DPadUpLeft, 0x0A},
		{DPadNeutral, 0x00},
	}
	for _, c := range cases {
		r := NewReport()
		r.SetDPad(c.dpad)
		out := r.Serialise()
		if got := out[5] & 0x0F; got != c.want {
			t.Errorf("dpad %v: byte5&0x0F = %#x, want %#x", c.dpad, got, c.want)
		}
	}
}

func TestSetStickCentersAtZero(t *testing.T) {
	r := NewReport()
	r.SetStick(StickLeft, 0, 0)
	out := r.Serialise()
	lx := uint16(out[6]) | uint16(out[7]&0x0F)<<8
	ly := uint16(out[7]>>4) | uint16(out[8])<<4
	// (0,0) normalizes to 127, which maps to 12-bit 2039; allow rounding
	// either side of center.
	if lx < 2000 || lx > 2080 {
		t.Errorf("lx = %d, want near center", lx)
	}
	if ly < 2000 || ly > 2080 {
		t.Errorf("ly = %d, want near center", ly)
	}
}

func TestNeutralizeClearsEverything(t *testing.T) {
	r := NewReport()
	r.Press(ButtonA)
	r.Press(ButtonB)
	r.SetDPad(DPadUp)
	r.SetStick(StickLeft, 1, 1)
	r.Neutralize()
	out := r.Serialise()
	if out[3] != 0 || out[4] != 0 {
		t.Errorf("button bytes not cleared: %#x %#x", out[3], out[4])
	}
	if out[5]&0x0F != 0x00 {
		t.Errorf("dpad not neutral: %#x", out[5]&0x0F)
	}
}

func TestButtonStatePressReleaseIsPressed(t *testing.T) {
	var s ButtonState
	s.Press(ButtonX)
	if !s.IsPressed(ButtonX) {
		t.Fatal("expected ButtonX pressed")
	}
	s.Release(ButtonX)
	if s.IsPressed(ButtonX) {
		t.Fatal("expected ButtonX released")
	}
}

func TestFromNormalizedClamps(t *testing.T) {
	pos := FromNormalized(5, -5)
	if pos.X != 255 {
		t.Errorf("X = %d, want clamped to 255", pos.X)
	}
	if pos.Y != 0 {
		t.Errorf("Y = %d, want clamped to 0", pos.Y)
	}
}
