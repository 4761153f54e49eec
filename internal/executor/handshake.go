package executor

import "github.com/ystk-kai/splatoon3-ghost-drawer/internal/gamepad"

// HandshakeStep is one step of the fixed initialisation pattern that
// anchors the in-game cursor before painting begins (spec §4.4, §9 Design
// Notes: "the handshake pattern... belongs in a small table, not in
// executable logic").
//
// Grounded on original_source/src/domain/painting/services.rs's
// create_initialization_command: wait 2000ms, neutral dpad for 100ms, tap
// UP_LEFT 150 times at 20ms each to walk the cursor into the top-left
// corner regardless of where it started, then settle neutral for 500ms.
type HandshakeStep struct {
	DPad    gamepad.DPad
	HoldMs  int
	Repeats int
}

// DefaultHandshake is the deployment-constant handshake table.
// When skip_initialization is set, Run does not play this table at all.
var DefaultHandshake = []HandshakeStep{
	{DPad: gamepad.DPadNeutral, HoldMs: 2000, Repeats: 1},
	{DPad: gamepad.DPadNeutral, HoldMs: 100, Repeats: 1},
	{DPad: gamepad.DPadUpLeft, HoldMs: 20, Repeats: 150},
	{DPad: gamepad.DPadNeutral, HoldMs: 500, Repeats: 1},
}
