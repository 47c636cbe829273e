// Package runmode defines the proxy's live/record/playback operating
// mode, shared between the control plane (which switches it) and the
// core flow pipeline (which implements the switch).
package runmode

import "context"

// Mode is the proxy's current operating mode.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeRecord   Mode = "record"
	ModePlayback Mode = "playback"
)

// Valid reports whether m is one of the three defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeLive, ModeRecord, ModePlayback:
		return true
	default:
		return false
	}
}

// ModeController is implemented by the core flow pipeline. The control
// plane never touches tape files or the classifier pipeline directly —
// it only asks the controller to switch mode and reports whatever mode
// the controller says it is actually in.
type ModeController interface {
	CurrentMode() Mode
	SwitchMode(ctx context.Context, target Mode, tapePath string) error
}
