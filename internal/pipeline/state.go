package pipeline

import "fmt"

// State is the controller's position in the per-frame cycle.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateExtracting
	StateClassifying
	StateDelivering
	StateStopped
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateCapturing:   "capturing",
	StateExtracting:  "extracting",
	StateClassifying: "classifying",
	StateDelivering:  "delivering",
	StateStopped:     "stopped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int32(s))
	}
	return stateNames[s]
}

// Busy reports whether the worker is processing a frame in this state.
func (s State) Busy() bool {
	return s == StateExtracting || s == StateClassifying
}
