// internal/driver/mode.go
package driver

import (
	"fmt"
	"strings"
)

// Mode is the run state of the driver. The operator's two toggles
// (rehearse and execute) collapse into one value; execute wins when both
// are set.
type Mode int

const (
	// ModeIdle ignores snapshots.
	ModeIdle Mode = iota
	// ModeRehearse moves the pointer through the pass without clicking.
	ModeRehearse
	// ModeExecute moves and clicks, and disarms when a pass drains.
	ModeExecute
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeRehearse:
		return "rehearse"
	case ModeExecute:
		return "execute"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Armed reports whether snapshots drive input in this mode.
func (m Mode) Armed() bool {
	return m == ModeRehearse || m == ModeExecute
}

// ParseMode accepts the names printed by String, plus "try" and "go".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "idle", "stop":
		return ModeIdle, nil
	case "rehearse", "rehearsal", "try":
		return ModeRehearse, nil
	case "execute", "go":
		return ModeExecute, nil
	default:
		return ModeIdle, fmt.Errorf("unknown mode %q (want idle, rehearse or execute)", s)
	}
}
