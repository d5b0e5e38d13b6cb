package compute

import (
	"fmt"
	"strings"
)

// Mode selects between exclusive and inclusive prefix sums.
type Mode int

const (
	Exclusive Mode = iota
	Inclusive
)

func (m Mode) String() string {
	switch m {
	case Exclusive:
		return "exclusive"
	case Inclusive:
		return "inclusive"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "exclusive"/"exc" and "inclusive"/"inc".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exclusive", "exc":
		return Exclusive, nil
	case "inclusive", "inc":
		return Inclusive, nil
	default:
		return 0, fmt.Errorf("unknown scan mode %q (expected exclusive or inclusive)", s)
	}
}

// Shift is the read offset applied to the global index when loading a chunk:
// exclusive scans read one element to the left.
func (m Mode) Shift() int {
	if m == Exclusive {
		return 1
	}
	return 0
}
