package scan

import (
	"fmt"
	"strings"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// Strategy selects how a scan spanning several groups is carried out.
type Strategy int

const (
	// Recursive scans chunks, scans the chunk totals level by level, then
	// propagates offsets back down. Several launches per call.
	Recursive Strategy = iota
	// Stream is the single-launch decoupled look-back scan.
	Stream
)

func (s Strategy) String() string {
	switch s {
	case Recursive:
		return "recursive"
	case Stream:
		return "stream"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "recursive", "multi-level":
		return Recursive, nil
	case "stream", "lookback", "decoupled-lookback":
		return Stream, nil
	default:
		return 0, fmt.Errorf("unknown scan strategy %q (expected recursive or stream)", s)
	}
}

// Config configures an Engine.
type Config struct {
	// Launch is the group shape used by every scan launch.
	Launch compute.LaunchConfig
	// Strategy backs ExclusiveScan and InclusiveScan.
	Strategy Strategy
}

func DefaultConfig() Config {
	return Config{
		Launch:   compute.DefaultLaunchConfig,
		Strategy: Recursive,
	}
}

func (c Config) Validate() error {
	if err := c.Launch.Validate(); err != nil {
		return err
	}
	switch c.Strategy {
	case Recursive, Stream:
		return nil
	default:
		return fmt.Errorf("unknown scan strategy %d", int(c.Strategy))
	}
}
