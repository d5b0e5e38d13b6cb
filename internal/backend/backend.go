package backend

import (
	"fmt"
	"strings"

	"github.com/samcharles93/prefixscan/internal/backend/sim"
	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
)

const (
	Sim    = "sim"
	WebGPU = "webgpu"
	Auto   = "auto"
)

// Options configures queue creation. Sim is applied only to the simulated
// device.
type Options struct {
	Sim    sim.Options
	Logger logger.Logger
}

func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case Sim, WebGPU, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, sim, or webgpu)", backend)
	}
}

// New opens a queue on the named backend. Auto prefers WebGPU when this
// build includes it and an adapter is present, and the simulator otherwise.
func New(name string, opts Options) (compute.Queue, error) {
	backend, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	switch backend {
	case Sim:
		return newSim(opts, log), nil
	case WebGPU:
		return newWebGPU(log)
	default:
		if Has(WebGPU) {
			q, err := newWebGPU(log)
			if err == nil {
				return q, nil
			}
			log.Warn("webgpu unavailable, using simulator", "error", err)
		}
		return newSim(opts, log), nil
	}
}

func newSim(opts Options, log logger.Logger) compute.Queue {
	so := opts.Sim
	if so.Logger == nil {
		so.Logger = log
	}
	return sim.New(so)
}
