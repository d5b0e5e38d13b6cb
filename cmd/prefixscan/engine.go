package main

import (
	"context"
	"fmt"

	"github.com/samcharles93/prefixscan/internal/backend"
	"github.com/samcharles93/prefixscan/internal/backend/sim"
	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
	"github.com/samcharles93/prefixscan/internal/scan"
)

func engineConfig() (scan.Config, error) {
	strategy, err := scan.ParseStrategy(strategyName)
	if err != nil {
		return scan.Config{}, err
	}
	cfg := scan.Config{
		Launch: compute.LaunchConfig{
			GroupSize:         int(groupSize),
			ElementsPerWorker: int(elementsPerWorker),
		},
		Strategy: strategy,
	}
	return cfg, cfg.Validate()
}

// openEngine opens the selected backend and an engine on it. The returned
// func closes both.
func openEngine(ctx context.Context) (*scan.Engine, func(), error) {
	log := logger.FromContext(ctx)
	cfg, err := engineConfig()
	if err != nil {
		return nil, nil, err
	}
	q, err := backend.New(backendName, backend.Options{
		Sim: sim.Options{
			ResidentGroups:  int(residentGroups),
			ShuffleDispatch: shuffleDispatch,
			Seed:            dispatchSeed,
		},
		Logger: log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open backend: %w", err)
	}
	engine, err := scan.New(q, cfg, log)
	if err != nil {
		_ = q.Close()
		return nil, nil, err
	}
	log.Debug("engine ready", "backend", q.Name(), "strategy", cfg.Strategy, "launch", cfg.Launch.String())
	return engine, func() {
		_ = engine.Close()
		_ = q.Close()
	}, nil
}
