package main

import (
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/prefixscan/internal/compute"
)

var (
	backendName       string
	strategyName      string
	groupSize         int64
	elementsPerWorker int64
	residentGroups    int64
	shuffleDispatch   bool
	dispatchSeed      uint64
	logLevel          string
	logFormat         string
	debug             bool
)

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Usage:       "execution backend (auto, sim, webgpu)",
			Value:       "auto",
			Destination: &backendName,
		},
		&cli.StringFlag{
			Name:        "strategy",
			Usage:       "scan strategy (recursive, stream)",
			Value:       "recursive",
			Destination: &strategyName,
		},
		&cli.Int64Flag{
			Name:        "group-size",
			Aliases:     []string{"g"},
			Usage:       "workers per group",
			Value:       int64(compute.DefaultLaunchConfig.GroupSize),
			Destination: &groupSize,
		},
		&cli.Int64Flag{
			Name:        "elements-per-worker",
			Aliases:     []string{"e"},
			Usage:       "elements each worker scans",
			Value:       int64(compute.DefaultLaunchConfig.ElementsPerWorker),
			Destination: &elementsPerWorker,
		},
		&cli.Int64Flag{
			Name:        "resident-groups",
			Usage:       "groups the simulator runs at once (0 = GOMAXPROCS)",
			Destination: &residentGroups,
		},
		&cli.BoolFlag{
			Name:        "shuffle",
			Usage:       "dispatch simulator groups in a seeded random order",
			Destination: &shuffleDispatch,
		},
		&cli.Uint64Flag{
			Name:        "dispatch-seed",
			Usage:       "seed for --shuffle",
			Value:       1,
			Destination: &dispatchSeed,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
