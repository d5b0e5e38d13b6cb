package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/prefixscan/internal/logger"
)

func saxpyCmd() *cli.Command {
	var (
		alpha float64
		xs    string
		ys    string
		n     int64
	)

	flags := append([]cli.Flag{}, engineFlags()...)
	flags = append(flags,
		&cli.Float64Flag{
			Name:        "alpha",
			Aliases:     []string{"a"},
			Usage:       "scale factor",
			Value:       2,
			Destination: &alpha,
		},
		&cli.StringFlag{
			Name:        "x",
			Usage:       "comma separated x values",
			Destination: &xs,
		},
		&cli.StringFlag{
			Name:        "y",
			Usage:       "comma separated y values",
			Destination: &ys,
		},
		&cli.Int64Flag{
			Name:        "n",
			Usage:       "without --x/--y, use x = 0..n-1 and y = 1",
			Value:       8,
			Destination: &n,
		},
	)

	return &cli.Command{
		Name:  "saxpy",
		Usage: "Compute y = alpha*x + y on the device",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, LoadConfig())

			x, y, err := saxpyInputs(xs, ys, int(n))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			engine, closeEngine, err := openEngine(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer closeEngine()

			log.Info("scale accumulate", "n", len(x), "alpha", alpha, "backend", engine.Queue().Name())
			out, err := engine.ScaleAccumulateSlices(ctx, float32(alpha), x, y)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: saxpy: %v", err), 1)
			}
			fmt.Println(out)
			return nil
		},
	}
}

func saxpyInputs(xs, ys string, n int) ([]float32, []float32, error) {
	if xs == "" && ys == "" {
		x := make([]float32, n)
		y := make([]float32, n)
		for i := range x {
			x[i] = float32(i)
			y[i] = 1
		}
		return x, y, nil
	}
	x, err := parseFloat32List(xs)
	if err != nil {
		return nil, nil, fmt.Errorf("x: %w", err)
	}
	y, err := parseFloat32List(ys)
	if err != nil {
		return nil, nil, fmt.Errorf("y: %w", err)
	}
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("x has %d values, y has %d", len(x), len(y))
	}
	return x, y, nil
}
