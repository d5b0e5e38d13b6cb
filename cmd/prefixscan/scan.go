package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/dataset"
	"github.com/samcharles93/prefixscan/internal/logger"
	"github.com/samcharles93/prefixscan/internal/scan"
)

func scanCmd() *cli.Command {
	var (
		src        inputSource
		modeName   string
		outputPath string
		verify     bool
		printLimit int64
	)

	flags := append([]cli.Flag{}, engineFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "mode",
			Usage:       "scan mode (exclusive, inclusive)",
			Value:       "exclusive",
			Destination: &modeName,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "file of little-endian int32 values",
			Destination: &src.file,
		},
		&cli.StringFlag{
			Name:        "values",
			Usage:       "comma separated values",
			Destination: &src.values,
		},
		&cli.Int64Flag{
			Name:        "iota",
			Usage:       "scan 1..N",
			Destination: &src.iota,
		},
		&cli.Int64Flag{
			Name:        "random",
			Usage:       "scan N random values in [-100, 100]",
			Destination: &src.random,
		},
		&cli.Uint64Flag{
			Name:        "seed",
			Usage:       "seed for --random",
			Value:       42,
			Destination: &src.seed,
		},
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "write the result as little-endian int32 values",
			Destination: &outputPath,
		},
		&cli.BoolFlag{
			Name:        "verify",
			Usage:       "compare against a sequential host scan",
			Destination: &verify,
		},
		&cli.Int64Flag{
			Name:        "print",
			Usage:       "print at most N result values (0 = none)",
			Value:       16,
			Destination: &printLimit,
		},
	)

	return &cli.Command{
		Name:  "scan",
		Usage: "Scan a sequence of int32 values",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, LoadConfig())

			mode, err := compute.ParseMode(modeName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			values, err := src.load()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load input: %v", err), 1)
			}
			engine, closeEngine, err := openEngine(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer closeEngine()

			strategy := engine.Config().Strategy
			log.Info("scanning", "n", len(values), "mode", mode, "strategy", strategy, "backend", engine.Queue().Name())
			start := time.Now()
			result, err := engine.Slices(ctx, strategy, mode, values)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: scan: %v", err), 1)
			}
			elapsed := time.Since(start)
			log.Info("scan complete", "duration", elapsed.Round(time.Microsecond))

			if verify {
				if err := verifyScan(mode, values, result); err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				log.Info("result matches sequential scan")
			}
			if outputPath != "" {
				if err := dataset.WriteInt32File(outputPath, result); err != nil {
					return cli.Exit(fmt.Sprintf("error: write output: %v", err), 1)
				}
			}
			if printLimit > 0 {
				fmt.Println(formatInt32s(result, int(printLimit)))
			}
			return nil
		},
	}
}

func verifyScan(mode compute.Mode, in, got []int32) error {
	want := dataset.SequentialExclusive(in)
	if mode == compute.Inclusive {
		want = dataset.SequentialInclusive(in)
	}
	if i := dataset.FirstMismatch(got, want); i >= 0 {
		if i >= len(got) || i >= len(want) {
			return fmt.Errorf("result has %d values, want %d", len(got), len(want))
		}
		return fmt.Errorf("mismatch at %d: got %d want %d", i, got[i], want[i])
	}
	return nil
}

// scanWith runs one blocking scan; used by bench.
func scanWith(ctx context.Context, engine *scan.Engine, strategy scan.Strategy, values []int32) ([]int32, error) {
	return engine.Slices(ctx, strategy, compute.Exclusive, values)
}
