package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/prefixscan/internal/dataset"
	"github.com/samcharles93/prefixscan/internal/logger"
	"github.com/samcharles93/prefixscan/internal/scan"
)

// benchRow is the timing of one method at one size, averaged over runs.
type benchRow struct {
	Size       int           `json:"size"`
	Method     string        `json:"method"`
	Mean       time.Duration `json:"mean_ns"`
	Best       time.Duration `json:"best_ns"`
	MElemsPerS float64       `json:"melems_per_s"`
}

func benchSizes(minSize, maxSize int) []int {
	var sizes []int
	for n := max(minSize, 1); n <= maxSize; n *= 2 {
		sizes = append(sizes, n)
	}
	return sizes
}

func summarize(size int, method string, runs []time.Duration) benchRow {
	row := benchRow{Size: size, Method: method}
	if len(runs) == 0 {
		return row
	}
	var sum time.Duration
	row.Best = runs[0]
	for _, d := range runs {
		sum += d
		row.Best = min(row.Best, d)
	}
	row.Mean = sum / time.Duration(len(runs))
	if row.Mean > 0 {
		row.MElemsPerS = float64(size) / row.Mean.Seconds() / 1e6
	}
	return row
}

func benchCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		minSize    int64
		maxSize    int64
		jsonOut    string
	)

	flags := append([]cli.Flag{}, engineFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs",
			Value:       1,
			Destination: &warmupRuns,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of benchmark runs",
			Value:       3,
			Destination: &benchRuns,
		},
		&cli.Int64Flag{
			Name:        "min",
			Usage:       "smallest input size",
			Value:       1 << 10,
			Destination: &minSize,
		},
		&cli.Int64Flag{
			Name:        "max",
			Usage:       "largest input size (sizes double from --min)",
			Value:       1 << 20,
			Destination: &maxSize,
		},
		&cli.StringFlag{
			Name:        "json",
			Usage:       "also write results as JSON to this file",
			Destination: &jsonOut,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Compare sequential, recursive and stream scans",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyEngineConfig(cmd, LoadConfig())
			if minSize > maxSize {
				return cli.Exit("error: --min exceeds --max", 1)
			}

			engine, closeEngine, err := openEngine(ctx)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer closeEngine()

			cfg := engine.Config()
			fmt.Println("=== Prefix Scan Benchmark ===")
			fmt.Printf("Backend:  %s\n", engine.Queue().Name())
			fmt.Printf("Launch:   %s\n", cfg.Launch)
			fmt.Printf("CPUs:     %d\n", runtime.NumCPU())
			fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			fmt.Printf("Warmup:   %d runs\n", warmupRuns)
			fmt.Printf("Runs:     %d\n", benchRuns)
			fmt.Println()

			methods := []struct {
				name string
				run  func(values []int32) ([]int32, error)
			}{
				{"sequential", func(values []int32) ([]int32, error) { return dataset.SequentialExclusive(values), nil }},
				{"recursive", func(values []int32) ([]int32, error) { return scanWith(ctx, engine, scan.Recursive, values) }},
				{"stream", func(values []int32) ([]int32, error) { return scanWith(ctx, engine, scan.Stream, values) }},
			}

			var rows []benchRow
			for _, size := range benchSizes(int(minSize), int(maxSize)) {
				values := dataset.Random(size, uint64(size))
				want := dataset.SequentialExclusive(values)
				for _, m := range methods {
					for i := range int(warmupRuns) {
						log.Debug("warmup run", "method", m.name, "size", size, "run", i+1)
						if _, err := m.run(values); err != nil {
							return cli.Exit(fmt.Sprintf("error: warmup %s n=%d: %v", m.name, size, err), 1)
						}
					}
					runs := make([]time.Duration, 0, benchRuns)
					for range int(benchRuns) {
						start := time.Now()
						got, err := m.run(values)
						if err != nil {
							return cli.Exit(fmt.Sprintf("error: %s n=%d: %v", m.name, size, err), 1)
						}
						runs = append(runs, time.Since(start))
						if !dataset.Equal(got, want) {
							return cli.Exit(fmt.Sprintf("error: %s n=%d: result differs from sequential scan", m.name, size), 1)
						}
					}
					rows = append(rows, summarize(size, m.name, runs))
				}
			}

			fmt.Println("=== Results ===")
			fmt.Printf("%-10s %-12s %12s %12s %12s\n", "Size", "Method", "Mean", "Best", "Melem/s")
			for _, r := range rows {
				fmt.Printf("%-10d %-12s %12s %12s %12.2f\n",
					r.Size, r.Method, r.Mean.Round(time.Microsecond), r.Best.Round(time.Microsecond), r.MElemsPerS)
			}

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			fmt.Printf("\nMemory: %.1f MB alloc, %.1f MB sys\n",
				float64(mem.Alloc)/(1024*1024),
				float64(mem.Sys)/(1024*1024))

			if jsonOut != "" {
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: encode results: %v", err), 1)
				}
				if err := os.WriteFile(jsonOut, data, 0o644); err != nil {
					return cli.Exit(fmt.Sprintf("error: write results: %v", err), 1)
				}
			}
			return nil
		},
	}
}
