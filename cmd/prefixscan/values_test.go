package main

import (
	"math"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/dataset"
)

func TestParseLists(t *testing.T) {
	t.Parallel()
	ints, err := parseInt32List("1, 2,3\t-4")
	if err != nil {
		t.Fatalf("parseInt32List: %v", err)
	}
	if !slices.Equal(ints, []int32{1, 2, 3, -4}) {
		t.Fatalf("parseInt32List: got %v", ints)
	}
	if _, err := parseInt32List("1,x"); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := parseInt32List("3000000000"); err == nil {
		t.Fatalf("expected error for out-of-range value")
	}
	floats, err := parseFloat32List("0.5,2")
	if err != nil || !slices.Equal(floats, []float32{0.5, 2}) {
		t.Fatalf("parseFloat32List: got %v %v", floats, err)
	}
}

func TestInputSource(t *testing.T) {
	t.Parallel()
	got, err := inputSource{iota: 3}.load()
	if err != nil || !slices.Equal(got, []int32{1, 2, 3}) {
		t.Fatalf("iota: got %v %v", got, err)
	}
	path := filepath.Join(t.TempDir(), "in.bin")
	if err := dataset.WriteInt32File(path, []int32{7, 8}); err != nil {
		t.Fatalf("WriteInt32File: %v", err)
	}
	got, err = inputSource{file: path}.load()
	if err != nil || !slices.Equal(got, []int32{7, 8}) {
		t.Fatalf("file: got %v %v", got, err)
	}
	if _, err := (inputSource{iota: 3, values: "1"}).load(); err == nil {
		t.Fatalf("expected error for two sources")
	}
	if _, err := (inputSource{}).load(); err == nil {
		t.Fatalf("expected error for no source")
	}
}

func TestVerifyScan(t *testing.T) {
	t.Parallel()
	in := []int32{1, 2, 3}
	if err := verifyScan(compute.Inclusive, in, []int32{1, 3, 6}); err != nil {
		t.Fatalf("verifyScan: %v", err)
	}
	err := verifyScan(compute.Exclusive, in, []int32{0, 1, 4})
	if err == nil || !strings.Contains(err.Error(), "mismatch at 2") {
		t.Fatalf("verifyScan mismatch: got %v", err)
	}
}

func TestFormatInt32s(t *testing.T) {
	t.Parallel()
	if got := formatInt32s([]int32{1, 2}, 4); got != "[1 2]" {
		t.Fatalf("short: got %q", got)
	}
	if got := formatInt32s(dataset.Iota(10), 4); got != "[1 2] ... [9 10] (10 values)" {
		t.Fatalf("long: got %q", got)
	}
}

func TestBenchHelpers(t *testing.T) {
	t.Parallel()
	if got := benchSizes(1000, 8000); !slices.Equal(got, []int{1000, 2000, 4000, 8000}) {
		t.Fatalf("benchSizes: got %v", got)
	}
	row := summarize(1000, "stream", []time.Duration{3 * time.Millisecond, time.Millisecond, 2 * time.Millisecond})
	if row.Mean != 2*time.Millisecond || row.Best != time.Millisecond {
		t.Fatalf("summarize: got %+v", row)
	}
	if math.Abs(row.MElemsPerS-0.5) > 1e-9 {
		t.Fatalf("throughput: got %v want 0.5", row.MElemsPerS)
	}
}

func TestSaxpyInputs(t *testing.T) {
	t.Parallel()
	x, y, err := saxpyInputs("", "", 3)
	if err != nil || !slices.Equal(x, []float32{0, 1, 2}) || !slices.Equal(y, []float32{1, 1, 1}) {
		t.Fatalf("generated inputs: %v %v %v", x, y, err)
	}
	if _, _, err := saxpyInputs("1,2", "1", 0); err == nil {
		t.Fatalf("expected length mismatch error")
	}
}
