//go:build webgpu

package webgpu

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/scan"
)

func openDevice(t *testing.T) *Device {
	t.Helper()
	d, err := New(nil)
	if err != nil {
		t.Skipf("no WebGPU adapter: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestBinderSharesBuffers(t *testing.T) {
	t.Parallel()
	a, b := &buffer{n: 4}, &buffer{n: 4}
	bd := &binder{}
	if got := bd.bind(a, "i32"); got != 1 {
		t.Fatalf("first binding: got %d want 1", got)
	}
	if got := bd.bind(b, "i32"); got != 2 {
		t.Fatalf("second binding: got %d want 2", got)
	}
	if got := bd.bind(a, "i32"); got != 1 {
		t.Fatalf("repeated buffer: got %d want 1", got)
	}
	if got := bd.signature(); got != "i32,i32" {
		t.Fatalf("signature: got %q", got)
	}
}

func TestShaderSource(t *testing.T) {
	t.Parallel()
	bd := &binder{}
	bd.bind(&buffer{n: 8}, "i32")
	src := blockScanWGSL(compute.LaunchConfig{GroupSize: 4, ElementsPerWorker: 2}, bd, 1, 1, 0)
	for _, want := range []string{"@workgroup_size(4)", "const CAP: u32 = 8u;", "array<i32, 16>", "b1[p.off.x + u32(g)]"} {
		if !strings.Contains(src, want) {
			t.Fatalf("block scan source missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, "p.off.z") {
		t.Fatalf("block scan without sums writes sums:\n%s", src)
	}
}

func TestScanOnGPU(t *testing.T) {
	d := openDevice(t)
	data := make([]int32, 5000)
	for i := range data {
		data[i] = int32(i%11) - 3
	}
	for _, strategy := range []scan.Strategy{scan.Recursive, scan.Stream} {
		e, err := scan.New(d, scan.Config{Launch: compute.DefaultLaunchConfig, Strategy: strategy}, nil)
		if err != nil {
			t.Fatalf("scan.New: %v", err)
		}
		got, err := e.Slices(context.Background(), strategy, compute.Inclusive, data)
		if err != nil {
			t.Fatalf("%s: %v", strategy, err)
		}
		var acc int32
		want := make([]int32, len(data))
		for i, v := range data {
			acc += v
			want[i] = acc
		}
		if !slices.Equal(got, want) {
			t.Fatalf("%s: GPU scan differs from sequential scan", strategy)
		}
		_ = e.Close()
	}
}
