package compute

import (
	"errors"
	"testing"
)

type fakeBuffer struct {
	n    int
	kind Kind
}

func (b *fakeBuffer) Len() int    { return b.n }
func (b *fakeBuffer) Kind() Kind  { return b.kind }
func (b *fakeBuffer) Free() error { return nil }

func TestViewOverlaps(t *testing.T) {
	t.Parallel()
	a := &fakeBuffer{n: 100, kind: Int32}
	b := &fakeBuffer{n: 100, kind: Int32}

	tests := []struct {
		name string
		x, y View
		want bool
	}{
		{"same buffer disjoint", Slice(a, 0, 10), Slice(a, 10, 10), false},
		{"same buffer overlapping", Slice(a, 0, 11), Slice(a, 10, 10), true},
		{"identical", Whole(a), Whole(a), true},
		{"different buffers", Whole(a), Whole(b), false},
		{"empty length", Slice(a, 5, 0), Slice(a, 0, 10), false},
		{"nil buffer", View{}, Whole(a), false},
	}
	for _, tc := range tests {
		if got := tc.x.Overlaps(tc.y); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		if got := tc.y.Overlaps(tc.x); got != tc.want {
			t.Errorf("%s (swapped): Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCheckView(t *testing.T) {
	t.Parallel()
	ints := &fakeBuffer{n: 8, kind: Int32}
	floats := &fakeBuffer{n: 8, kind: Float32}

	if err := CheckView("in", Whole(ints), Int32, 8); err != nil {
		t.Fatalf("valid view rejected: %v", err)
	}
	cases := []struct {
		name string
		v    View
		k    Kind
		n    int
	}{
		{"missing", View{}, Int32, 8},
		{"wrong kind", Whole(floats), Int32, 8},
		{"wrong length", Whole(ints), Int32, 7},
		{"out of range", Slice(ints, 4, 8), Int32, 8},
	}
	for _, tc := range cases {
		err := CheckView("in", tc.v, tc.k, tc.n)
		if !errors.Is(err, ErrSizeMismatch) {
			t.Errorf("%s: got %v, want ErrSizeMismatch", tc.name, err)
		}
	}
}

func TestLaunchConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultLaunchConfig
	if cfg.BlockCapacity() != 512 {
		t.Fatalf("BlockCapacity: got %d", cfg.BlockCapacity())
	}
	if cfg.LocalSize() != 1024 {
		t.Fatalf("LocalSize: got %d", cfg.LocalSize())
	}
	if got := cfg.Groups(100_000); got != 196 {
		t.Fatalf("Groups(100000): got %d want 196", got)
	}
	if got := cfg.Groups(0); got != 0 {
		t.Fatalf("Groups(0): got %d", got)
	}
	if err := (LaunchConfig{GroupSize: 1, ElementsPerWorker: 1}).Validate(); err == nil {
		t.Fatal("capacity 1 must be rejected")
	}
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Mode{"exclusive": Exclusive, "inc": Inclusive, "": Exclusive, "Inclusive": Inclusive} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseMode("segmented"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
