package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestIota(t *testing.T) {
	t.Parallel()
	if got := Iota(4); !slices.Equal(got, []int32{1, 2, 3, 4}) {
		t.Fatalf("Iota(4) = %v", got)
	}
	if got := Iota(0); len(got) != 0 {
		t.Fatalf("Iota(0) = %v", got)
	}
}

func TestRandomIsDeterministic(t *testing.T) {
	t.Parallel()
	a, b := Random(1000, 7), Random(1000, 7)
	if !Equal(a, b) {
		t.Fatalf("same seed produced different data")
	}
	if Equal(a, Random(1000, 8)) {
		t.Fatalf("different seeds produced identical data")
	}
	for i, v := range a {
		if v < -100 || v > 100 {
			t.Fatalf("value %d at %d out of range", v, i)
		}
	}
}

func TestSequentialScans(t *testing.T) {
	t.Parallel()
	in := []int32{1, 2, 3, 4, 5}
	if got := SequentialExclusive(in); !slices.Equal(got, []int32{0, 1, 3, 6, 10}) {
		t.Fatalf("exclusive: %v", got)
	}
	if got := SequentialInclusive(in); !slices.Equal(got, []int32{1, 3, 6, 10, 15}) {
		t.Fatalf("inclusive: %v", got)
	}
}

func TestFirstMismatch(t *testing.T) {
	t.Parallel()
	cases := []struct {
		a, b []int32
		want int
	}{
		{[]int32{1, 2, 3}, []int32{1, 2, 3}, -1},
		{[]int32{1, 2, 3}, []int32{1, 9, 3}, 1},
		{[]int32{1, 2}, []int32{1, 2, 3}, 2},
		{nil, nil, -1},
	}
	for _, tc := range cases {
		if got := FirstMismatch(tc.a, tc.b); got != tc.want {
			t.Fatalf("FirstMismatch(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestInt32FileRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "values.bin")
	want := []int32{0, -1, 2147483647, -2147483648, 42}
	if err := WriteInt32File(path, want); err != nil {
		t.Fatalf("WriteInt32File: %v", err)
	}
	got, err := ReadInt32File(path)
	if err != nil {
		t.Fatalf("ReadInt32File: %v", err)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("round trip: got %v want %v", got, want)
	}
}

func TestReadInt32FileRejectsTruncatedData(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadInt32File(path); !errors.Is(err, ErrCorruptFile) {
		t.Fatalf("got %v want ErrCorruptFile", err)
	}
}

func TestReadInt32FileEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := WriteInt32File(path, nil); err != nil {
		t.Fatalf("WriteInt32File: %v", err)
	}
	got, err := ReadInt32File(path)
	if err != nil || len(got) != 0 {
		t.Fatalf("empty file: %v %v", got, err)
	}
}
