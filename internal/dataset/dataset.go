// Package dataset generates scan inputs, computes reference scans on the
// host and moves int32 arrays to and from files.
package dataset

import (
	"math/rand/v2"
)

// Iota returns 1, 2, ..., n.
func Iota(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i + 1)
	}
	return out
}

// Random returns n values in [-100, 100] drawn from a generator seeded
// with seed.
func Random(n int, seed uint64) []int32 {
	rng := rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
	out := make([]int32, n)
	for i := range out {
		out[i] = rng.Int32N(201) - 100
	}
	return out
}

func SequentialExclusive(in []int32) []int32 {
	out := make([]int32, len(in))
	var acc int32
	for i, v := range in {
		out[i] = acc
		acc += v
	}
	return out
}

func SequentialInclusive(in []int32) []int32 {
	out := make([]int32, len(in))
	var acc int32
	for i, v := range in {
		acc += v
		out[i] = acc
	}
	return out
}

// FirstMismatch returns the first index where a and b differ, or -1 when
// they are equal. Slices of different length differ at the shorter length.
func FirstMismatch(a, b []int32) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

func Equal(a, b []int32) bool {
	return FirstMismatch(a, b) < 0
}
