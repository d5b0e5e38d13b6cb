package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samcharles93/prefixscan/internal/dataset"
)

// inputSource selects where the scan command takes its values from.
type inputSource struct {
	file   string
	values string
	iota   int64
	random int64
	seed   uint64
}

func (s inputSource) load() ([]int32, error) {
	set := 0
	for _, ok := range []bool{s.file != "", s.values != "", s.iota > 0, s.random > 0} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return nil, fmt.Errorf("use only one of --input, --values, --iota and --random")
	}
	switch {
	case s.file != "":
		return dataset.ReadInt32File(s.file)
	case s.values != "":
		return parseInt32List(s.values)
	case s.random > 0:
		return dataset.Random(int(s.random), s.seed), nil
	case s.iota > 0:
		return dataset.Iota(int(s.iota)), nil
	default:
		return nil, fmt.Errorf("no input: pass --input, --values, --iota or --random")
	}
}

func parseInt32List(s string) ([]int32, error) {
	fields := splitList(s)
	out := make([]int32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		out = append(out, int32(v))
	}
	return out, nil
}

func parseFloat32List(s string) ([]float32, error) {
	fields := splitList(s)
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", f, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return fields
}

// formatInt32s prints at most limit values, eliding the middle.
func formatInt32s(values []int32, limit int) string {
	if limit <= 0 || len(values) <= limit {
		return fmt.Sprint(values)
	}
	head := values[:limit/2]
	tail := values[len(values)-limit/2:]
	return fmt.Sprintf("%v ... %v (%d values)", head, tail, len(values))
}
