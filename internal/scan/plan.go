package scan

import "github.com/samcharles93/prefixscan/internal/compute"

// Level is one step of a multi-level scan.
type Level struct {
	// Size is the number of elements scanned at this level.
	Size   int
	Groups int
	// SumsOffset is where this level's block sums start in the scratch
	// arena, or -1 for the final single-group level.
	SumsOffset int
}

// Plan lays out every level of a recursive scan of N elements and the
// scratch arena holding the block sums of all levels.
type Plan struct {
	N          int
	Levels     []Level
	ScratchLen int
}

// NewPlan divides n by the block capacity until one group remains. The
// scratch arena holds ceil(size/capacity) slots for every level that spans
// more than one group. Level l > 0 scans, in place, the sums written by
// level l-1.
func NewPlan(n int, cfg compute.LaunchConfig) Plan {
	p := Plan{N: n}
	for size := n; size > 0; {
		groups := cfg.Groups(size)
		lvl := Level{Size: size, Groups: groups, SumsOffset: -1}
		if groups > 1 {
			lvl.SumsOffset = p.ScratchLen
			p.ScratchLen += groups
		}
		p.Levels = append(p.Levels, lvl)
		if groups == 1 {
			break
		}
		size = groups
	}
	return p
}

// Depth is the number of block scan launches the plan issues.
func (p Plan) Depth() int {
	return len(p.Levels)
}

// data returns the elements level l scans: the caller's output at level 0,
// the previous level's block sums otherwise.
func (p Plan) data(l int, out compute.View, scratch compute.Buffer) compute.View {
	if l == 0 {
		return out
	}
	return compute.Slice(scratch, p.Levels[l-1].SumsOffset, p.Levels[l].Size)
}

// sums returns where level l writes its block sums, or an empty view.
func (p Plan) sums(l int, scratch compute.Buffer) compute.View {
	lvl := p.Levels[l]
	if lvl.SumsOffset < 0 {
		return compute.View{}
	}
	return compute.Slice(scratch, lvl.SumsOffset, lvl.Groups)
}
