package covermatch

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/covermatch/covermatch/segment"
)

// stageFilter carries the resolved categorical constraints for staging.
// A disabled filter means the corresponding text could not be resolved (or
// the caller opted out); its stages are skipped entirely.
type stageFilter struct {
	jobCode    int
	riskCode   int
	jobFilter  bool
	riskFilter bool
}

// stageCandidates accumulates candidate indices over progressively broader
// stages, preferring categorical precision over breadth:
//
//	exact job+risk > job+adjacent-risk > exact risk > adjacent risk > band base
//
// The union grows monotonically and staging stops as soon as it holds at
// least k indices. The band base itself is the unconditional final stage, so
// the result is non-empty whenever base is.
func stageCandidates(seg *segment.Segment, base *roaring.Bitmap, f stageFilter, k int) *roaring.Bitmap {
	acc := roaring.New()

	add := func(stage *roaring.Bitmap) bool {
		acc.Or(stage)
		return int(acc.GetCardinality()) >= k
	}

	if f.jobFilter {
		sameJob := filterCodes(base, seg.Jobs, func(c int) bool { return c == f.jobCode })
		if !sameJob.IsEmpty() {
			sameJobSameRisk := filterCodes(sameJob, seg.Risks, func(c int) bool { return c == f.riskCode })
			if !sameJobSameRisk.IsEmpty() && add(sameJobSameRisk) {
				return acc
			}
			adjacent := filterCodes(sameJob, seg.Risks, func(c int) bool { return absInt(c-f.riskCode) == 1 })
			if !adjacent.IsEmpty() && add(adjacent) {
				return acc
			}
		}
	}

	if f.riskFilter {
		sameRisk := filterCodes(base, seg.Risks, func(c int) bool { return c == f.riskCode })
		if !sameRisk.IsEmpty() && add(sameRisk) {
			return acc
		}
		adjacent := filterCodes(base, seg.Risks, func(c int) bool { return absInt(c-f.riskCode) == 1 })
		if !adjacent.IsEmpty() && add(adjacent) {
			return acc
		}
	}

	add(base)
	return acc
}

// filterCodes returns the members of mask whose code passes keep.
func filterCodes(mask *roaring.Bitmap, codes []int, keep func(int) bool) *roaring.Bitmap {
	out := roaring.New()
	it := mask.Iterator()
	for it.HasNext() {
		i := it.Next()
		if keep(codes[i]) {
			out.Add(i)
		}
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
