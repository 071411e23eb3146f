package covermatch

import (
	"math"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/covermatch/covermatch/segment"
)

// Bands configures the tolerance windows around the query's numeric targets.
// A candidate is in band when its attribute differs from the target by at
// most max(floor, proportion × target); the absolute floor keeps bands from
// collapsing to zero width for low-value targets.
//
// The default constants are the empirically tuned values carried over from
// the production data; override via WithBands when a catalog calls for
// different tolerances.
type Bands struct {
	PremiumProportion  float64
	CoverageProportion float64
	AgeProportion      float64

	PremiumFloor  float64
	CoverageFloor float64
	AgeFloor      float64
}

// DefaultBands holds the production tolerance constants.
var DefaultBands = Bands{
	PremiumProportion:  0.30,
	CoverageProportion: 0.30,
	AgeProportion:      0.15,
	PremiumFloor:       5_000,
	CoverageFloor:      10_000_000,
	AgeFloor:           1.0,
}

func (b Bands) premiumWidth(target float64) float64 {
	return math.Max(b.PremiumFloor, b.PremiumProportion*target)
}

func (b Bands) coverageWidth(target float64) float64 {
	return math.Max(b.CoverageFloor, b.CoverageProportion*target)
}

func (b Bands) ageWidth(target float64) float64 {
	return math.Max(b.AgeFloor, b.AgeProportion*target)
}

// bandBase computes the mode-dependent candidate base set for a segment.
//
// Balanced mode requires all three bands and widens progressively when the
// joint band holds fewer than max(3k, 30) rows: first to an age-only band,
// then to the whole segment. Single-axis modes apply only their own band
// and, when it holds fewer than k rows, fall back to the max(10k, 100) rows
// nearest by absolute gap on that axis.
func bandBase(seg *segment.Segment, q Query, b Bands, k int) *roaring.Bitmap {
	switch q.Mode {
	case ModePremium:
		base := maskWithin(seg.Premiums, q.Premium, b.premiumWidth(q.Premium))
		if int(base.GetCardinality()) < k {
			return nearestByGap(seg.Premiums, q.Premium, maxInt(10*k, 100))
		}
		return base

	case ModeCoverage:
		base := maskWithin(seg.Coverages, q.Coverage, b.coverageWidth(q.Coverage))
		if int(base.GetCardinality()) < k {
			return nearestByGap(seg.Coverages, q.Coverage, maxInt(10*k, 100))
		}
		return base

	default:
		need := maxInt(3*k, 30)

		joint := maskWithin(seg.Premiums, q.Premium, b.premiumWidth(q.Premium))
		joint.And(maskWithin(seg.Coverages, q.Coverage, b.coverageWidth(q.Coverage)))
		joint.And(maskWithin(seg.Ages, q.Age, b.ageWidth(q.Age)))
		if int(joint.GetCardinality()) >= need {
			return joint
		}

		ageOnly := maskWithin(seg.Ages, q.Age, b.ageWidth(q.Age))
		if int(ageOnly.GetCardinality()) >= need {
			return ageOnly
		}

		all := roaring.New()
		all.AddRange(0, uint64(seg.Len()))
		return all
	}
}

// maskWithin returns the indices whose value is within width of target.
func maskWithin(values []float64, target, width float64) *roaring.Bitmap {
	mask := roaring.New()
	for i, v := range values {
		if math.Abs(v-target) <= width {
			mask.Add(uint32(i))
		}
	}
	return mask
}

// nearestByGap returns the n indices with the smallest absolute gap to
// target, ties resolved by row order.
func nearestByGap(values []float64, target float64, n int) *roaring.Bitmap {
	idxs := make([]int, len(values))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		return math.Abs(values[idxs[a]]-target) < math.Abs(values[idxs[b]]-target)
	})
	if n > len(idxs) {
		n = len(idxs)
	}

	mask := roaring.New()
	for _, i := range idxs[:n] {
		mask.Add(uint32(i))
	}
	return mask
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
