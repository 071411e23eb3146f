package covermatch

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/covermatch/covermatch/segment"
)

// ScoringConfig holds the numeric-axis weight vectors per ranking mode and
// the default categorical penalty weights. Axis order is
// (premium, coverage, age) over the standardized feature space.
//
// The defaults encode "the requested axis dominates, but age always
// contributes a small secondary signal"; they are tuned values, not derived
// ones, and can be overridden via WithScoring.
type ScoringConfig struct {
	BalancedWeights [3]float64
	PremiumWeights  [3]float64
	CoverageWeights [3]float64

	RiskWeight float64
	JobWeight  float64
}

// DefaultScoring holds the production scoring constants.
var DefaultScoring = ScoringConfig{
	BalancedWeights: [3]float64{0.8, 0.8, 0.4},
	PremiumWeights:  [3]float64{1.0, 0, 0.2},
	CoverageWeights: [3]float64{0, 1.0, 0.3},
	RiskWeight:      5.0,
	JobWeight:       2.0,
}

func (c ScoringConfig) axisWeights(m Mode) [3]float64 {
	switch m {
	case ModePremium:
		return c.PremiumWeights
	case ModeCoverage:
		return c.CoverageWeights
	default:
		return c.BalancedWeights
	}
}

// candidate is one scored row, identified by its index within the segment.
type candidate struct {
	idx         int
	score       float64
	premiumGap  float64
	coverageGap float64
}

// scoreCandidates computes the total score for every index in the set:
// the weighted Euclidean distance over the standardized numeric axes, plus
// the ordinal risk-difference penalty and the job-mismatch penalty.
// Candidates come out in ascending index order.
func scoreCandidates(seg *segment.Segment, set *roaring.Bitmap, qScaled []float64, w [3]float64, f stageFilter, q Query) []candidate {
	out := make([]candidate, 0, set.GetCardinality())

	it := set.Iterator()
	for it.HasNext() {
		i := int(it.Next())

		dist := 0.0
		for j := 0; j < 3; j++ {
			d := (seg.Scaled[i][j] - qScaled[j]) * w[j]
			dist += d * d
		}
		dist = math.Sqrt(dist)

		riskDiff := float64(absInt(seg.Risks[i] - f.riskCode))
		jobMismatch := 0.0
		if seg.Jobs[i] != f.jobCode {
			jobMismatch = 1
		}

		out = append(out, candidate{
			idx:         i,
			score:       dist + q.RiskWeight*riskDiff + q.JobWeight*jobMismatch,
			premiumGap:  math.Abs(seg.Premiums[i] - q.Premium),
			coverageGap: math.Abs(seg.Coverages[i] - q.Coverage),
		})
	}
	return out
}
