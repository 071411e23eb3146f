package covermatch

import (
	"sort"
	"strconv"

	"github.com/covermatch/covermatch/segment"
)

// assemble orders the scored candidates, deduplicates by product identity,
// truncates to k, and restores categorical codes to text.
//
// Premium mode sorts by premium gap with score as tie-break; coverage mode
// analogously on coverage gap; balanced mode sorts by score alone. The
// stable sort over index-ordered candidates makes the full ordering a total
// order, so identical queries against the same generation always return the
// same list.
func assemble(gen *Generation, seg *segment.Segment, cands []candidate, q Query) []RankedMatch {
	switch q.Mode {
	case ModePremium:
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].premiumGap != cands[b].premiumGap {
				return cands[a].premiumGap < cands[b].premiumGap
			}
			return cands[a].score < cands[b].score
		})
	case ModeCoverage:
		sort.SliceStable(cands, func(a, b int) bool {
			if cands[a].coverageGap != cands[b].coverageGap {
				return cands[a].coverageGap < cands[b].coverageGap
			}
			return cands[a].score < cands[b].score
		})
	default:
		sort.SliceStable(cands, func(a, b int) bool {
			return cands[a].score < cands[b].score
		})
	}

	matches := make([]RankedMatch, 0, q.K)
	seen := make(map[int]struct{}, q.K)
	for _, c := range cands {
		if q.UniqueProducts {
			productCode := seg.Products[c.idx]
			if _, dup := seen[productCode]; dup {
				continue
			}
			seen[productCode] = struct{}{}
		}

		matches = append(matches, restore(gen, seg, c))
		if len(matches) == q.K {
			break
		}
	}
	return matches
}

// restore maps a scored candidate back to human-readable text. A code the
// codec cannot decode keeps its raw numeric form; display degrades, the
// pipeline does not fail.
func restore(gen *Generation, seg *segment.Segment, c candidate) RankedMatch {
	cat := gen.Catalog
	return RankedMatch{
		Product:  cat.Products.DecodeOr(seg.Products[c.idx], strconv.Itoa(seg.Products[c.idx])),
		Premium:  seg.Premiums[c.idx],
		Coverage: seg.Coverages[c.idx],
		Age:      seg.Ages[c.idx],
		Job:      cat.Jobs.DecodeOr(seg.Jobs[c.idx], strconv.Itoa(seg.Jobs[c.idx])),
		Risk:     cat.Risks.DecodeOr(seg.Risks[c.idx], strconv.Itoa(seg.Risks[c.idx])),
		Score:    c.score,
	}
}
