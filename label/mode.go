package label

import "sort"

// ModeLookup resolves a primary category's most frequent co-occurring
// secondary value, e.g. the risk tier most often recorded for a given job.
// Built once at load time from raw (pre-encoding) text pairs; immutable
// afterwards.
type ModeLookup struct {
	modes map[string]string
}

// BuildModeLookup computes, for each primary value, the mode of the secondary
// values that co-occur with it. Frequency ties resolve to the
// lexicographically smallest secondary value so the result is deterministic
// per load.
func BuildModeLookup(primary, secondary []string) *ModeLookup {
	counts := make(map[string]map[string]int)
	n := len(primary)
	if len(secondary) < n {
		n = len(secondary)
	}
	for i := 0; i < n; i++ {
		m, ok := counts[primary[i]]
		if !ok {
			m = make(map[string]int)
			counts[primary[i]] = m
		}
		m[secondary[i]]++
	}

	modes := make(map[string]string, len(counts))
	for p, m := range counts {
		modes[p] = modeOf(m)
	}
	return &ModeLookup{modes: modes}
}

// Lookup returns the modal secondary value for the given primary value.
func (l *ModeLookup) Lookup(primary string) (string, bool) {
	s, ok := l.modes[primary]
	return s, ok
}

// ModeCode returns the most frequent code in codes, breaking frequency ties
// toward the smallest code. It reports false for an empty slice.
func ModeCode(codes []int) (int, bool) {
	if len(codes) == 0 {
		return 0, false
	}
	counts := make(map[int]int, len(codes))
	for _, c := range codes {
		counts[c]++
	}
	best, bestN := 0, -1
	for c, n := range counts {
		if n > bestN || (n == bestN && c < best) {
			best, bestN = c, n
		}
	}
	return best, true
}

func modeOf(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestN := "", -1
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}
