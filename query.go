package covermatch

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects which numeric axis dominates the scoring weight vector.
type Mode int

const (
	// ModeBalanced weighs premium, coverage and age together.
	ModeBalanced Mode = iota
	// ModePremium ranks by premium proximity.
	ModePremium
	// ModeCoverage ranks by coverage proximity.
	ModeCoverage
)

func (m Mode) String() string {
	switch m {
	case ModeBalanced:
		return "balanced"
	case ModePremium:
		return "premium"
	case ModeCoverage:
		return "coverage"
	default:
		return fmt.Sprintf("Unknown(%d)", int(m))
	}
}

// modeSynonyms maps normalized (lowercased, space-stripped) free-text mode
// selectors to modes. The Korean phrases come from the upstream clients.
var modeSynonyms = map[string]Mode{
	"":         ModeBalanced,
	"balanced": ModeBalanced,
	"default":  ModeBalanced,
	"distance": ModeBalanced,
	"overall":  ModeBalanced,
	"종합":       ModeBalanced,

	"premium":     ModePremium,
	"premiumnear": ModePremium,
	"보험가까운순":      ModePremium,
	"보험료가까운순":     ModePremium,
	"보험근접":        ModePremium,
	"보험료근접":       ModePremium,

	"coverage":     ModeCoverage,
	"coveragenear": ModeCoverage,
	"보장금액가까운순":     ModeCoverage,
	"지급금액가까운순":     ModeCoverage,
	"보장근접":         ModeCoverage,
	"지급금액근접":       ModeCoverage,
	"보장금액정렬순":      ModeCoverage,
	"지급금액정렬순":      ModeCoverage,
}

// ParseMode normalizes a free-text ranking-mode selector.
// Returns *ErrUnknownMode when the text maps to none of the three modes.
func ParseMode(text string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	key = strings.ReplaceAll(key, " ", "")
	if m, ok := modeSynonyms[key]; ok {
		return m, nil
	}
	return ModeBalanced, &ErrUnknownMode{Text: text}
}

// Query describes one ranked-match request. Construct with NewQuery so the
// behavioral flags and penalty weights start from their defaults, then
// override fields as needed. A Query is transient and never retained by the
// engine.
type Query struct {
	// Pivot is the segment selector (free text, e.g. "male", "여자").
	Pivot string

	// Desired numeric targets.
	Premium  float64
	Coverage float64
	Age      float64

	// JobText is the free-text job category. Required; unresolvable text
	// degrades the job filter instead of failing the query.
	JobText string

	// RiskText optionally names the risk tier directly. When empty, risk is
	// inferred from the job.
	RiskText string

	// K is the number of results requested.
	K int

	// Mode selects the ranking mode.
	Mode Mode

	// Penalty weights for categorical mismatches.
	RiskWeight float64
	JobWeight  float64

	// Behavioral flags.
	RiskFilter     bool
	JobFilter      bool
	UniqueProducts bool
	Autoscale      bool
}

// NewQuery returns a Query with the default K, penalty weights and flags.
func NewQuery(pivot string, premium, coverage, age float64, jobText string) Query {
	return Query{
		Pivot:          pivot,
		Premium:        premium,
		Coverage:       coverage,
		Age:            age,
		JobText:        jobText,
		K:              5,
		RiskWeight:     DefaultScoring.RiskWeight,
		JobWeight:      DefaultScoring.JobWeight,
		RiskFilter:     true,
		JobFilter:      true,
		UniqueProducts: true,
	}
}

// validate rejects client errors before the catalog is touched.
func (q Query) validate() error {
	if q.K < 1 {
		return fmt.Errorf("%w: %w (got %d)", ErrInvalidQuery, ErrInvalidK, q.K)
	}
	for _, target := range []struct {
		field string
		value float64
	}{
		{"premium", q.Premium},
		{"coverage", q.Coverage},
		{"age", q.Age},
	} {
		if math.IsNaN(target.value) || math.IsInf(target.value, 0) || target.value < 0 {
			return &ErrInvalidTarget{Field: target.field, Value: target.value}
		}
	}
	if q.Mode != ModeBalanced && q.Mode != ModePremium && q.Mode != ModeCoverage {
		return &ErrUnknownMode{Text: q.Mode.String()}
	}
	return nil
}

// RankedMatch is one output row: restored categorical text, raw numeric
// attributes and the total score (lower is better).
type RankedMatch struct {
	Product  string  `json:"product"`
	Premium  float64 `json:"premium"`
	Coverage float64 `json:"coverage"`
	Age      float64 `json:"age"`
	Job      string  `json:"job"`
	Risk     string  `json:"risk"`
	Score    float64 `json:"score"`
}
