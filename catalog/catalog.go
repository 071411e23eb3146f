// Package catalog loads and prepares the tabular product catalog consumed by
// the matching engine: parsing, row cleaning, pivot normalization, and the
// fitted categorical codecs. A loaded Catalog is immutable; a reload builds a
// whole new Catalog rather than patching one in place.
package catalog

import (
	"math"
	"strings"

	"github.com/covermatch/covermatch/label"
)

// Canonical pivot labels. The catalog partitions on these.
const (
	PivotMale   = "male"
	PivotFemale = "female"
)

// Pivots lists the canonical pivot labels in a fixed order.
var Pivots = []string{PivotMale, PivotFemale}

var maleAliases = map[string]struct{}{
	"남": {}, "남자": {}, "m": {}, "male": {}, "man": {}, "boy": {},
}

var femaleAliases = map[string]struct{}{
	"여": {}, "여자": {}, "f": {}, "female": {}, "woman": {}, "girl": {},
}

// NormalizePivot maps a free-text pivot value to its canonical label.
// Matching is case- and whitespace-insensitive.
func NormalizePivot(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if _, ok := maleAliases[key]; ok {
		return PivotMale, true
	}
	if _, ok := femaleAliases[key]; ok {
		return PivotFemale, true
	}
	return "", false
}

// Item is one cleaned catalog row. Numeric fields that were absent in the
// source carry NaN; rows whose required numerics are absent never survive
// loading.
type Item struct {
	Product       string
	Pivot         string // canonical pivot label
	Age           float64
	Coverage      float64
	MalePremium   float64
	FemalePremium float64
	Job           string
	Risk          string
}

// Premium returns the premium for the given canonical pivot label.
func (it Item) Premium(pivot string) float64 {
	if pivot == PivotFemale {
		return it.FemalePremium
	}
	return it.MalePremium
}

// HasPremium reports whether the item carries a premium for the pivot.
func (it Item) HasPremium(pivot string) bool {
	return !math.IsNaN(it.Premium(pivot))
}

// Catalog is one load generation of the product catalog: the cleaned rows
// plus the codecs fitted from them. All fields are read-only after Load.
type Catalog struct {
	Items []Item

	Products *label.Codec
	Jobs     *label.Codec
	Risks    *label.Codec

	// JobRisk maps a job label to its most frequent risk label.
	JobRisk *label.ModeLookup

	// Dropped counts source rows removed during cleaning.
	Dropped int
}

func fitCodecs(items []Item) (products, jobs, risks *label.Codec, jobRisk *label.ModeLookup) {
	ps := make([]string, len(items))
	js := make([]string, len(items))
	rs := make([]string, len(items))
	for i, it := range items {
		ps[i] = it.Product
		js[i] = it.Job
		rs[i] = it.Risk
	}
	return label.Fit(ps), label.Fit(js), label.Fit(rs), label.BuildModeLookup(js, rs)
}
