package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/covermatch/covermatch/blobstore"
	"github.com/klauspost/compress/gzip"
	"github.com/pierrec/lz4/v4"
)

// Canonical column names expected in the source CSV header. The upstream
// export renames its raw headers to these before handing the file over.
const (
	colProduct       = "product_name"
	colPivot         = "gender"
	colAge           = "age"
	colCoverage      = "coverage_amount"
	colJob           = "job"
	colRisk          = "job_risk"
	colMalePremium   = "male_premium"
	colFemalePremium = "female_premium"
)

var requiredColumns = []string{
	colProduct, colPivot, colAge, colCoverage,
	colJob, colRisk, colMalePremium, colFemalePremium,
}

// Load reads a CSV catalog from r, cleans it, and fits the codecs.
//
// Cleaning drops rows that are missing coverage or age, rows missing the
// premium for every pivot value, and rows whose pivot value cannot be
// recognized. Numeric fields tolerate thousands separators and surrounding
// whitespace.
func Load(r io.Reader) (*Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, &ErrMissingColumns{Columns: missing}
	}

	var (
		items   []Item
		dropped int
		sawRow  bool
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: read row: %w", err)
		}
		sawRow = true

		item, ok := parseRow(record, cols)
		if !ok {
			dropped++
			continue
		}
		items = append(items, item)
	}

	if sawRow && len(items) == 0 {
		return nil, ErrNoPivotLabels
	}

	counts := make(map[string]int, len(Pivots))
	for _, it := range items {
		counts[it.Pivot]++
	}
	for _, p := range Pivots {
		if counts[p] == 0 {
			return nil, &ErrEmptySegment{Pivot: p}
		}
	}

	cat := &Catalog{Items: items, Dropped: dropped}
	cat.Products, cat.Jobs, cat.Risks, cat.JobRisk = fitCodecs(items)
	return cat, nil
}

// Open fetches the named blob from store and loads it. Compression is
// selected by file extension: ".gz" and ".lz4" wrap the CSV stream, anything
// else is read as plain CSV.
func Open(ctx context.Context, store blobstore.BlobStore, name string) (*Catalog, error) {
	rc, err := store.Fetch(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch %q: %w", name, err)
	}
	defer rc.Close()

	var r io.Reader = rc
	switch {
	case strings.HasSuffix(name, ".gz"):
		zr, err := gzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("catalog: gzip %q: %w", name, err)
		}
		defer zr.Close()
		r = zr
	case strings.HasSuffix(name, ".lz4"):
		r = lz4.NewReader(rc)
	}

	return Load(r)
}

func parseRow(record []string, cols map[string]int) (Item, bool) {
	field := func(name string) string {
		i := cols[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	pivot, ok := NormalizePivot(field(colPivot))
	if !ok {
		return Item{}, false
	}

	age := parseNumber(field(colAge))
	coverage := parseNumber(field(colCoverage))
	if math.IsNaN(age) || math.IsNaN(coverage) {
		return Item{}, false
	}

	malePremium := parseNumber(field(colMalePremium))
	femalePremium := parseNumber(field(colFemalePremium))
	if math.IsNaN(malePremium) && math.IsNaN(femalePremium) {
		return Item{}, false
	}

	return Item{
		Product:       field(colProduct),
		Pivot:         pivot,
		Age:           age,
		Coverage:      coverage,
		MalePremium:   malePremium,
		FemalePremium: femalePremium,
		Job:           field(colJob),
		Risk:          field(colRisk),
	}, true
}

// parseNumber parses a numeric cell, tolerating thousands separators.
// Returns NaN for blank or unparseable values.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
