// Package segment partitions the catalog by its pivot attribute and owns the
// per-partition standardized feature space. Segments are built once per load
// generation and never mutated afterwards, so any number of concurrent
// queries may read them without synchronization.
package segment

import (
	"context"
	"fmt"
	"sort"

	"github.com/covermatch/covermatch/catalog"
	"github.com/covermatch/covermatch/label"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownPivot indicates a pivot value with no segment.
type ErrUnknownPivot struct {
	Pivot string
}

func (e *ErrUnknownPivot) Error() string {
	return fmt.Sprintf("segment: unknown pivot %q", e.Pivot)
}

// Segment is one pivot partition: its rows, their encoded categorical codes,
// the raw numeric columns used for banding, and the cached standardized
// feature matrix over (premium, coverage, age).
type Segment struct {
	Pivot string

	Items    []catalog.Item
	Products []int
	Jobs     []int
	Risks    []int

	Premiums  []float64
	Coverages []float64
	Ages      []float64

	Scaler *Standardizer
	Scaled [][]float64

	// Segment-level fallbacks for unresolvable query categories.
	JobMode  int
	RiskMode int

	// Column medians, used by the autoscale heuristic.
	MedianPremium  float64
	MedianCoverage float64
}

// Len returns the number of rows in the segment.
func (s *Segment) Len() int {
	return len(s.Items)
}

// Store holds every segment of one load generation.
type Store struct {
	segments map[string]*Segment
}

// Segment returns the segment for the given canonical pivot label.
func (st *Store) Segment(pivot string) (*Segment, error) {
	s, ok := st.segments[pivot]
	if !ok {
		return nil, &ErrUnknownPivot{Pivot: pivot}
	}
	return s, nil
}

// Pivots returns the canonical pivot labels with a segment, sorted.
func (st *Store) Pivots() []string {
	out := make([]string, 0, len(st.segments))
	for p := range st.segments {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Build partitions the catalog and fits one standardizer per segment.
// Segments are fitted in parallel; the first failure aborts the build.
// A pivot with no usable rows is fatal, mirroring the load-time contract.
func Build(ctx context.Context, cat *catalog.Catalog) (*Store, error) {
	store := &Store{segments: make(map[string]*Segment, len(catalog.Pivots))}

	g, _ := errgroup.WithContext(ctx)
	results := make([]*Segment, len(catalog.Pivots))
	for i, pivot := range catalog.Pivots {
		g.Go(func() error {
			seg, err := build(cat, pivot)
			if err != nil {
				return err
			}
			results[i] = seg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, seg := range results {
		store.segments[seg.Pivot] = seg
	}
	return store, nil
}

func build(cat *catalog.Catalog, pivot string) (*Segment, error) {
	seg := &Segment{Pivot: pivot}

	for _, it := range cat.Items {
		if it.Pivot != pivot || !it.HasPremium(pivot) {
			continue
		}

		productCode, err := cat.Products.Encode(it.Product)
		if err != nil {
			return nil, fmt.Errorf("segment: encode product: %w", err)
		}
		jobCode, err := cat.Jobs.Encode(it.Job)
		if err != nil {
			return nil, fmt.Errorf("segment: encode job: %w", err)
		}
		riskCode, err := cat.Risks.Encode(it.Risk)
		if err != nil {
			return nil, fmt.Errorf("segment: encode risk: %w", err)
		}

		seg.Items = append(seg.Items, it)
		seg.Products = append(seg.Products, productCode)
		seg.Jobs = append(seg.Jobs, jobCode)
		seg.Risks = append(seg.Risks, riskCode)
		seg.Premiums = append(seg.Premiums, it.Premium(pivot))
		seg.Coverages = append(seg.Coverages, it.Coverage)
		seg.Ages = append(seg.Ages, it.Age)
	}

	if seg.Len() == 0 {
		return nil, &catalog.ErrEmptySegment{Pivot: pivot}
	}

	rows := make([][]float64, seg.Len())
	for i := range seg.Items {
		rows[i] = []float64{seg.Premiums[i], seg.Coverages[i], seg.Ages[i]}
	}
	seg.Scaler = FitStandardizer(rows)
	seg.Scaled = make([][]float64, len(rows))
	for i, row := range rows {
		seg.Scaled[i] = seg.Scaler.Transform(row)
	}

	seg.JobMode, _ = label.ModeCode(seg.Jobs)
	seg.RiskMode, _ = label.ModeCode(seg.Risks)
	seg.MedianPremium = median(seg.Premiums)
	seg.MedianCoverage = median(seg.Coverages)
	return seg, nil
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
