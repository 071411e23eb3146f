// Package covermatch provides a deterministic recommendation engine for
// insurance products.
//
// An Engine is built from a tabular product catalog, partitions it by the
// gender pivot into standardized segments, and answers ranked-match queries
// with production-ready features including:
//
//   - Staged candidate selection that prefers job/risk agreement over breadth
//   - Tolerance-banded filtering with progressive widening on sparse bands
//   - Weighted-distance scoring over a per-segment standardized feature space
//   - Three ranking modes: balanced, premium-first, coverage-first
//   - Fuzzy resolution of free-text job, risk and pivot labels
//   - Atomic catalog reloads that never disturb in-flight queries
//
// # Quick Start
//
//	ctx := context.Background()
//	store := blobstore.NewLocalStore("./data")
//	engine, err := covermatch.New(ctx, store, "catalog.csv.gz")
//	if err != nil {
//	    panic(err)
//	}
//
//	q := covermatch.NewQuery("female", 12_000, 100_000_000, 35, "사무직")
//	q.Mode = covermatch.ModePremium
//
//	matches, err := engine.RankMatches(ctx, q)
//
// Queries never mutate engine state; any number of goroutines may call
// RankMatches concurrently, including while a Reload is in progress.
package covermatch

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/covermatch/covermatch/blobstore"
	"github.com/covermatch/covermatch/catalog"
	"github.com/covermatch/covermatch/label"
	"github.com/covermatch/covermatch/segment"
)

// Generation is one immutable load of the catalog and its derived segments.
// A Generation is never mutated after construction; Reload builds a new one
// and swaps it in atomically.
type Generation struct {
	Catalog  *catalog.Catalog
	Segments *segment.Store
}

func buildGeneration(ctx context.Context, cat *catalog.Catalog) (*Generation, error) {
	segs, err := segment.Build(ctx, cat)
	if err != nil {
		return nil, err
	}
	return &Generation{Catalog: cat, Segments: segs}, nil
}

// Engine answers ranked-match queries against the current catalog
// generation. All methods are safe for concurrent use.
type Engine struct {
	opts   options
	gen    atomic.Pointer[Generation]
	group  singleflight.Group
	source func(ctx context.Context) (*catalog.Catalog, error)
}

// New fetches the named catalog from store, builds the initial generation
// and returns a ready Engine. The store and name are retained so Reload can
// fetch a fresh copy later.
func New(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Engine, error) {
	source := func(ctx context.Context) (*catalog.Catalog, error) {
		return catalog.Open(ctx, store, name)
	}

	cat, err := source(ctx)
	if err != nil {
		return nil, err
	}

	e, err := newEngine(ctx, cat, optFns...)
	if err != nil {
		return nil, err
	}
	e.source = source

	return e, nil
}

// NewFromCatalog builds an Engine directly from an already-loaded catalog.
// The resulting engine has no reloadable source; Reload returns ErrNoSource.
func NewFromCatalog(ctx context.Context, cat *catalog.Catalog, optFns ...Option) (*Engine, error) {
	return newEngine(ctx, cat, optFns...)
}

func newEngine(ctx context.Context, cat *catalog.Catalog, optFns ...Option) (*Engine, error) {
	e := &Engine{opts: applyOptions(optFns...)}

	gen, err := buildGeneration(ctx, cat)
	if err != nil {
		return nil, err
	}
	e.gen.Store(gen)

	return e, nil
}

// Generation returns the current load generation. The returned value stays
// valid and consistent even if a reload swaps in a newer one.
func (e *Engine) Generation() *Generation {
	return e.gen.Load()
}

// Reload fetches the catalog source again, builds a new generation and swaps
// it in. In-flight queries keep reading the generation they started with; on
// any failure the current generation is left untouched. Concurrent Reload
// calls are collapsed into a single build.
func (e *Engine) Reload(ctx context.Context) error {
	if e.source == nil {
		return ErrNoSource
	}
	if e.opts.reloadLimiter != nil && !e.opts.reloadLimiter.Allow() {
		return ErrReloadThrottled
	}

	start := time.Now()

	_, err, _ := e.group.Do("reload", func() (any, error) {
		cat, err := e.source(ctx)
		if err != nil {
			return nil, fmt.Errorf("reload: %w", err)
		}

		gen, err := buildGeneration(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("reload: %w", err)
		}
		e.gen.Store(gen)

		e.opts.logger.LogReload(ctx, len(cat.Items), cat.Dropped, nil)

		return nil, nil
	})

	e.opts.metricsCollector.RecordReload(time.Since(start), err)
	if err != nil {
		e.opts.logger.LogReload(ctx, 0, 0, err)
	}

	return err
}

// ApplyAutoscale returns a copy of q whose premium and coverage targets are
// snapped toward the pivot segment's medians, exactly as RankMatches would
// rescale them when q.Autoscale is set. The Autoscale flag is cleared on the
// returned query, so ranking it does not rescale a second time. Callers that
// need to report the effective targets (rather than the raw inputs) apply
// this first and rank the returned query.
func (e *Engine) ApplyAutoscale(q Query) (Query, error) {
	pivot, ok := catalog.NormalizePivot(q.Pivot)
	if !ok {
		return q, &ErrUnknownPivot{Pivot: q.Pivot}
	}

	seg, err := e.gen.Load().Segments.Segment(pivot)
	if err != nil {
		return q, err
	}

	q.Premium, _ = autoscaleValue(q.Premium, seg.MedianPremium)
	q.Coverage, _ = autoscaleValue(q.Coverage, seg.MedianCoverage)
	q.Autoscale = false

	return q, nil
}

// RankMatches returns up to q.K catalog rows ranked by similarity to the
// query targets under the selected mode. An empty result is not an error;
// it means no catalog row survived candidate selection.
func (e *Engine) RankMatches(ctx context.Context, q Query) ([]RankedMatch, error) {
	start := time.Now()

	matches, err := e.rankMatches(ctx, q)

	e.opts.metricsCollector.RecordRank(q.K, time.Since(start), err)
	e.opts.logger.WithK(q.K).LogRank(ctx, q.Mode, q.K, len(matches), err)

	return matches, err
}

func (e *Engine) rankMatches(ctx context.Context, q Query) ([]RankedMatch, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	q = e.applyScoring(q)

	gen := e.gen.Load()

	pivot, ok := catalog.NormalizePivot(q.Pivot)
	if !ok {
		return nil, &ErrUnknownPivot{Pivot: q.Pivot}
	}
	q.Pivot = pivot

	seg, err := gen.Segments.Segment(pivot)
	if err != nil {
		return nil, err
	}

	f := e.resolveFilter(ctx, gen, seg, &q)

	if q.Autoscale {
		q.Premium, _ = autoscaleValue(q.Premium, seg.MedianPremium)
		q.Coverage, _ = autoscaleValue(q.Coverage, seg.MedianCoverage)
	}

	qScaled := seg.Scaler.Transform([]float64{q.Premium, q.Coverage, q.Age})

	base := bandBase(seg, q, e.opts.bands, q.K)
	if base.IsEmpty() {
		return []RankedMatch{}, nil
	}

	set := stageCandidates(seg, base, f, q.K)
	cands := scoreCandidates(seg, set, qScaled, e.opts.scoring.axisWeights(q.Mode), f, q)

	return assemble(gen, seg, cands, q), nil
}

// applyScoring substitutes the engine-level penalty weights for queries
// that keep the package defaults. A weight set explicitly on the Query
// always wins over the engine configuration.
func (e *Engine) applyScoring(q Query) Query {
	if q.RiskWeight == DefaultScoring.RiskWeight {
		q.RiskWeight = e.opts.scoring.RiskWeight
	}
	if q.JobWeight == DefaultScoring.JobWeight {
		q.JobWeight = e.opts.scoring.JobWeight
	}
	return q
}

// resolveFilter maps the query's free-text job and risk to segment codes.
// Resolution failures degrade the corresponding filter instead of failing
// the query: the segment-level mode value substitutes for the missing code.
func (e *Engine) resolveFilter(ctx context.Context, gen *Generation, seg *segment.Segment, q *Query) stageFilter {
	cat := gen.Catalog
	jobs := cat.Jobs.WithCutoff(e.opts.fuzzyCutoff)
	risks := cat.Risks.WithCutoff(e.opts.fuzzyCutoff)

	f := stageFilter{
		jobFilter:  q.JobFilter,
		riskFilter: q.RiskFilter,
	}

	jobCode, err := jobs.Encode(q.JobText)
	jobResolved := err == nil
	if !jobResolved {
		e.opts.logger.WithPivot(seg.Pivot).LogResolveDegraded(ctx, "job", q.JobText)
		jobCode = seg.JobMode
		f.jobFilter = false
	}
	f.jobCode = jobCode

	f.riskCode = e.resolveRisk(ctx, seg, risks, cat, q, jobCode, jobResolved)

	return f
}

func (e *Engine) resolveRisk(ctx context.Context, seg *segment.Segment, risks *label.Codec, cat *catalog.Catalog, q *Query, jobCode int, jobResolved bool) int {
	if q.RiskText != "" {
		code, err := risks.Encode(q.RiskText)
		if err == nil {
			return code
		}
		e.opts.logger.WithPivot(seg.Pivot).LogResolveDegraded(ctx, "risk", q.RiskText)
	}

	// A resolved job always has a mapping entry: the lookup is fitted over
	// every job label and its risk labels all encode.
	if jobResolved {
		if jobLabel, err := cat.Jobs.Decode(jobCode); err == nil {
			if riskLabel, ok := cat.JobRisk.Lookup(jobLabel); ok {
				if code, err := risks.Encode(riskLabel); err == nil {
					return code
				}
			}
		}
	}

	return seg.RiskMode
}
