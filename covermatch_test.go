package covermatch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/covermatch/covermatch/blobstore"
	"github.com/covermatch/covermatch/catalog"
)

const engineCSV = `product_name,gender,age,coverage_amount,job,job_risk,male_premium,female_premium
Alpha,female,30,100000000,office,low,,10000
Beta,female,32,100000000,office,low,,12000
Alpha,female,45,100000000,office,low,,13000
Gamma,female,30,100000000,driver,high,,50000
Delta,male,40,50000000,office,low,20000,
`

func newTestEngine(t *testing.T, optFns ...Option) *Engine {
	t.Helper()

	cat, err := catalog.Load(strings.NewReader(engineCSV))
	require.NoError(t, err)

	engine, err := NewFromCatalog(context.Background(), cat, optFns...)
	require.NoError(t, err)

	return engine
}

func TestRankMatchesPremiumMode(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("female", 11_000, 100_000_000, 30, "office")
	q.Mode = ModePremium
	q.K = 2

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	// Alpha(30) and Beta tie on premium gap; the exact-age row wins the
	// score tie-break.
	assert.Equal(t, "Alpha", matches[0].Product)
	assert.Equal(t, float64(10_000), matches[0].Premium)
	assert.Equal(t, "Beta", matches[1].Product)
}

func TestRankMatchesBalancedMode(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("female", 11_000, 100_000_000, 30, "office")
	q.K = 2

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "Alpha", matches[0].Product)
	for i := 1; i < len(matches); i++ {
		assert.LessOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRankMatchesDegradedJob(t *testing.T) {
	engine := newTestEngine(t)

	// No fitted job label is anywhere near this text; the job filter
	// degrades but the query still succeeds.
	q := NewQuery("female", 11_000, 100_000_000, 30, "zzzzqqqq")
	q.K = 2

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	assert.NotEmpty(t, matches)
}

func TestRankMatchesFewerEligibleThanK(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("female", 11_000, 100_000_000, 30, "office")
	q.Mode = ModePremium
	q.K = 5

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)

	// Four female rows, one duplicate product: at most three distinct
	// products can come back.
	assert.Len(t, matches, 3)
}

func TestRankMatchesUniqueProducts(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("female", 11_000, 100_000_000, 30, "office")
	q.Mode = ModePremium
	q.K = 3

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, m := range matches {
		_, dup := seen[m.Product]
		assert.False(t, dup, "product %q returned twice", m.Product)
		seen[m.Product] = struct{}{}
	}
}

func TestRankMatchesDeterministic(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("여자", 11_000, 100_000_000, 30, "office")
	q.K = 3

	first, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.RankMatches(context.Background(), q)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRankMatchesPivotAliases(t *testing.T) {
	engine := newTestEngine(t)

	for _, pivot := range []string{"female", "F", " 여자 ", "woman"} {
		q := NewQuery(pivot, 11_000, 100_000_000, 30, "office")
		matches, err := engine.RankMatches(context.Background(), q)
		require.NoError(t, err, "pivot %q", pivot)
		assert.NotEmpty(t, matches, "pivot %q", pivot)
	}
}

func TestRankMatchesErrors(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("unknown pivot", func(t *testing.T) {
		q := NewQuery("dragon", 11_000, 100_000_000, 30, "office")
		_, err := engine.RankMatches(context.Background(), q)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidQuery)

		var unknownPivot *ErrUnknownPivot
		assert.ErrorAs(t, err, &unknownPivot)
	})

	t.Run("invalid k", func(t *testing.T) {
		q := NewQuery("female", 11_000, 100_000_000, 30, "office")
		q.K = 0
		_, err := engine.RankMatches(context.Background(), q)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidK)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("negative premium", func(t *testing.T) {
		q := NewQuery("female", -1, 100_000_000, 30, "office")
		_, err := engine.RankMatches(context.Background(), q)
		require.Error(t, err)

		var invalidTarget *ErrInvalidTarget
		require.ErrorAs(t, err, &invalidTarget)
		assert.Equal(t, "premium", invalidTarget.Field)
	})
}

func TestRankMatchesExplicitRisk(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("female", 40_000, 100_000_000, 30, "driver")
	q.RiskText = "high"
	q.Mode = ModePremium
	q.K = 1

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Gamma", matches[0].Product)
	assert.Equal(t, "high", matches[0].Risk)
}

func TestRankMatchesAutoscale(t *testing.T) {
	engine := newTestEngine(t)

	// 1100 is two orders of magnitude off; autoscale snaps it toward the
	// segment median before banding, so the same rows come back as for
	// the correctly scaled query.
	q := NewQuery("female", 110, 100_000_000, 30, "office")
	q.Mode = ModePremium
	q.K = 2
	q.Autoscale = true

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Alpha", matches[0].Product)
	assert.Equal(t, "Beta", matches[1].Product)
}

func TestApplyAutoscale(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("female", 110, 100_000_000, 30, "office")
	q.Autoscale = true

	scaled, err := engine.ApplyAutoscale(q)
	require.NoError(t, err)

	// Female premium median is 12500, so 110 snaps up two orders.
	assert.Equal(t, float64(11_000), scaled.Premium)
	assert.Equal(t, float64(100_000_000), scaled.Coverage)
	assert.False(t, scaled.Autoscale)

	// Ranking the pre-scaled query gives the same result as letting
	// RankMatches rescale internally.
	viaFlag, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	preScaled, err := engine.RankMatches(context.Background(), scaled)
	require.NoError(t, err)
	assert.Equal(t, viaFlag, preScaled)
}

func TestApplyAutoscaleUnknownPivot(t *testing.T) {
	engine := newTestEngine(t)

	q := NewQuery("dragon", 110, 100_000_000, 30, "office")
	q.Autoscale = true

	_, err := engine.ApplyAutoscale(q)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestWithScoringPenaltyWeights(t *testing.T) {
	// With the default penalties, the exact job/risk match outranks the
	// numerically closer rows that mismatch both categories.
	q := NewQuery("female", 11_000, 100_000_000, 30, "driver")
	q.K = 4

	defaultEngine := newTestEngine(t)
	matches, err := defaultEngine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Gamma", matches[0].Product)

	// Zeroing the penalties at the engine level flips the ranking to pure
	// numeric proximity for queries that keep the package defaults.
	sc := DefaultScoring
	sc.RiskWeight = 0
	sc.JobWeight = 0

	lenient := newTestEngine(t, WithScoring(sc))
	matches, err = lenient.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "Alpha", matches[0].Product)
}

func TestApplyScoringExplicitWeightWins(t *testing.T) {
	sc := DefaultScoring
	sc.RiskWeight = 0
	sc.JobWeight = 0

	engine := newTestEngine(t, WithScoring(sc))

	q := NewQuery("female", 11_000, 100_000_000, 30, "office")
	q.RiskWeight = 9
	q.JobWeight = 4

	got := engine.applyScoring(q)
	assert.Equal(t, float64(9), got.RiskWeight)
	assert.Equal(t, float64(4), got.JobWeight)

	// Defaults are substituted by the engine configuration.
	got = engine.applyScoring(NewQuery("female", 11_000, 100_000_000, 30, "office"))
	assert.Equal(t, float64(0), got.RiskWeight)
	assert.Equal(t, float64(0), got.JobWeight)
}

func TestRankMatchesFuzzyJobInfersRisk(t *testing.T) {
	engine := newTestEngine(t)

	exact := NewQuery("female", 11_000, 100_000_000, 30, "office")
	exact.Mode = ModePremium
	exact.K = 2

	typo := exact
	typo.JobText = "ofice"

	want, err := engine.RankMatches(context.Background(), exact)
	require.NoError(t, err)
	got, err := engine.RankMatches(context.Background(), typo)
	require.NoError(t, err)

	// The misspelled job resolves to the same label, so the inferred risk
	// and the final ranking are identical.
	assert.Equal(t, want, got)
}

func TestRankMatchesThreeRowSegment(t *testing.T) {
	csv := `product_name,gender,age,coverage_amount,job,job_risk,male_premium,female_premium
P1,female,30,10000000,A,1,,10000
P2,female,32,10500000,A,1,,12000
P3,female,60,50000000,B,3,,50000
P4,male,40,10000000,A,1,9000,
`
	cat, err := catalog.Load(strings.NewReader(csv))
	require.NoError(t, err)

	engine, err := NewFromCatalog(context.Background(), cat)
	require.NoError(t, err)

	q := NewQuery("female", 11_000, 1.02e7, 31, "A")
	q.K = 2

	matches, err := engine.RankMatches(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	products := []string{matches[0].Product, matches[1].Product}
	assert.Contains(t, products, "P1")
	assert.Contains(t, products, "P2")
}

func TestReloadSwapsGeneration(t *testing.T) {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "catalog.csv", []byte(engineCSV)))

	engine, err := New(ctx, store, "catalog.csv")
	require.NoError(t, err)

	before := engine.Generation()
	require.Len(t, before.Catalog.Items, 5)

	updated := engineCSV + "Omega,female,33,100000000,office,low,,15000\n"
	require.NoError(t, store.Put(ctx, "catalog.csv", []byte(updated)))

	require.NoError(t, engine.Reload(ctx))

	after := engine.Generation()
	assert.NotSame(t, before, after)
	assert.Len(t, after.Catalog.Items, 6)

	// The old generation stays fully usable for readers that captured it.
	assert.Len(t, before.Catalog.Items, 5)
}

func TestReloadKeepsGenerationOnFailure(t *testing.T) {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "catalog.csv", []byte(engineCSV)))

	engine, err := New(ctx, store, "catalog.csv")
	require.NoError(t, err)
	before := engine.Generation()

	require.NoError(t, store.Put(ctx, "catalog.csv", []byte("not,a,catalog\n1,2,3\n")))

	require.Error(t, engine.Reload(ctx))
	assert.Same(t, before, engine.Generation())
}

func TestReloadThrottled(t *testing.T) {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "catalog.csv", []byte(engineCSV)))

	engine, err := New(ctx, store, "catalog.csv", WithReloadLimit(time.Hour))
	require.NoError(t, err)

	require.NoError(t, engine.Reload(ctx))
	assert.ErrorIs(t, engine.Reload(ctx), ErrReloadThrottled)
}

func TestReloadNoSource(t *testing.T) {
	engine := newTestEngine(t)
	assert.ErrorIs(t, engine.Reload(context.Background()), ErrNoSource)
}
