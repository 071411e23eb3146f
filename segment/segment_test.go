package segment

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/covermatch/covermatch/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitStandardizer(t *testing.T) {
	rows := [][]float64{
		{10, 100, 1},
		{20, 100, 3},
		{30, 100, 5},
	}
	s := FitStandardizer(rows)
	require.Equal(t, 3, s.Dim())

	got := s.Transform([]float64{20, 100, 3})
	// Means are exact, so the mean row maps to the origin.
	assert.InDelta(t, 0, got[0], 1e-12)
	assert.InDelta(t, 0, got[1], 1e-12)
	assert.InDelta(t, 0, got[2], 1e-12)

	// Population std of {10,20,30} is sqrt(200/3).
	std := math.Sqrt(200.0 / 3.0)
	got = s.Transform([]float64{30, 100, 5})
	assert.InDelta(t, 10/std, got[0], 1e-12)

	// Zero-variance column maps its constant to zero, no division by zero.
	assert.False(t, math.IsNaN(got[1]))
	assert.False(t, math.IsInf(got[1], 0))
	assert.InDelta(t, 0, got[1], 1e-12)
}

func TestFitStandardizerEmpty(t *testing.T) {
	s := FitStandardizer(nil)
	assert.Equal(t, 0, s.Dim())
}

const segmentCSV = `product_name,gender,age,coverage_amount,job,job_risk,male_premium,female_premium
A,male,30,10000000,office,low,40000,
A,female,30,10000000,office,low,,41000
B,male,40,20000000,office,low,50000,
C,male,50,30000000,mining,high,60000,
D,female,35,15000000,office,low,,45000
E,female,60,50000000,mining,high,,52000
`

func loadStore(t *testing.T) (*catalog.Catalog, *Store) {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(segmentCSV))
	require.NoError(t, err)
	store, err := Build(context.Background(), cat)
	require.NoError(t, err)
	return cat, store
}

func TestBuild(t *testing.T) {
	cat, store := loadStore(t)

	assert.Equal(t, []string{catalog.PivotFemale, catalog.PivotMale}, store.Pivots())

	male, err := store.Segment(catalog.PivotMale)
	require.NoError(t, err)
	female, err := store.Segment(catalog.PivotFemale)
	require.NoError(t, err)

	// Disjoint partitions covering the whole catalog.
	assert.Equal(t, len(cat.Items), male.Len()+female.Len())
	assert.Equal(t, 3, male.Len())
	assert.Equal(t, 3, female.Len())

	// Feature matrix is row-aligned with items.
	assert.Len(t, male.Scaled, male.Len())
	assert.Len(t, male.Jobs, male.Len())

	// Premiums come from the segment's own pivot column.
	assert.Equal(t, []float64{40000, 50000, 60000}, male.Premiums)
	assert.Equal(t, []float64{41000, 45000, 52000}, female.Premiums)

	// Standardized matrix matches transforming the raw rows.
	want := male.Scaler.Transform([]float64{50000, 20000000, 40})
	assert.Equal(t, want, male.Scaled[1])

	// Modes: office/low dominates both segments.
	officeCode, err := cat.Jobs.Encode("office")
	require.NoError(t, err)
	lowCode, err := cat.Risks.Encode("low")
	require.NoError(t, err)
	assert.Equal(t, officeCode, male.JobMode)
	assert.Equal(t, lowCode, female.RiskMode)

	assert.Equal(t, 50000.0, male.MedianPremium)
	assert.Equal(t, 15000000.0, female.MedianCoverage)
}

func TestStoreUnknownPivot(t *testing.T) {
	_, store := loadStore(t)
	_, err := store.Segment("other")
	var up *ErrUnknownPivot
	require.ErrorAs(t, err, &up)
	assert.Equal(t, "other", up.Pivot)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 0.0, median(nil))
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}
