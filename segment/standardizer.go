package segment

import "math"

// Standardizer is a per-column z-score transform fitted once from a
// segment's numeric rows. Transform is pure; the same fitted instance is
// applied to catalog rows and to incoming queries.
type Standardizer struct {
	means  []float64
	scales []float64
}

// FitStandardizer fits column means and scales from rows. All rows must have
// the same width. Zero-variance columns get a unit scale so their constant
// value maps to zero instead of dividing by zero.
func FitStandardizer(rows [][]float64) *Standardizer {
	if len(rows) == 0 {
		return &Standardizer{}
	}
	dim := len(rows[0])
	means := make([]float64, dim)
	scales := make([]float64, dim)

	for j := 0; j < dim; j++ {
		sum := 0.0
		for _, row := range rows {
			sum += row[j]
		}
		mean := sum / float64(len(rows))

		variance := 0.0
		for _, row := range rows {
			d := row[j] - mean
			variance += d * d
		}
		variance /= float64(len(rows))

		scale := math.Sqrt(variance)
		if scale == 0 {
			scale = 1
		}
		means[j] = mean
		scales[j] = scale
	}
	return &Standardizer{means: means, scales: scales}
}

// Transform returns the standardized copy of vec.
func (s *Standardizer) Transform(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for j := range vec {
		out[j] = (vec[j] - s.means[j]) / s.scales[j]
	}
	return out
}

// Dim returns the number of fitted columns.
func (s *Standardizer) Dim() int {
	return len(s.means)
}
