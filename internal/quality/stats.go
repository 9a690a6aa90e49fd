package quality

import (
	"math"
	"sort"

	"waterq/internal/dataset"
)

// Moments accumulates count, mean and variance in one pass (Welford's
// method), avoiding the cancellation the naive sum-of-squares form
// suffers on large coliform counts.
type Moments struct {
	n    int
	mean float64
	m2   float64
}

// Add folds one value into the accumulator.
func (m *Moments) Add(v float64) {
	m.n++
	delta := v - m.mean
	m.mean += delta / float64(m.n)
	m.m2 += delta * (v - m.mean)
}

// Count returns the number of accumulated values.
func (m *Moments) Count() int { return m.n }

// Mean returns the arithmetic mean, or 0 for an empty accumulator.
func (m *Moments) Mean() float64 { return m.mean }

// SampleStdDev returns the sample standard deviation (ddof=1), or 0 when
// fewer than two values were accumulated.
func (m *Moments) SampleStdDev() float64 {
	if m.n < 2 {
		return 0
	}
	return math.Sqrt(m.m2 / float64(m.n-1))
}

// ColumnMoments accumulates the non-missing cells of a number column.
func ColumnMoments(col *dataset.Column) Moments {
	var m Moments
	for i := 0; i < col.Len(); i++ {
		if v, ok := col.Number(i); ok {
			m.Add(v)
		}
	}
	return m
}

// Median returns the median of values, averaging the two middle values
// for an even count. The second return is false for an empty input.
func Median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5), true
}

// Quantile returns the q-th quantile (0 <= q <= 1) of sorted values using
// linear interpolation between adjacent order statistics. The input must
// be non-empty and ascending.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Correlation returns the Pearson coefficient between two number columns
// over the rows where both cells are present. The second return is false
// when fewer than two paired observations exist or either side has zero
// variance.
func Correlation(x, y *dataset.Column) (float64, bool) {
	rows := x.Len()
	if y.Len() < rows {
		rows = y.Len()
	}

	var n float64
	var sumX, sumY, sumXX, sumYY, sumXY float64
	for i := 0; i < rows; i++ {
		xv, xok := x.Number(i)
		yv, yok := y.Number(i)
		if !xok || !yok {
			continue
		}
		n++
		sumX += xv
		sumY += yv
		sumXX += xv * xv
		sumYY += yv * yv
		sumXY += xv * yv
	}

	if n < 2 {
		return 0, false
	}
	varX := n*sumXX - sumX*sumX
	varY := n*sumYY - sumY*sumY
	if varX <= 0 || varY <= 0 {
		return 0, false
	}
	return (n*sumXY - sumX*sumY) / math.Sqrt(varX*varY), true
}
