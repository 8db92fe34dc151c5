// Package timeseries provides the monthly series type and its transformations.
package timeseries

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when periods and values differ in length.
	ErrLengthMismatch = errors.New("periods and values must have the same length")
	// ErrUnordered is returned when periods are not strictly ascending.
	ErrUnordered = errors.New("periods must be strictly ascending")
)

// syntheticStart is the first period assigned by New.
const syntheticStart = Period(200001)

// Series is an ordered sequence of monthly observations.
// Positions, not calendar values, index the series.
type Series struct {
	Periods []Period
	Values  []float64
	Name    string
}

// New creates a series from values with consecutive synthetic periods.
func New(values []float64) *Series {
	periods := make([]Period, len(values))
	p := syntheticStart
	for i := range periods {
		periods[i] = p
		p = p.Next()
	}
	return &Series{
		Periods: periods,
		Values:  values,
	}
}

// NewMonthly creates a series with explicit periods.
func NewMonthly(periods []Period, values []float64) (*Series, error) {
	if len(periods) != len(values) {
		return nil, ErrLengthMismatch
	}
	for i := 1; i < len(periods); i++ {
		if periods[i] <= periods[i-1] {
			return nil, fmt.Errorf("%w: %s follows %s", ErrUnordered, periods[i], periods[i-1])
		}
	}
	return &Series{
		Periods: periods,
		Values:  values,
	}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the sample standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Last returns the final observation, or NaN for an empty series.
func (s *Series) Last() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return s.Values[len(s.Values)-1]
}

// Contiguous reports whether consecutive periods are exactly one month apart.
func (s *Series) Contiguous() bool {
	for i := 1; i < len(s.Periods); i++ {
		if s.Periods[i-1].Next() != s.Periods[i] {
			return false
		}
	}
	return true
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.lagDiff(1, "_diff")
}

// DiffN applies first differencing n times.
func (s *Series) DiffN(n int) *Series {
	out := s
	for i := 0; i < n; i++ {
		out = out.Diff()
	}
	return out
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	return s.lagDiff(m, "_seasonal_diff")
}

func (s *Series) lagDiff(lag int, suffix string) *Series {
	if lag <= 0 || len(s.Values) <= lag {
		return &Series{Values: []float64{}, Name: s.Name + suffix}
	}

	values := make([]float64, len(s.Values)-lag)
	for i := lag; i < len(s.Values); i++ {
		values[i-lag] = s.Values[i] - s.Values[i-lag]
	}

	return &Series{
		Periods: s.periodsFrom(lag, len(s.Values)),
		Values:  values,
		Name:    s.Name + suffix,
	}
}

func (s *Series) periodsFrom(start, end int) []Period {
	if len(s.Periods) < end {
		return nil
	}
	periods := make([]Period, end-start)
	copy(periods, s.Periods[start:end])
	return periods
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	return &Series{
		Periods: s.periodsFrom(start, end),
		Values:  values,
		Name:    s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, len(s.Values))
}

// Log applies the natural logarithm; non-positive values become NaN.
func (s *Series) Log() *Series {
	values := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if v > 0 {
			values[i] = math.Log(v)
		} else {
			values[i] = math.NaN()
		}
	}

	return &Series{
		Periods: s.periodsFrom(0, len(s.Values)),
		Values:  values,
		Name:    s.Name + "_log",
	}
}

// Concat joins a and b, in that order.
func Concat(a, b *Series) *Series {
	values := make([]float64, 0, a.Len()+b.Len())
	values = append(values, a.Values...)
	values = append(values, b.Values...)

	var periods []Period
	if len(a.Periods) == a.Len() && len(b.Periods) == b.Len() {
		periods = make([]Period, 0, len(values))
		periods = append(periods, a.Periods...)
		periods = append(periods, b.Periods...)
	}

	return &Series{
		Periods: periods,
		Values:  values,
		Name:    a.Name,
	}
}
