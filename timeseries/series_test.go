package timeseries

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	series := New([]float64{1, 2, 3})

	require.Equal(t, 3, series.Len())
	assert.Equal(t, []Period{200001, 200002, 200003}, series.Periods)
	assert.True(t, series.Contiguous())
}

func TestNewMonthly(t *testing.T) {
	_, err := NewMonthly([]Period{202301}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = NewMonthly([]Period{202302, 202301}, []float64{1, 2})
	assert.ErrorIs(t, err, ErrUnordered)

	series, err := NewMonthly([]Period{202311, 202312, 202401}, []float64{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, series.Contiguous())

	gappy, err := NewMonthly([]Period{202311, 202401}, []float64{1, 3})
	require.NoError(t, err)
	assert.False(t, gappy.Contiguous())
}

func TestSeriesStatistics(t *testing.T) {
	series := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.InDelta(t, 5.0, series.Mean(), 1e-12)
	assert.InDelta(t, 32.0/7.0, series.Variance(), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), series.Std(), 1e-12)
	assert.Equal(t, 2.0, series.Min())
	assert.Equal(t, 9.0, series.Max())
	assert.Equal(t, 9.0, series.Last())

	empty := New(nil)
	assert.True(t, math.IsNaN(empty.Min()))
	assert.True(t, math.IsNaN(empty.Last()))
	assert.Equal(t, 0.0, empty.Mean())
}

func TestDiff(t *testing.T) {
	series := New([]float64{1, 4, 9, 16, 25})

	diff := series.Diff()
	assert.Equal(t, []float64{3, 5, 7, 9}, diff.Values)
	assert.Equal(t, series.Periods[1:], diff.Periods)

	diff2 := series.DiffN(2)
	assert.Equal(t, []float64{2, 2, 2}, diff2.Values)

	assert.Equal(t, 0, New([]float64{1}).Diff().Len())
}

func TestSeasonalDiff(t *testing.T) {
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i%12) + float64(i/12)*10
	}

	sdiff := New(values).SeasonalDiff(12)
	require.Equal(t, 12, sdiff.Len())
	for _, v := range sdiff.Values {
		assert.Equal(t, 10.0, v)
	}
}

func TestSliceAndCopy(t *testing.T) {
	series := New([]float64{1, 2, 3, 4, 5})
	series.Name = "items"

	sub := series.Slice(1, 3)
	assert.Equal(t, []float64{2, 3}, sub.Values)
	assert.Equal(t, "items", sub.Name)

	sub.Values[0] = 99
	assert.Equal(t, 2.0, series.Values[1], "slice must not alias the parent")

	cp := series.Copy()
	if diff := cmp.Diff(series, cp); diff != "" {
		t.Errorf("Copy() mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 0, series.Slice(3, 2).Len())
}

func TestLog(t *testing.T) {
	logged := New([]float64{1, math.E, 0}).Log()

	assert.InDelta(t, 0, logged.Values[0], 1e-12)
	assert.InDelta(t, 1, logged.Values[1], 1e-12)
	assert.True(t, math.IsNaN(logged.Values[2]))
}

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod("202312")
	require.NoError(t, err)

	assert.Equal(t, 2023, p.Year())
	assert.Equal(t, 12, p.Month())
	assert.Equal(t, Period(202401), p.Next())
	assert.Equal(t, Period(202211), p.Add(-13))
	assert.Equal(t, 14, p.MonthsUntil(202502))
	assert.Equal(t, "202312", p.String())
	assert.Equal(t, 2023, p.Time().Year())

	_, err = ParsePeriod("202313")
	assert.Error(t, err)
	_, err = ParsePeriod("abc")
	assert.Error(t, err)
}
