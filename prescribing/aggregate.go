package prescribing

import (
	"cmp"
	"slices"

	"github.com/samber/lo"

	"github.com/sartorproj/rxforecast/timeseries"
)

// MonthlySeries sums measure per distinct period and returns the totals in
// ascending period order. Records sharing a period are summed, never dropped.
func MonthlySeries(records []Record, measure Measure) (*timeseries.Series, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	groups := lo.GroupBy(records, func(r Record) timeseries.Period { return r.Period })
	periods := lo.Keys(groups)
	slices.Sort(periods)

	values := make([]float64, len(periods))
	for i, p := range periods {
		values[i] = lo.SumBy(groups[p], measure.Of)
	}

	series, err := timeseries.NewMonthly(periods, values)
	if err != nil {
		return nil, err
	}
	series.Name = measure.String()
	return series, nil
}

// RecordsFromSeries expands a monthly series back into one record per
// period, carrying the value in the given measure.
func RecordsFromSeries(series *timeseries.Series, measure Measure) []Record {
	records := make([]Record, series.Len())
	for i, v := range series.Values {
		r := Record{Period: series.Periods[i], Year: series.Periods[i].Year()}
		if measure == Cost {
			r.Cost = v
		} else {
			r.Items = v
		}
		records[i] = r
	}
	return records
}

// YearTotal is the total of a measure over one calendar year.
type YearTotal struct {
	Year  int
	Total float64
}

// AnnualTotals sums measure per year, ascending by year.
func AnnualTotals(records []Record, measure Measure) []YearTotal {
	groups := lo.GroupBy(records, func(r Record) int { return r.Year })
	totals := lo.MapToSlice(groups, func(year int, rs []Record) YearTotal {
		return YearTotal{Year: year, Total: lo.SumBy(rs, measure.Of)}
	})
	slices.SortFunc(totals, func(a, b YearTotal) int { return cmp.Compare(a.Year, b.Year) })
	return totals
}

// Ranked is a named total, e.g. one substance's items over the whole extract.
type Ranked struct {
	Name  string
	Total float64
}

// TopSubstances returns the n substances with the largest totals, ties broken
// by name. n <= 0 returns all substances.
func TopSubstances(records []Record, measure Measure, n int) []Ranked {
	groups := lo.GroupBy(records, func(r Record) string { return r.Substance })
	ranked := lo.MapToSlice(groups, func(name string, rs []Record) Ranked {
		return Ranked{Name: name, Total: lo.SumBy(rs, measure.Of)}
	})
	slices.SortFunc(ranked, func(a, b Ranked) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// MonthlyBySubstance builds a monthly series per named substance. Names with
// no records are omitted.
func MonthlyBySubstance(records []Record, measure Measure, names []string) map[string]*timeseries.Series {
	out := make(map[string]*timeseries.Series, len(names))
	for _, name := range names {
		series, err := MonthlySeries(Filter(records, BySubstance(name)), measure)
		if err != nil {
			continue
		}
		series.Name = name
		out[name] = series
	}
	return out
}
