package analysis

import (
	"github.com/sartorproj/rxforecast/prescribing"
	"github.com/sartorproj/rxforecast/stats"
	"github.com/sartorproj/rxforecast/timeseries"
)

// Monthly is a national monthly total with its summary statistics.
type Monthly struct {
	Measure prescribing.Measure
	Series  *timeseries.Series
	Summary *stats.Summary
}

// MonthlyTrend sums measure per month across regions and substances.
func MonthlyTrend(records []prescribing.Record, measure prescribing.Measure) (*Monthly, error) {
	series, err := prescribing.MonthlySeries(records, measure)
	if err != nil {
		return nil, err
	}
	summary, err := stats.Describe(series.Values)
	if err != nil {
		return nil, err
	}
	return &Monthly{Measure: measure, Series: series, Summary: summary}, nil
}

// Annual holds yearly totals of both measures.
type Annual struct {
	Items []prescribing.YearTotal
	Cost  []prescribing.YearTotal
}

// AnnualSummary totals items and cost per year.
func AnnualSummary(records []prescribing.Record) (*Annual, error) {
	if len(records) == 0 {
		return nil, prescribing.ErrEmptyInput
	}
	return &Annual{
		Items: prescribing.AnnualTotals(records, prescribing.Items),
		Cost:  prescribing.AnnualTotals(records, prescribing.Cost),
	}, nil
}

// Regions holds the year by region pivots of both measures.
type Regions struct {
	Items *prescribing.Pivot
	Cost  *prescribing.Pivot
}

// RegionTables pivots items and cost by year and region.
func RegionTables(records []prescribing.Record) (*Regions, error) {
	if len(records) == 0 {
		return nil, prescribing.ErrEmptyInput
	}
	return &Regions{
		Items: prescribing.RegionPivot(records, prescribing.Items),
		Cost:  prescribing.RegionPivot(records, prescribing.Cost),
	}, nil
}

// Top ranks substances by one measure and carries each one's monthly series.
type Top struct {
	Measure prescribing.Measure
	Ranked  []prescribing.Ranked
	Trends  map[string]*timeseries.Series
}

// TopDrugs ranks the n largest substances by items and by cost.
func TopDrugs(records []prescribing.Record, n int) (byItems, byCost *Top, err error) {
	if len(records) == 0 {
		return nil, nil, prescribing.ErrEmptyInput
	}
	return top(records, prescribing.Items, n), top(records, prescribing.Cost, n), nil
}

func top(records []prescribing.Record, measure prescribing.Measure, n int) *Top {
	ranked := prescribing.TopSubstances(records, measure, n)
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Name
	}
	return &Top{
		Measure: measure,
		Ranked:  ranked,
		Trends:  prescribing.MonthlyBySubstance(records, measure, names),
	}
}
