package analysis

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/autoarima"
	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/prescribing"
	"github.com/sartorproj/rxforecast/timeseries"
)

var (
	regions    = []string{"LONDON", "MIDLANDS", "NORTH WEST"}
	substances = []string{"Atorvastatin", "Omeprazole"}
)

// extract builds four years of records with a rising trend, a yearly cycle
// and a little noise.
func extract() []prescribing.Record {
	rng := rand.New(rand.NewPCG(7, 11))
	start := timeseries.NewPeriod(2020, 1)
	var out []prescribing.Record
	for m := range 48 {
		p := start.Add(m)
		for i, region := range regions {
			for j, substance := range substances {
				items := 1000*float64(i+1) + 400*float64(j) + 5*float64(m) +
					50*math.Sin(2*math.Pi*float64(m)/12) + 10*rng.NormFloat64()
				out = append(out, prescribing.Record{
					Year:      p.Year(),
					Period:    p,
					Region:    region,
					Substance: substance,
					Items:     math.Round(items),
					Cost:      math.Round(items*(2.5+float64(j))*100) / 100,
				})
			}
		}
	}
	return out
}

func writeCSV(t *testing.T, records []prescribing.Record) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("YEAR,YEAR_MONTH,REGION_NAME,BNF_CHEMICAL_SUBSTANCE,ITEMS,COST\n")
	for _, r := range records {
		fmt.Fprintf(&b, "%d,%s,%s,%s,%g,%g\n", r.Year, r.Period, r.Region, r.Substance, r.Items, r.Cost)
	}
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestLoadCSV(t *testing.T) {
	records := extract()
	path := writeCSV(t, records)

	got, err := Load(context.Background(), Source{Path: path, CSV: prescribing.DefaultCSVOptions()})
	require.NoError(t, err)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	got, err = Load(context.Background(), Source{
		Format:    "CSV",
		Path:      path,
		CSV:       prescribing.DefaultCSVOptions(),
		Substance: "Omeprazole",
		Region:    "LONDON",
	})
	require.NoError(t, err)
	assert.Len(t, got, 48)
	for _, r := range got {
		assert.Equal(t, "Omeprazole", r.Substance)
		assert.Equal(t, "LONDON", r.Region)
	}
}

func TestLoadParquet(t *testing.T) {
	records := extract()
	path := filepath.Join(t.TempDir(), "extract.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, prescribing.WriteParquet(f, records))
	require.NoError(t, f.Close())

	got, err := Load(context.Background(), Source{Format: "parquet", Path: path})
	require.NoError(t, err)
	if diff := cmp.Diff(records, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, Source{Format: "xlsx", Path: "x.xlsx"})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(ctx, Source{Format: "postgres"})
	assert.ErrorContains(t, err, "connection string")

	_, err = Load(ctx, Source{Format: "postgres", Postgres: "postgres://localhost:notaport/rx"})
	assert.ErrorContains(t, err, "failed to connect to postgres")

	path := writeCSV(t, extract())
	_, err = Load(ctx, Source{Path: path, CSV: prescribing.DefaultCSVOptions(), Region: "WALES"})
	assert.ErrorIs(t, err, prescribing.ErrEmptyInput)
}

func TestMonthlyTrend(t *testing.T) {
	records := extract()
	monthly, err := MonthlyTrend(records, prescribing.Items)
	require.NoError(t, err)

	assert.Equal(t, 48, monthly.Series.Len())
	assert.Equal(t, timeseries.NewPeriod(2020, 1), monthly.Series.Periods[0])
	assert.Equal(t, 48, monthly.Summary.N)

	var first float64
	for _, r := range records[:len(regions)*len(substances)] {
		first += r.Items
	}
	assert.InDelta(t, first, monthly.Series.Values[0], 1e-9)

	_, err = MonthlyTrend(nil, prescribing.Items)
	assert.ErrorIs(t, err, prescribing.ErrEmptyInput)
}

func TestAnnualAndRegions(t *testing.T) {
	records := extract()
	annual, err := AnnualSummary(records)
	require.NoError(t, err)
	require.Len(t, annual.Items, 4)
	assert.Equal(t, 2023, annual.Cost[3].Year)

	pivots, err := RegionTables(records)
	require.NoError(t, err)
	assert.Equal(t, regions, pivots.Items.Regions)
	for i, yt := range annual.Items {
		assert.InDelta(t, yt.Total, pivots.Items.RowTotal(i), 1e-6)
	}
	for i, yt := range annual.Cost {
		assert.InDelta(t, yt.Total, pivots.Cost.RowTotal(i), 1e-6)
	}

	_, err = AnnualSummary(nil)
	assert.ErrorIs(t, err, prescribing.ErrEmptyInput)
	_, err = RegionTables(nil)
	assert.ErrorIs(t, err, prescribing.ErrEmptyInput)
}

func TestTopDrugs(t *testing.T) {
	byItems, byCost, err := TopDrugs(extract(), 1)
	require.NoError(t, err)

	require.Len(t, byItems.Ranked, 1)
	assert.Equal(t, "Omeprazole", byItems.Ranked[0].Name)
	assert.Equal(t, prescribing.Cost, byCost.Measure)
	require.Contains(t, byCost.Trends, "Omeprazole")
	assert.Equal(t, 48, byCost.Trends["Omeprazole"].Len())

	_, _, err = TopDrugs(nil, 5)
	assert.ErrorIs(t, err, prescribing.ErrEmptyInput)
}

func national(t *testing.T) *timeseries.Series {
	t.Helper()
	monthly, err := MonthlyTrend(extract(), prescribing.Items)
	require.NoError(t, err)
	return monthly.Series
}

func TestPredict(t *testing.T) {
	series := national(t)
	pred, err := Predict(series, PredictOptions{
		Model:      arima.Config{Order: arima.Order{P: 1, D: 1}, Trend: arima.TrendLinear},
		TestSize:   5,
		Future:     5,
		Levels:     []float64{0.90, 0.70, 0.50},
		ParamAlpha: 0.10,
	})
	require.NoError(t, err)

	assert.Equal(t, 43, pred.Train.Len())
	assert.Equal(t, pred.Test.Periods, pred.Window.Periods)
	require.Equal(t, 5, pred.Future.Horizon)
	assert.Equal(t, series.Periods[47].Add(1), pred.Future.Periods[0])

	for _, fc := range []*arima.Forecast{pred.Window, pred.Future} {
		narrow, wide := fc.Intervals[0.50], fc.Intervals[0.90]
		for h := range fc.Horizon {
			assert.LessOrEqual(t, wide.Lower[h], narrow.Lower[h])
			assert.LessOrEqual(t, narrow.Lower[h], fc.Mean[h])
			assert.LessOrEqual(t, fc.Mean[h], narrow.Upper[h])
			assert.LessOrEqual(t, narrow.Upper[h], wide.Upper[h])
		}
	}
	// the future band keeps widening from where the test band stopped
	last := pred.Window.Intervals[0.90]
	next := pred.Future.Intervals[0.90]
	assert.GreaterOrEqual(t, next.Upper[0]-next.Lower[0], last.Upper[4]-last.Lower[4])

	names := make([]string, len(pred.Params))
	for i, p := range pred.Params {
		names[i] = p.Name
	}
	assert.Equal(t, []string{"x1", "ar.L1", "sigma2"}, names)
	assert.InDelta(t, math.Sqrt(pred.Model.Sigma2), pred.Sigma.Value, 1e-9)
	assert.Positive(t, pred.Accuracy.MAE)
	assert.GreaterOrEqual(t, pred.Accuracy.RMSE, pred.Accuracy.MAE)
}

func TestPredictErrors(t *testing.T) {
	series := national(t)
	opts := PredictOptions{Model: arima.Config{Order: arima.Order{P: 1, D: 1}}, TestSize: 5, Future: 5, ParamAlpha: 0.1}

	bad := opts
	bad.TestSize = 0
	_, err := Predict(series, bad)
	assert.ErrorIs(t, err, timeseries.ErrInvalidSplit)

	bad = opts
	bad.Future = 0
	_, err = Predict(series, bad)
	assert.ErrorIs(t, err, arima.ErrInvalidHorizon)

	bad = opts
	bad.ParamAlpha = 1
	_, err = Predict(series, bad)
	assert.ErrorIs(t, err, arima.ErrInvalidConfidence)
}

func TestAccuracy(t *testing.T) {
	acc := accuracy([]float64{1, 2}, []float64{2, 2})
	assert.InDelta(t, 0.5, acc.MAE, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), acc.RMSE, 1e-12)
	assert.InDelta(t, 25, acc.MAPE, 1e-12)

	assert.True(t, math.IsNaN(accuracy([]float64{1}, []float64{0}).MAPE))
}

func TestSigmaInterval(t *testing.T) {
	s := sigmaInterval([]arima.ParamInterval{{Name: "sigma2", Value: 4, Lower: 1, Upper: 9}})
	assert.Equal(t, SigmaInterval{Value: 2, Lower: 1, Upper: 3}, s)

	s = sigmaInterval([]arima.ParamInterval{{Name: "sigma2", Value: 4, Lower: -1, Upper: 9}})
	assert.Equal(t, 2.0, s.Value)
	assert.True(t, math.IsNaN(s.Lower))
}

func TestDiagnose(t *testing.T) {
	d, err := Diagnose(national(t), arima.Config{Order: arima.Order{P: 1, D: 1}}, diagnostics.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, d.Report.LjungBox, 2)
	assert.Equal(t, 12, d.Report.LjungBox[0].Lag)
	assert.Equal(t, 47, d.Report.Residuals.Len())
	for _, lt := range d.Report.LjungBox {
		assert.GreaterOrEqual(t, lt.PValue, 0.0)
		assert.LessOrEqual(t, lt.PValue, 1.0)
	}

	_, err = Diagnose(national(t), arima.Config{Order: arima.Order{P: -1}}, diagnostics.DefaultOptions())
	assert.ErrorIs(t, err, arima.ErrInvalidOrder)
}

func TestCheckNormality(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	values := make([]float64, 60)
	level := 1000.0
	for i := range values {
		level *= math.Exp(0.01 + 0.02*rng.NormFloat64())
		values[i] = level
	}
	series := timeseries.New(values)
	series.Name = "ITEMS"

	check, err := CheckNormality(series, NormalityOptions{})
	require.NoError(t, err)
	assert.Equal(t, 59, check.LogDiff.Len())
	assert.Equal(t, "ITEMS_log_diff", check.LogDiff.Name)
	assert.InDelta(t, math.Log(values[1]/values[0]), check.LogDiff.Values[0], 1e-12)

	require.NotNil(t, check.Normality)
	assert.Greater(t, check.Normality.PValue, 0.01)
	require.Len(t, check.LjungBox, 1)
	assert.Equal(t, 20, check.LjungBox[0].Lag)
	assert.Len(t, check.ACF.Values, 13)
	assert.Len(t, check.QQ, 59)

	values[10] = 0
	_, err = CheckNormality(timeseries.New(values), NormalityOptions{})
	assert.ErrorIs(t, err, ErrNonPositive)
}

func TestSelectOrder(t *testing.T) {
	cfg := autoarima.DefaultConfig()
	cfg.MaxP, cfg.MaxQ = 1, 1
	cfg.Stepwise = false

	sel, err := SelectOrder(national(t), cfg, diagnostics.DefaultOptions())
	require.NoError(t, err)
	assert.NotNil(t, sel.Model)
	assert.Equal(t, sel.Model.Config, sel.Config)
	assert.NotEmpty(t, sel.Report.LjungBox)
}
