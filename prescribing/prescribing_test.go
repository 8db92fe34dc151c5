package prescribing

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/rxforecast/timeseries"
)

const sampleCSV = `YEAR,YEAR_MONTH,REGION_NAME,BNF_CHEMICAL_SUBSTANCE,ITEMS,COST
2022,202212,NORTH WEST,Sertraline hydrochloride,100,250.50
2023,202301,NORTH WEST,Sertraline hydrochloride,110,260.00
2023,202301,LONDON,Sertraline hydrochloride,90,200.00
2023,202301,LONDON,Citalopram hydrobromide,40,80.25
2023,202302,LONDON,Citalopram hydrobromide,45,85.00
2022,202212,LONDON,Mirtazapine,30,120.00
`

func sampleRecords(t *testing.T) []Record {
	t.Helper()
	records, err := ReadCSV(strings.NewReader(sampleCSV), DefaultCSVOptions())
	require.NoError(t, err)
	require.Len(t, records, 6)
	return records
}

func TestReadCSV(t *testing.T) {
	records := sampleRecords(t)

	first := records[0]
	assert.Equal(t, 2022, first.Year)
	assert.Equal(t, timeseries.Period(202212), first.Period)
	assert.Equal(t, "NORTH WEST", first.Region)
	assert.Equal(t, "Sertraline hydrochloride", first.Substance)
	assert.Equal(t, 100.0, first.Items)
	assert.Equal(t, 250.50, first.Cost)
}

func TestReadCSVEncoding(t *testing.T) {
	// Latin-1 bytes: 0xE9 is e-acute and 0xA3 is the pound sign.
	data := []byte("YEAR_MONTH,REGION_NAME,ITEMS,COST\n202301,Caf\xe9 \xa3,1,2\n")

	_, err := ReadCSV(bytes.NewReader(data), &CSVOptions{})
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	_, err = ReadCSV(bytes.NewReader(data), &CSVOptions{Encoding: "klingon"})
	assert.ErrorIs(t, err, ErrUnknownEncoding)

	records, err := ReadCSV(bytes.NewReader(data), &CSVOptions{Encoding: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Café £", records[0].Region)
	assert.Equal(t, 2023, records[0].Year, "year derives from the period when the column is absent")
}

func TestReadCSVStripsBOM(t *testing.T) {
	data := "\ufeffYEAR_MONTH,ITEMS,COST\n202301,1,2\n"

	records, err := ReadCSV(strings.NewReader(data), DefaultCSVOptions())
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("YEAR_MONTH,ITEMS\n202301,1\n"), DefaultCSVOptions())
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadCSV(strings.NewReader("YEAR_MONTH,ITEMS,COST\n202301,x,1\n"), DefaultCSVOptions())
	assert.ErrorContains(t, err, "row 2")

	_, err = ReadCSV(strings.NewReader("YEAR_MONTH,ITEMS,COST\n2023-01,1,1\n"), DefaultCSVOptions())
	assert.Error(t, err)
}

func TestMonthlySeries(t *testing.T) {
	records := sampleRecords(t)

	series, err := MonthlySeries(records, Items)
	require.NoError(t, err)

	assert.Equal(t, "ITEMS", series.Name)
	assert.Equal(t, []timeseries.Period{202212, 202301, 202302}, series.Periods)
	assert.Equal(t, []float64{130, 240, 45}, series.Values)

	cost, err := MonthlySeries(records, Cost)
	require.NoError(t, err)
	assert.InDelta(t, 370.50, cost.Values[0], 1e-9)
}

func TestMonthlySeriesIdempotent(t *testing.T) {
	series, err := MonthlySeries(sampleRecords(t), Items)
	require.NoError(t, err)

	again, err := MonthlySeries(RecordsFromSeries(series, Items), Items)
	require.NoError(t, err)
	assert.Equal(t, series.Periods, again.Periods)
	assert.Equal(t, series.Values, again.Values)
}

func TestMonthlySeriesEmpty(t *testing.T) {
	_, err := MonthlySeries(nil, Items)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAnnualTotals(t *testing.T) {
	totals := AnnualTotals(sampleRecords(t), Items)

	assert.Equal(t, []YearTotal{{Year: 2022, Total: 130}, {Year: 2023, Total: 285}}, totals)
}

func TestRegionPivot(t *testing.T) {
	records := sampleRecords(t)
	pivot := RegionPivot(records, Items)

	assert.Equal(t, []int{2022, 2023}, pivot.Years)
	assert.Equal(t, []string{"LONDON", "NORTH WEST"}, pivot.Regions)
	assert.Equal(t, 30.0, pivot.At(2022, "LONDON"))
	assert.Equal(t, 175.0, pivot.At(2023, "LONDON"))
	assert.Equal(t, 0.0, pivot.At(1999, "LONDON"))
	assert.Equal(t, 30.0, pivot.Min())
	assert.Equal(t, 175.0, pivot.Max())

	annual := AnnualTotals(records, Items)
	for i, yt := range annual {
		assert.Equal(t, yt.Total, pivot.RowTotal(i))
	}
}

func TestTopSubstances(t *testing.T) {
	records := sampleRecords(t)

	top := TopSubstances(records, Items, 2)
	assert.Equal(t, []Ranked{
		{Name: "Sertraline hydrochloride", Total: 300},
		{Name: "Citalopram hydrobromide", Total: 85},
	}, top)

	all := TopSubstances(records, Cost, 0)
	assert.Len(t, all, 3)
	assert.Equal(t, "Sertraline hydrochloride", all[0].Name)
}

func TestMonthlyBySubstance(t *testing.T) {
	bySub := MonthlyBySubstance(sampleRecords(t), Items, []string{"Citalopram hydrobromide", "Missing"})

	require.Contains(t, bySub, "Citalopram hydrobromide")
	assert.NotContains(t, bySub, "Missing")
	assert.Equal(t, []float64{40, 45}, bySub["Citalopram hydrobromide"].Values)
}

func TestParseMeasure(t *testing.T) {
	m, err := ParseMeasure("COST")
	require.NoError(t, err)
	assert.Equal(t, Cost, m)
	assert.Equal(t, "COST", m.String())

	_, err = ParseMeasure("volume")
	assert.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	records := sampleRecords(t)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, records))

	back, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, records, back)
}

func TestPostgresQuery(t *testing.T) {
	sql, err := PostgresQuery("public.drug_summary")
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "public"."drug_summary"`)

	for _, bad := range []string{"", "a.b.c", "drop table x;", "1abc"} {
		_, err := PostgresQuery(bad)
		assert.ErrorIs(t, err, ErrInvalidTable, bad)
	}

	_, err = LoadPostgres(context.Background(), nil, "x;--")
	assert.ErrorIs(t, err, ErrInvalidTable)
}
