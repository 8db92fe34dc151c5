// Package prescribing loads regional drug summary records and aggregates
// them into monthly series, annual totals, region pivots and rankings.
//
// # Loading
//
// The CSV encoding must be declared; there is no platform default:
//
//	opts := prescribing.DefaultCSVOptions()
//	opts.Encoding = "windows-1252"
//	records, err := prescribing.LoadCSV("regional_drug_summary.csv", opts)
//
// Parquet files and Postgres tables with the same columns are also supported:
//
//	records, err := prescribing.LoadParquet("summary.parquet")
//	records, err := prescribing.LoadPostgres(ctx, conn, "public.drug_summary")
//
// # Aggregation
//
//	monthly, err := prescribing.MonthlySeries(records, prescribing.Items)
//	annual := prescribing.AnnualTotals(records, prescribing.Cost)
//	pivot := prescribing.RegionPivot(records, prescribing.Items)
//	top := prescribing.TopSubstances(records, prescribing.Items, 5)
//
// MonthlySeries fails with ErrEmptyInput when given no records.
package prescribing
