package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sartorproj/rxforecast/arima"
	"github.com/sartorproj/rxforecast/diagnostics"
	"github.com/sartorproj/rxforecast/internal/analysis"
	"github.com/sartorproj/rxforecast/internal/logging"
	"github.com/sartorproj/rxforecast/prescribing"
	"github.com/sartorproj/rxforecast/render"
	"github.com/sartorproj/rxforecast/report"
	"github.com/sartorproj/rxforecast/timeseries"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "National monthly totals of the selected measure",
	Args:  cobra.NoArgs,
	RunE:  runMonthly,
}

var annualCmd = &cobra.Command{
	Use:   "annual",
	Short: "Items and cost per year",
	Args:  cobra.NoArgs,
	RunE:  runAnnual,
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Year by region pivots of items and cost, with an Excel workbook",
	Args:  cobra.NoArgs,
	RunE:  runRegions,
}

var topDrugsCmd = &cobra.Command{
	Use:   "top-drugs",
	Short: "Largest substances by items and by cost, with their monthly trends",
	Args:  cobra.NoArgs,
	RunE:  runTopDrugs,
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Fit the configured model to the whole series",
	Args:  cobra.NoArgs,
	RunE:  runEstimate,
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Hold out the last months, fit once and forecast with layered intervals",
	Long: `Holds out the last test_size months, fits the configured model to the
rest and forecasts test_size+future months in one pass. The chart shows the
test window against the held-out data and the future window past the last
observation, each with one band per confidence level.`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Residual diagnostics of the configured model",
	Args:  cobra.NoArgs,
	RunE:  runDiagnose,
}

var normalityCmd = &cobra.Command{
	Use:   "normality",
	Short: "Check whether monthly log growth looks like independent normal draws",
	Args:  cobra.NoArgs,
	RunE:  runNormality,
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Search for the ARIMA order with the best information criterion",
	Args:  cobra.NoArgs,
	RunE:  runSelect,
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the effective configuration as YAML",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInitConfig,
}

var (
	topN       int
	period     int
	criterion  string
	exhaustive bool
	force      bool
)

func init() {
	topDrugsCmd.Flags().IntVarP(&topN, "top", "n", 0, "Number of substances to rank (default from config)")

	selectCmd.Flags().IntVar(&period, "period", 0, "Seasonal period to search, 0 for none")
	selectCmd.Flags().StringVar(&criterion, "criterion", "", "Selection criterion: aicc, aic or bic")
	selectCmd.Flags().BoolVar(&exhaustive, "exhaustive", false, "Fit every order in the grid instead of a stepwise search")

	initConfigCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
}

func section(cmd *cobra.Command, title, body string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(title))
	fmt.Fprintln(out, body)
}

func loadRecords(cmd *cobra.Command) ([]prescribing.Record, error) {
	src := analysis.Source{
		Format:    cfg.InputFormat(),
		Path:      cfg.Input.Path,
		CSV:       cfg.CSVOptions(),
		Postgres:  cfg.Input.Postgres,
		Table:     cfg.Input.Table,
		Substance: cfg.Input.Substance,
		Region:    cfg.Input.Region,
	}

	done := logging.Stage(logger, "load")
	records, err := analysis.Load(cmd.Context(), src)
	if err != nil {
		return nil, fmt.Errorf("load %s input: %w", src.Format, err)
	}
	done(zap.String("format", src.Format), zap.Int("records", len(records)))
	return records, nil
}

func loadSeries(cmd *cobra.Command) (*timeseries.Series, prescribing.Measure, error) {
	m, err := cfg.Measure()
	if err != nil {
		return nil, 0, err
	}
	records, err := loadRecords(cmd)
	if err != nil {
		return nil, 0, err
	}
	series, err := prescribing.MonthlySeries(records, m)
	if err != nil {
		return nil, 0, err
	}
	logger.Info("Aggregated monthly series",
		zap.Stringer("measure", m),
		zap.Int("months", series.Len()),
		zap.Stringer("first", series.Periods[0]),
		zap.Stringer("last", series.Periods[series.Len()-1]))
	warnGaps(logger, series)
	return series, m, nil
}

// warnGaps logs the months missing from series. Models treat consecutive
// observations as one month apart.
func warnGaps(log *zap.Logger, series *timeseries.Series) {
	if series.Contiguous() {
		return
	}
	var missing []string
	for i := 1; i < series.Len(); i++ {
		for p := series.Periods[i-1].Next(); p < series.Periods[i]; p = p.Next() {
			missing = append(missing, p.String())
		}
	}
	log.Warn("Series has gaps between months",
		zap.String("series", series.Name),
		zap.Int("missing", len(missing)),
		zap.Strings("months", missing))
}

func outputDir() error {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

// chart draws one chart. A chart with nothing to draw is skipped with a
// warning.
func chart(name string, draw func(path string) error) error {
	path := cfg.ChartPath(name)
	if err := draw(path); err != nil {
		if errors.Is(err, render.ErrNoData) {
			logger.Warn("Skipped chart", zap.String("chart", name), zap.Error(err))
			return nil
		}
		return fmt.Errorf("chart %s: %w", name, err)
	}
	logger.Info("Wrote chart", zap.String("path", path))
	return nil
}

func writeRun(command string, result any) error {
	if !cfg.Output.JSON {
		return nil
	}
	path := filepath.Join(cfg.Output.Dir, command+".json")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	run := report.NewRun(command, result)
	if err := report.WriteJSON(f, run); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logger.Info("Wrote JSON", zap.String("path", path), zap.Stringer("run_id", run.ID))
	return nil
}

func lower(m prescribing.Measure) string {
	return strings.ToLower(m.String())
}

func runMonthly(cmd *cobra.Command, args []string) error {
	m, err := cfg.Measure()
	if err != nil {
		return err
	}
	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}
	monthly, err := analysis.MonthlyTrend(records, m)
	if err != nil {
		return err
	}
	if err := outputDir(); err != nil {
		return err
	}

	section(cmd, "Monthly "+m.String(), report.MonthlyTable(monthly.Series, m))
	s := monthly.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "mean %.2f  sd %.2f  min %.2f  median %.2f  max %.2f\n",
		s.Mean, s.Std, s.Min, s.Median, s.Max)

	err = chart("monthly_"+lower(m), func(path string) error {
		return render.TrendChart(path, "Monthly "+m.String(), m.String(),
			map[string]*timeseries.Series{m.String(): monthly.Series}, render.Size{})
	})
	if err != nil {
		return err
	}
	return writeRun("monthly", map[string]any{
		"measure": m.String(),
		"periods": monthly.Series.Periods,
		"values":  monthly.Series.Values,
	})
}

func runAnnual(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}
	annual, err := analysis.AnnualSummary(records)
	if err != nil {
		return err
	}
	if err := outputDir(); err != nil {
		return err
	}

	for _, part := range []struct {
		measure prescribing.Measure
		totals  []prescribing.YearTotal
	}{{prescribing.Items, annual.Items}, {prescribing.Cost, annual.Cost}} {
		title := "Annual " + part.measure.String()
		section(cmd, title, report.AnnualTable(part.totals, part.measure))
		err := chart("annual_"+lower(part.measure), func(path string) error {
			return render.AnnualBarChart(path, title, part.measure.String(), part.totals, render.Size{})
		})
		if err != nil {
			return err
		}
	}
	return writeRun("annual", annual)
}

func runRegions(cmd *cobra.Command, args []string) error {
	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}
	pivots, err := analysis.RegionTables(records)
	if err != nil {
		return err
	}
	if err := outputDir(); err != nil {
		return err
	}

	section(cmd, "ITEMS by year and region", report.PivotTable(pivots.Items))
	section(cmd, "COST by year and region", report.PivotTable(pivots.Cost))

	path := filepath.Join(cfg.Output.Dir, "regions.xlsx")
	err = report.WritePivotWorkbook(path,
		report.SheetPivot{Sheet: "Items", Pivot: pivots.Items},
		report.SheetPivot{Sheet: "Cost", Pivot: pivots.Cost},
	)
	if err != nil {
		return fmt.Errorf("workbook: %w", err)
	}
	logger.Info("Wrote workbook", zap.String("path", path), zap.Int("regions", len(pivots.Items.Regions)))
	return writeRun("regions", pivots)
}

func runTopDrugs(cmd *cobra.Command, args []string) error {
	n := cfg.Input.TopN
	if cmd.Flags().Changed("top") {
		n = topN
	}
	records, err := loadRecords(cmd)
	if err != nil {
		return err
	}
	byItems, byCost, err := analysis.TopDrugs(records, n)
	if err != nil {
		return err
	}
	if err := outputDir(); err != nil {
		return err
	}

	for _, top := range []*analysis.Top{byItems, byCost} {
		name := top.Measure.String()
		section(cmd, fmt.Sprintf("Top %d substances by %s", len(top.Ranked), name), report.RankedTable(top.Ranked, top.Measure))
		err := chart("top_"+lower(top.Measure), func(path string) error {
			return render.TrendChart(path, fmt.Sprintf("Monthly %s trend for top substances", name), name, top.Trends, render.Size{})
		})
		if err != nil {
			return err
		}
	}
	return writeRun("top-drugs", map[string]any{"items": byItems.Ranked, "cost": byCost.Ranked})
}

func runEstimate(cmd *cobra.Command, args []string) error {
	series, m, err := loadSeries(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.ArimaConfig()
	if err != nil {
		return err
	}

	done := logging.Stage(logger, "fit")
	fitted, err := analysis.Estimate(series, model)
	if err != nil {
		return err
	}
	done(zap.Stringer("model", model), zap.Int("iterations", fitted.Iterations), zap.Float64("aicc", fitted.AICc))

	if err := outputDir(); err != nil {
		return err
	}
	section(cmd, "Model", report.ModelTable(fitted))
	params, err := report.ParamTable(fitted, cfg.Forecast.ParamAlpha)
	if err != nil {
		return err
	}
	section(cmd, "Parameters", params)

	err = chart("fit_"+lower(m), func(path string) error {
		return render.FitChart(path, model.String(), fitted, render.Size{})
	})
	if err != nil {
		return err
	}

	doc, err := report.NewModelDoc(fitted, cfg.Forecast.ParamAlpha)
	if err != nil {
		return err
	}
	return writeRun("estimate", doc)
}

func runPredict(cmd *cobra.Command, args []string) error {
	series, m, err := loadSeries(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.ArimaConfig()
	if err != nil {
		return err
	}

	done := logging.Stage(logger, "predict")
	pred, err := analysis.Predict(series, analysis.PredictOptions{
		Model:      model,
		TestSize:   cfg.Forecast.TestSize,
		Future:     cfg.Forecast.Future,
		Levels:     cfg.Forecast.Levels,
		ParamAlpha: cfg.Forecast.ParamAlpha,
	})
	if err != nil {
		return err
	}
	done(zap.Stringer("model", model),
		zap.Int("train_size", pred.Train.Len()),
		zap.Int("test_size", pred.Test.Len()),
		zap.Float64("rmse", pred.Accuracy.RMSE))

	if err := outputDir(); err != nil {
		return err
	}

	pct := math.Round(1000*(1-cfg.Forecast.ParamAlpha)) / 10
	section(cmd, "Model", report.ModelTable(pred.Model))
	params, err := report.ParamTable(pred.Model, cfg.Forecast.ParamAlpha)
	if err != nil {
		return err
	}
	section(cmd, fmt.Sprintf("Parameter estimates (%g%% CI)", pct), params)
	fmt.Fprintf(cmd.OutOrStdout(), "sigma = %.4f (%g%% CI: %.4f, %.4f)\n", pred.Sigma.Value, pct, pred.Sigma.Lower, pred.Sigma.Upper)

	section(cmd, "Test window", report.ForecastTable(pred.Window, pred.Test))
	a := pred.Accuracy
	fmt.Fprintf(cmd.OutOrStdout(), "MAE %.2f  RMSE %.2f  MAPE %.2f%%\n", a.MAE, a.RMSE, a.MAPE)
	section(cmd, "Future window", report.ForecastTable(pred.Future, nil))

	err = chart("predict_"+lower(m), func(path string) error {
		return render.ForecastChart(path, render.ForecastView{
			Title:   model.String() + " with layered confidence intervals",
			YLabel:  m.String(),
			Train:   pred.Train,
			Test:    pred.Test,
			Windows: []*arima.Forecast{pred.Window, pred.Future},
		})
	})
	if err != nil {
		return err
	}

	doc, err := report.NewModelDoc(pred.Model, cfg.Forecast.ParamAlpha)
	if err != nil {
		return err
	}
	return writeRun("predict", map[string]any{
		"model":    doc,
		"test":     report.NewForecastDoc(pred.Window),
		"future":   report.NewForecastDoc(pred.Future),
		"accuracy": map[string]report.Float{
			"mae":  report.Float(a.MAE),
			"rmse": report.Float(a.RMSE),
			"mape": report.Float(a.MAPE),
		},
		"sigma": map[string]report.Float{
			"value": report.Float(pred.Sigma.Value),
			"lower": report.Float(pred.Sigma.Lower),
			"upper": report.Float(pred.Sigma.Upper),
		},
	})
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	series, m, err := loadSeries(cmd)
	if err != nil {
		return err
	}
	model, err := cfg.DiagnosticsModel()
	if err != nil {
		return err
	}

	done := logging.Stage(logger, "diagnose")
	d, err := analysis.Diagnose(series, model, cfg.DiagnosticsOptions())
	if err != nil {
		return err
	}
	alpha := cfg.Diagnostics.Alpha
	done(zap.Stringer("model", model), zap.Bool("adequate", d.Report.Adequate(alpha)))

	if err := outputDir(); err != nil {
		return err
	}
	section(cmd, "Model", report.ModelTable(d.Model))
	printDiagnostics(cmd, d.Report.LjungBox, d.Report.Normality, alpha)
	fmt.Fprintf(cmd.OutOrStdout(), "Durbin-Watson %.4f\n", d.Report.DurbinWatson)
	if d.Report.Adequate(alpha) {
		fmt.Fprintln(cmd.OutOrStdout(), "No evidence of remaining autocorrelation.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Residuals show autocorrelation; consider another order.")
	}

	if err := residualCharts(lower(m), model.String(), d.Report); err != nil {
		return err
	}
	return writeRun("diagnose", report.NewDiagnosticsDoc(d.Report, alpha))
}

func printDiagnostics(cmd *cobra.Command, lb []diagnostics.LagTest, normal *diagnostics.NormalityResult, alpha float64) {
	if len(lb) > 0 {
		section(cmd, "Ljung-Box", report.LjungBoxTable(lb))
	}
	if normal == nil {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Shapiro-Wilk: W=%.4f, p-value=%.4f\n", normal.W, normal.PValue)
	if normal.PValue < alpha {
		fmt.Fprintf(out, "Reject normality at the %g%% level.\n", 100*alpha)
	} else {
		fmt.Fprintf(out, "Cannot reject normality at the %g%% level.\n", 100*alpha)
	}
}

func residualCharts(prefix, title string, r *diagnostics.Report) error {
	charts := []struct {
		name string
		draw func(path string) error
	}{
		{"resid_" + prefix, func(path string) error {
			return render.ResidualChart(path, "Residuals of "+title, r.Residuals, render.Size{})
		}},
		{"resid_acf_" + prefix, func(path string) error {
			return render.CorrelogramChart(path, "ACF of residuals", r.ACF, render.Size{})
		}},
		{"resid_pacf_" + prefix, func(path string) error {
			return render.CorrelogramChart(path, "PACF of residuals", r.PACF, render.Size{})
		}},
		{"resid_qq_" + prefix, func(path string) error {
			return render.QQChart(path, "QQ plot of residuals", r.QQ, render.Size{})
		}},
		{"resid_hist_" + prefix, func(path string) error {
			return render.HistogramChart(path, "Histogram of residuals", r.Residuals.Values, cfg.Diagnostics.Bins, render.Size{})
		}},
	}
	for _, c := range charts {
		if err := chart(c.name, c.draw); err != nil {
			return err
		}
	}
	return nil
}

func runNormality(cmd *cobra.Command, args []string) error {
	series, m, err := loadSeries(cmd)
	if err != nil {
		return err
	}
	check, err := analysis.CheckNormality(series, analysis.NormalityOptions{MaxLag: cfg.Diagnostics.ACFLags})
	if err != nil {
		return err
	}
	if err := outputDir(); err != nil {
		return err
	}

	s := check.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "Log differences: n=%d mean=%.5f sd=%.5f\n", s.N, s.Mean, s.Std)
	printDiagnostics(cmd, check.LjungBox, check.Normality, cfg.Diagnostics.Alpha)

	prefix := "dy_" + lower(m)
	charts := []struct {
		name string
		draw func(path string) error
	}{
		{prefix + "_histogram", func(path string) error {
			return render.HistogramChart(path, "Histogram of log differences", check.LogDiff.Values, cfg.Diagnostics.Bins, render.Size{})
		}},
		{prefix + "_qq", func(path string) error {
			return render.QQChart(path, "QQ plot of log differences", check.QQ, render.Size{})
		}},
		{prefix + "_acf", func(path string) error {
			return render.CorrelogramChart(path, "ACF of log differences", check.ACF, render.Size{})
		}},
		{prefix + "_pacf", func(path string) error {
			return render.CorrelogramChart(path, "PACF of log differences", check.PACF, render.Size{})
		}},
	}
	for _, c := range charts {
		if err := chart(c.name, c.draw); err != nil {
			return err
		}
	}

	result := map[string]any{"n": s.N, "mean": s.Mean, "std": s.Std}
	if check.Normality != nil {
		result["shapiro_w"] = check.Normality.W
		result["shapiro_p"] = check.Normality.PValue
	}
	return writeRun("normality", result)
}

func runSelect(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("period") {
		cfg.Selection.Period = period
	}
	if cmd.Flags().Changed("criterion") {
		cfg.Selection.Criterion = criterion
	}
	if exhaustive {
		cfg.Selection.Stepwise = false
	}
	auto, err := cfg.AutoConfig()
	if err != nil {
		return err
	}

	series, m, err := loadSeries(cmd)
	if err != nil {
		return err
	}

	done := logging.Stage(logger, "select")
	sel, err := analysis.SelectOrder(series, auto, cfg.DiagnosticsOptions())
	if err != nil {
		return err
	}
	done(zap.Stringer("model", sel.Config), zap.Int("fits", sel.ModelsEvaluated), zap.Float64("score", sel.Score))

	if err := outputDir(); err != nil {
		return err
	}
	section(cmd, "Candidates", report.CandidateTable(sel.Result))
	section(cmd, "Selected model", report.ModelTable(sel.Model))
	printDiagnostics(cmd, sel.Report.LjungBox, sel.Report.Normality, cfg.Diagnostics.Alpha)

	if err := residualCharts("select_"+lower(m), sel.Config.String(), sel.Report); err != nil {
		return err
	}
	return writeRun("select", report.NewSelectionDoc(sel.Result))
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	path := cfgPath
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	logger.Info("Wrote configuration", zap.String("path", path))
	return nil
}
