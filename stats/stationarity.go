package stats

import (
	"math"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/rxforecast/timeseries"
)

// Regression selects the deterministic terms removed before a KPSS test.
type Regression string

const (
	// Level tests stationarity around a constant.
	Level Regression = "c"
	// Trend tests stationarity around a linear trend.
	Trend Regression = "ct"
)

// KPSS critical values at 10%, 5%, 2.5% and 1%.
var (
	kpssPValues    = []float64{0.10, 0.05, 0.025, 0.01}
	kpssLevelCrit  = []float64{0.347, 0.463, 0.574, 0.739}
	kpssTrendCrit  = []float64{0.119, 0.146, 0.176, 0.216}
	kpssSignifKeys = []string{"10%", "5%", "2.5%", "1%"}
)

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test for stationarity.
// The null hypothesis is that the series is stationary. The p-value is
// interpolated from the critical value table and so lies in [0.01, 0.10].
// nlags <= 0 selects 12*(n/100)^(1/4) lags. Returns nil for fewer than 10
// observations.
func KPSS(series *timeseries.Series, regression Regression, nlags int) *KPSSResult {
	n := series.Len()
	if n < 10 {
		return nil
	}
	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	residuals := make([]float64, n)
	switch regression {
	case Trend:
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i)
		}
		a, b := stat.LinearRegression(t, series.Values, nil, false)
		for i, v := range series.Values {
			residuals[i] = v - a - b*t[i]
		}
	default:
		regression = Level
		mean := series.Mean()
		for i, v := range series.Values {
			residuals[i] = v - mean
		}
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(nlags+1)) * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	eta := 0.0
	cum := 0.0
	for _, r := range residuals {
		cum += r
		eta += cum * cum
	}
	kpssStat := eta / (float64(n) * float64(n) * s2)

	crit := kpssLevelCrit
	if regression == Trend {
		crit = kpssTrendCrit
	}
	criticalVals := make(map[string]float64, len(crit))
	for i, c := range crit {
		criticalVals[kpssSignifKeys[i]] = c
	}

	pValue := kpssPValue(kpssStat, crit)

	return &KPSSResult{
		Statistic:    kpssStat,
		PValue:       pValue,
		Lags:         nlags,
		CriticalVals: criticalVals,
		IsStationary: pValue >= 0.05,
	}
}

func kpssPValue(statistic float64, crit []float64) float64 {
	if statistic <= crit[0] {
		return kpssPValues[0]
	}
	if statistic >= crit[len(crit)-1] {
		return kpssPValues[len(kpssPValues)-1]
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(crit, kpssPValues); err != nil {
		return math.NaN()
	}
	return pl.Predict(statistic)
}

// NDiffs returns the number of first differences, at most maxD, after which
// KPSS no longer rejects level stationarity at level alpha.
func NDiffs(series *timeseries.Series, maxD int, alpha float64) int {
	if maxD <= 0 {
		maxD = 2
	}
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.05
	}

	current := series
	for d := 0; d < maxD; d++ {
		result := KPSS(current, Level, 0)
		if result == nil || result.PValue >= alpha {
			return d
		}
		current = current.Diff()
	}

	return maxD
}
