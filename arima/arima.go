package arima

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/sartorproj/rxforecast/stats"
	"github.com/sartorproj/rxforecast/timeseries"
)

// Model is a fitted regression with (seasonal) ARIMA errors. It is created
// by Fit and is read-only afterwards.
type Model struct {
	Config Config

	Trend  []float64 // const and/or linear trend coefficients, in that order
	AR     []float64 // AR coefficients (phi)
	MA     []float64 // MA coefficients (theta)
	SAR    []float64 // Seasonal AR coefficients
	SMA    []float64 // Seasonal MA coefficients
	Sigma2 float64   // Innovation variance
	LogLik float64
	AIC    float64
	AICc   float64 // Corrected AIC for small sample sizes
	BIC    float64
	NObs   int // Observations entering the likelihood

	Iterations int // Optimiser iterations, 0 when no optimisation was needed

	stdErr []float64

	data      *timeseries.Series
	steps     []int       // lag of each differencing step, non-seasonal first
	ladder    [][]float64 // ladder[k] is the training series after k steps
	est       *estimator
	params    []float64
	residuals []float64
}

// Fit estimates cfg on train by conditional maximum likelihood.
func Fit(train *timeseries.Series, cfg Config) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}

	n := train.Len()
	if n <= cfg.arLags()+cfg.lost() {
		return nil, fmt.Errorf("%w: %d observations for %s", ErrInsufficientData, n, cfg)
	}

	m := &Model{
		Config: cfg,
		data:   train.Copy(),
	}
	if len(m.data.Periods) != n {
		// Forecast and residual dates count on from the last training period.
		synthetic := timeseries.New(m.data.Values)
		synthetic.Name = m.data.Name
		m.data = synthetic
	}
	for range cfg.Order.D {
		m.steps = append(m.steps, 1)
	}
	for range cfg.Seasonal.D {
		m.steps = append(m.steps, cfg.Seasonal.S)
	}
	m.ladder = differenceLadder(m.data.Values, m.steps)
	w := m.ladder[len(m.ladder)-1]

	x, err := m.design(n)
	if err != nil {
		return nil, err
	}
	m.est = newEstimator(cfg, w, x)

	if err := m.estimate(); err != nil {
		return nil, err
	}

	m.residuals = m.est.residuals(m.params)
	m.NObs = m.est.nEff()
	if m.Sigma2 > 0 {
		m.LogLik = m.est.logLik(m.params)
	} else {
		m.LogLik = math.Inf(1)
	}
	ic := stats.CalculateIC(m.LogLik, m.NObs, m.est.numParams()+1)
	m.AIC, m.AICc, m.BIC = ic.AIC, ic.AICc, ic.BIC

	beta, ar, sar, ma, sma := m.est.split(m.params)
	m.Trend, m.AR, m.SAR, m.MA, m.SMA = beta, ar, sar, ma, sma
	m.stdErr = m.standardErrors()

	return m, nil
}

// estimate sets params and Sigma2.
func (m *Model) estimate() error {
	e := m.est

	beta := ols(e.w, e.x)
	u := e.demean(beta)
	if floats.Norm(u, math.Inf(1)) <= 1e-10*math.Max(1, floats.Norm(e.w, math.Inf(1))) {
		// Perfect fit: nothing left for the ARMA part to explain.
		m.params = make([]float64, e.numParams())
		copy(m.params, beta)
		m.Sigma2 = 0
		return nil
	}

	if e.numARMA() == 0 {
		// Ordinary least squares is the exact likelihood solution.
		m.params = beta
		m.Sigma2 = e.sse(e.residuals(beta)) / float64(e.nEff())
		return nil
	}

	// Optimise on a unit-scale copy so the simplex steps suit every parameter.
	scale := floats.Norm(e.w, 2) / math.Sqrt(float64(len(e.w)))
	scaledW := make([]float64, len(e.w))
	floats.ScaleTo(scaledW, 1/scale, e.w)
	scaled := &estimator{w: scaledW, x: e.x, p: e.p, q: e.q, sp: e.sp, sq: e.sq, s: e.s, start: e.start}

	start := make([]float64, e.numParams())
	_, ar, sar, _, _ := scaled.split(start)
	for j, b := range beta {
		start[j] = b / scale
	}
	copy(ar, yuleWalkerStart(u, e.p, 1))
	copy(sar, yuleWalkerStart(u, e.sp, e.s))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			ll := scaled.logLik(scaled.constrain(x))
			if math.IsNaN(ll) || math.IsInf(ll, 0) {
				return math.Inf(1)
			}
			return -ll
		},
	}
	settings := &optimize.Settings{
		MajorIterations: m.Config.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 100,
		},
	}

	result, err := optimize.Minimize(problem, scaled.unconstrain(start), settings, &optimize.NelderMead{})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConvergence, err)
	}
	if result.Status.Early() || math.IsInf(result.F, 0) || math.IsNaN(result.F) {
		return fmt.Errorf("%w: %s after %d iterations", ErrConvergence, result.Status, result.MajorIterations)
	}

	m.Iterations = result.MajorIterations
	m.params = scaled.constrain(result.X)
	for j := range e.x {
		m.params[j] *= scale
	}
	m.Sigma2 = e.sse(e.residuals(m.params)) / float64(e.nEff())
	return nil
}

// standardErrors inverts the numerical Hessian of the negative
// log-likelihood. Entries are NaN when the Hessian is not positive
// definite. The last entry belongs to sigma2.
func (m *Model) standardErrors() []float64 {
	k := len(m.params)
	se := make([]float64, k+1)
	for i := range se {
		se[i] = math.NaN()
	}
	if m.Sigma2 == 0 {
		return se
	}
	se[k] = math.Sqrt(2 * m.Sigma2 * m.Sigma2 / float64(m.NObs))
	if k == 0 {
		return se
	}

	var hess mat.SymDense
	fd.Hessian(&hess, func(x []float64) float64 {
		return -m.est.logLik(x)
	}, m.params, &fd.Settings{Formula: fd.Central})

	var chol mat.Cholesky
	if ok := chol.Factorize(&hess); !ok {
		return se
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return se
	}
	for i := range k {
		if v := cov.At(i, i); v >= 0 {
			se[i] = math.Sqrt(v)
		}
	}
	return se
}

// design builds the trend regressors for time indices 1..total and passes
// them through the differencing steps.
func (m *Model) design(total int) ([][]float64, error) {
	var cols [][]float64
	if m.Config.Trend.hasConstant() {
		col := make([]float64, total)
		for i := range col {
			col[i] = 1
		}
		cols = append(cols, col)
	}
	if m.Config.Trend.hasLinear() {
		col := make([]float64, total)
		for i := range col {
			col[i] = float64(i + 1)
		}
		cols = append(cols, col)
	}

	out := make([][]float64, len(cols))
	for j, col := range cols {
		ladder := differenceLadder(col, m.steps)
		out[j] = ladder[len(ladder)-1]
		if floats.Norm(out[j], math.Inf(1)) == 0 {
			return nil, fmt.Errorf("%w: trend %q with %s", ErrTrendEliminated, m.Config.Trend, m.Config)
		}
	}
	return out, nil
}

func differenceLadder(values []float64, steps []int) [][]float64 {
	ladder := make([][]float64, 0, len(steps)+1)
	ladder = append(ladder, values)
	for _, lag := range steps {
		prev := ladder[len(ladder)-1]
		next := make([]float64, max(len(prev)-lag, 0))
		for i := range next {
			next[i] = prev[i+lag] - prev[i]
		}
		ladder = append(ladder, next)
	}
	return ladder
}

// yuleWalkerStart estimates order AR coefficients at the given lag spacing
// from the sample autocorrelations of u.
func yuleWalkerStart(u []float64, order, lag int) []float64 {
	if order == 0 {
		return nil
	}
	out := make([]float64, order)
	acf := stats.ACF(timeseries.New(u), order*lag)
	if len(acf) <= order*lag {
		return out
	}

	spaced := make([]float64, order+1)
	for i := range spaced {
		spaced[i] = acf[i*lag]
	}
	for i, v := range yuleWalker(spaced, order) {
		out[i] = math.Max(-0.9, math.Min(0.9, v))
	}
	return out
}

// Residuals returns the one-step-ahead errors on the differenced scale. They
// are aligned with training positions ResidualOffset() to n-1.
func (m *Model) Residuals() []float64 {
	result := make([]float64, len(m.residuals))
	copy(result, m.residuals)
	return result
}

// ResidualOffset is the training position of the first residual, the number
// of observations consumed by differencing.
func (m *Model) ResidualOffset() int {
	return m.Config.lost()
}

// FittedValues returns the one-step-ahead predictions on the original scale,
// aligned like Residuals.
func (m *Model) FittedValues() []float64 {
	offset := m.ResidualOffset()
	result := make([]float64, len(m.residuals))
	for i, r := range m.residuals {
		result[i] = m.data.Values[offset+i] - r
	}
	return result
}

// Train returns the series the model was fitted on.
func (m *Model) Train() *timeseries.Series {
	return m.data.Copy()
}

// Param is a named estimate with its standard error.
type Param struct {
	Name   string
	Value  float64
	StdErr float64
}

// ZStat is the Wald statistic Value / StdErr.
func (p Param) ZStat() float64 {
	return p.Value / p.StdErr
}

// PValue is the two-sided normal p-value of ZStat.
func (p Param) PValue() float64 {
	return 2 * normalSurvival(math.Abs(p.ZStat()))
}

// Params returns the estimates in the order trend, AR, seasonal AR, MA,
// seasonal MA, sigma2.
func (m *Model) Params() []Param {
	names := m.paramNames()
	values := append(append([]float64{}, m.params...), m.Sigma2)

	out := make([]Param, len(names))
	for i, name := range names {
		out[i] = Param{Name: name, Value: values[i], StdErr: m.stdErr[i]}
	}
	return out
}

func (m *Model) paramNames() []string {
	var names []string
	if m.Config.Trend.hasConstant() {
		names = append(names, "const")
	}
	if m.Config.Trend.hasLinear() {
		names = append(names, "x1")
	}
	s := m.Config.Seasonal.S
	for i := range m.Config.Order.P {
		names = append(names, fmt.Sprintf("ar.L%d", i+1))
	}
	for i := range m.Config.Seasonal.P {
		names = append(names, fmt.Sprintf("ar.S.L%d", (i+1)*s))
	}
	for i := range m.Config.Order.Q {
		names = append(names, fmt.Sprintf("ma.L%d", i+1))
	}
	for i := range m.Config.Seasonal.Q {
		names = append(names, fmt.Sprintf("ma.S.L%d", (i+1)*s))
	}
	return append(names, "sigma2")
}

// ParamInterval is a Wald confidence interval for one parameter.
type ParamInterval struct {
	Name  string
	Value float64
	Lower float64
	Upper float64
}

// ConfInt returns 1-alpha Wald intervals for every parameter. Intervals are
// NaN where the standard error is unavailable.
func (m *Model) ConfInt(alpha float64) ([]ParamInterval, error) {
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("%w: alpha %v", ErrInvalidConfidence, alpha)
	}

	z := normalQuantile(1 - alpha/2)
	params := m.Params()
	out := make([]ParamInterval, len(params))
	for i, p := range params {
		out[i] = ParamInterval{
			Name:  p.Name,
			Value: p.Value,
			Lower: p.Value - z*p.StdErr,
			Upper: p.Value + z*p.StdErr,
		}
	}
	return out, nil
}

// Summary collects the estimates, criteria and a residual Ljung-Box test
// at lag 10.
type Summary struct {
	Config   Config
	Params   []Param
	Sigma2   float64
	AIC      float64
	AICc     float64 // Corrected AIC
	BIC      float64
	LogLik   float64
	NObs     int
	LjungBox *stats.LjungBoxResult
}

// Summary returns a summary of the fitted model.
func (m *Model) Summary() *Summary {
	fitdf := m.est.numARMA()
	lb := stats.LjungBox(timeseries.New(m.residuals), 10, fitdf)

	return &Summary{
		Config:   m.Config,
		Params:   m.Params(),
		Sigma2:   m.Sigma2,
		AIC:      m.AIC,
		AICc:     m.AICc,
		BIC:      m.BIC,
		LogLik:   m.LogLik,
		NObs:     m.NObs,
		LjungBox: lb,
	}
}

// NumARMA is the number of estimated AR and MA coefficients, the degrees of
// freedom to remove from residual portmanteau tests.
func (m *Model) NumARMA() int {
	return m.est.numARMA()
}

// yuleWalker estimates AR coefficients using Yule-Walker equations.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	// Levinson-Durbin recursion
	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}
