package arima

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// estimator evaluates the conditional Gaussian likelihood of a regression
// with multiplicative seasonal ARMA errors on an already differenced series.
//
// Parameters are laid out as [trend, ar, sar, ma, sma] in constrained form.
type estimator struct {
	w     []float64   // differenced series
	x     [][]float64 // differenced regressors, one slice per column
	p, q  int
	sp    int
	sq    int
	s     int
	start int // leading observations the likelihood conditions on
}

func newEstimator(cfg Config, w []float64, x [][]float64) *estimator {
	return &estimator{
		w:     w,
		x:     x,
		p:     cfg.Order.P,
		q:     cfg.Order.Q,
		sp:    cfg.Seasonal.P,
		sq:    cfg.Seasonal.Q,
		s:     cfg.period(),
		start: cfg.arLags(),
	}
}

func (e *estimator) numParams() int {
	return len(e.x) + e.p + e.sp + e.q + e.sq
}

func (e *estimator) numARMA() int {
	return e.p + e.sp + e.q + e.sq
}

func (e *estimator) nEff() int {
	return len(e.w) - e.start
}

func (e *estimator) split(params []float64) (beta, ar, sar, ma, sma []float64) {
	k := len(e.x)
	beta = params[:k]
	ar = params[k : k+e.p]
	sar = params[k+e.p : k+e.p+e.sp]
	ma = params[k+e.p+e.sp : k+e.p+e.sp+e.q]
	sma = params[k+e.p+e.sp+e.q:]
	return beta, ar, sar, ma, sma
}

// polys returns the expanded AR and MA lag polynomials.
func (e *estimator) polys(params []float64) (arP, maP []float64) {
	_, ar, sar, ma, sma := e.split(params)
	arP = polyMul(arPoly(ar, 1), arPoly(sar, e.s))
	maP = polyMul(maPoly(ma, 1), maPoly(sma, e.s))
	return arP, maP
}

// demean removes the regression mean from w.
func (e *estimator) demean(beta []float64) []float64 {
	u := slices.Clone(e.w)
	for j, col := range e.x {
		for t := range u {
			u[t] -= beta[j] * col[t]
		}
	}
	return u
}

// residuals returns one-step prediction errors for every differenced
// observation. Before start the AR part uses only the lags available and the
// MA part is dropped; from start on, errors before start count as zero.
func (e *estimator) residuals(params []float64) []float64 {
	beta, _, _, _, _ := e.split(params)
	arP, maP := e.polys(params)
	u := e.demean(beta)

	res := make([]float64, len(u))
	for t := range u {
		v := u[t]
		for i := 1; i < len(arP) && i <= t; i++ {
			v += arP[i] * u[t-i]
		}
		if t >= e.start {
			for j := 1; j < len(maP) && t-j >= e.start; j++ {
				v -= maP[j] * res[t-j]
			}
		}
		res[t] = v
	}
	return res
}

func (e *estimator) sse(res []float64) float64 {
	sum := 0.0
	for _, r := range res[e.start:] {
		sum += r * r
	}
	return sum
}

// logLik is the Gaussian log-likelihood with sigma2 concentrated out.
func (e *estimator) logLik(params []float64) float64 {
	n := float64(e.nEff())
	sse := e.sse(e.residuals(params))
	return -n / 2 * (math.Log(2*math.Pi*sse/n) + 1)
}

// constrain maps an unconstrained vector to stationary AR and invertible
// MA coefficients.
func (e *estimator) constrain(x []float64) []float64 {
	out := make([]float64, len(x))
	xb, xar, xsar, xma, xsma := e.split(x)
	ob, oar, osar, oma, osma := e.split(out)

	copy(ob, xb)
	copy(oar, constrainStationary(xar))
	copy(osar, constrainStationary(xsar))
	for i, v := range constrainStationary(xma) {
		oma[i] = -v
	}
	for i, v := range constrainStationary(xsma) {
		osma[i] = -v
	}
	return out
}

func (e *estimator) unconstrain(params []float64) []float64 {
	out := make([]float64, len(params))
	pb, par, psar, pma, psma := e.split(params)
	ob, oar, osar, oma, osma := e.split(out)

	copy(ob, pb)
	copy(oar, unconstrainStationary(par))
	copy(osar, unconstrainStationary(psar))
	copy(oma, unconstrainStationary(negate(pma)))
	copy(osma, unconstrainStationary(negate(psma)))
	return out
}

// ols regresses w on the columns of x.
func ols(w []float64, x [][]float64) []float64 {
	k := len(x)
	if k == 0 {
		return nil
	}

	a := mat.NewDense(len(w), k, nil)
	for j, col := range x {
		a.SetCol(j, col)
	}
	var beta mat.VecDense
	if err := beta.SolveVec(a, mat.NewVecDense(len(w), slices.Clone(w))); err != nil {
		return make([]float64, k)
	}
	return slices.Clone(beta.RawVector().Data)
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = -x
	}
	return out
}
