package stats

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrSampleSize is returned when a sample is outside the supported size range.
	ErrSampleSize = errors.New("stats: sample size out of range")
	// ErrZeroRange is returned when every value in a sample is identical.
	ErrZeroRange = errors.New("stats: sample has zero range")
)

// Royston (1995) polynomial coefficients, lowest order first.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilkResult is the outcome of a Shapiro-Wilk normality test.
type ShapiroWilkResult struct {
	W      float64
	PValue float64
	N      int
}

// ShapiroWilk tests the null hypothesis that sample was drawn from a normal
// distribution, using Royston's approximation for the weights and p-value.
// Sample size must be in [3, 5000].
func ShapiroWilk(sample []float64) (*ShapiroWilkResult, error) {
	n := len(sample)
	if n < 3 || n > 5000 {
		return nil, ErrSampleSize
	}

	x := slices.Clone(sample)
	slices.Sort(x)
	if x[n-1]-x[0] == 0 {
		return nil, ErrZeroRange
	}

	a := shapiroWilkWeights(n)

	mean := floats.Sum(x) / float64(n)
	ssq := 0.0
	for _, v := range x {
		ssq += (v - mean) * (v - mean)
	}
	w := floats.Dot(a, x)
	w = w * w / ssq
	w = math.Min(w, 1)

	return &ShapiroWilkResult{
		W:      w,
		PValue: shapiroWilkPValue(w, n),
		N:      n,
	}, nil
}

func shapiroWilkWeights(n int) []float64 {
	a := make([]float64, n)
	if n == 3 {
		a[0] = -math.Sqrt(0.5)
		a[2] = math.Sqrt(0.5)
		return a
	}

	m := make([]float64, n)
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25))
	}
	summ2 := floats.Dot(m, m)
	ssumm2 := math.Sqrt(summ2)
	u := 1 / math.Sqrt(float64(n))

	an := m[n-1]/ssumm2 + poly(swC1, u)
	a[n-1] = an
	a[0] = -an

	if n > 5 {
		an1 := m[n-2]/ssumm2 + poly(swC2, u)
		phi := (summ2 - 2*m[n-1]*m[n-1] - 2*m[n-2]*m[n-2]) / (1 - 2*an*an - 2*an1*an1)
		a[n-2] = an1
		a[1] = -an1
		for i := 2; i < n-2; i++ {
			a[i] = m[i] / math.Sqrt(phi)
		}
		return a
	}

	phi := (summ2 - 2*m[n-1]*m[n-1]) / (1 - 2*an*an)
	for i := 1; i < n-1; i++ {
		a[i] = m[i] / math.Sqrt(phi)
	}
	return a
}

func shapiroWilkPValue(w float64, n int) float64 {
	if n == 3 {
		p := 6 / math.Pi * (math.Asin(math.Sqrt(w)) - math.Asin(math.Sqrt(0.75)))
		return math.Max(p, 0)
	}

	y := math.Log(1 - w)
	nf := float64(n)

	var mu, sigma float64
	if n <= 11 {
		gamma := poly(swG, nf)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		mu = poly(swC3, nf)
		sigma = math.Exp(poly(swC4, nf))
	} else {
		ln := math.Log(nf)
		mu = poly(swC5, ln)
		sigma = math.Exp(poly(swC6, ln))
	}

	return distuv.UnitNormal.Survival((y - mu) / sigma)
}

// poly evaluates c[0] + c[1]x + c[2]x^2 + ...
func poly(c []float64, x float64) float64 {
	out := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		out = out*x + c[i]
	}
	return out
}

// QQPoint pairs a theoretical normal quantile with an ordered sample value.
type QQPoint struct {
	Theoretical float64
	Sample      float64
}

// QQPoints returns the normal probability plot coordinates for sample,
// using Blom plotting positions (i - 3/8) / (n + 1/4).
func QQPoints(sample []float64) []QQPoint {
	n := len(sample)
	x := slices.Clone(sample)
	slices.Sort(x)

	out := make([]QQPoint, n)
	for i, v := range x {
		out[i] = QQPoint{
			Theoretical: distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (float64(n) + 0.25)),
			Sample:      v,
		}
	}
	return out
}
