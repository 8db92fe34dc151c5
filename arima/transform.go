package arima

import "math"

// constrainStationary maps unconstrained reals to the coefficients of a
// stationary AR polynomial through partial autocorrelations (Monahan 1984,
// Jones 1980).
func constrainStationary(x []float64) []float64 {
	n := len(x)
	if n == 0 {
		return nil
	}

	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}
	for k := range n {
		r := x[k] / math.Sqrt(1+x[k]*x[k])
		for i := range k {
			y[k][i] = y[k-1][i] + r*y[k-1][k-i-1]
		}
		y[k][k] = r
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = -y[n-1][i]
	}
	return out
}

// unconstrainStationary is the inverse of constrainStationary. Partial
// autocorrelations are clipped to (-0.99, 0.99) so starting values from a
// nearly non-stationary estimate stay finite.
func unconstrainStationary(c []float64) []float64 {
	n := len(c)
	if n == 0 {
		return nil
	}

	y := make([][]float64, n)
	for k := range y {
		y[k] = make([]float64, n)
	}
	for i := range c {
		y[n-1][i] = -c[i]
	}
	for k := n - 1; k > 0; k-- {
		den := 1 - y[k][k]*y[k][k]
		if den <= 1e-8 {
			den = 1e-8
		}
		for i := range k {
			y[k-1][i] = (y[k][i] - y[k][k]*y[k][k-i-1]) / den
		}
	}

	out := make([]float64, n)
	for k := range out {
		r := math.Max(-0.99, math.Min(0.99, y[k][k]))
		out[k] = r / math.Sqrt(1-r*r)
	}
	return out
}
