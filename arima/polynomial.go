package arima

// Lag polynomials are stored lowest power first with a leading 1, so
// 1 - 0.5B is []float64{1, -0.5}.

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// arPoly builds 1 - c1 B^lag - c2 B^{2 lag} - ...
func arPoly(coeffs []float64, lag int) []float64 {
	out := make([]float64, len(coeffs)*lag+1)
	out[0] = 1
	for i, c := range coeffs {
		out[(i+1)*lag] = -c
	}
	return out
}

// maPoly builds 1 + c1 B^lag + c2 B^{2 lag} + ...
func maPoly(coeffs []float64, lag int) []float64 {
	out := make([]float64, len(coeffs)*lag+1)
	out[0] = 1
	for i, c := range coeffs {
		out[(i+1)*lag] = c
	}
	return out
}

// diffPoly builds (1 - B)^d (1 - B^s)^D.
func diffPoly(d, seasonalD, s int) []float64 {
	out := []float64{1}
	for range d {
		out = polyMul(out, []float64{1, -1})
	}
	for range seasonalD {
		out = polyMul(out, arPoly([]float64{1}, s))
	}
	return out
}

// psiWeights returns the first n coefficients of theta(B)/phi(B), where ar
// and ma are lag polynomials with leading 1.
func psiWeights(ar, ma []float64, n int) []float64 {
	psi := make([]float64, n)
	for j := range n {
		if j == 0 {
			psi[j] = 1
			continue
		}
		v := 0.0
		if j < len(ma) {
			v = ma[j]
		}
		for i := 1; i < len(ar) && i <= j; i++ {
			v -= ar[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}
