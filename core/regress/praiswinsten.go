package regress

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rhoEpsilon scales the outcome energy below which lagged residuals count as zero.
const rhoEpsilon = 1e-12

// estimateRho returns the lag-one autocorrelation of residuals,
// sum(e[t]*e[t-1]) / sum(e[t-1]^2) over t >= 1. A numerically perfect fit has no
// autocorrelation to estimate and yields zero.
func estimateRho(e []float64, scale float64) float64 {
	var num, den float64
	for t := 1; t < len(e); t++ {
		num += e[t] * e[t-1]
		den += e[t-1] * e[t-1]
	}
	if den <= rhoEpsilon*(scale+1) {
		return 0
	}
	return num / den
}

// transform applies the Prais-Winsten transform for a given rho. The first row
// is kept and scaled by sqrt(1-rho^2); later rows are quasi-differenced. Every
// column is transformed, including the intercept, so the row count is preserved.
func transform(x *mat.Dense, y *mat.VecDense, rho float64) (*mat.Dense, *mat.VecDense) {
	n, p := x.Dims()
	xt := mat.NewDense(n, p, nil)
	yt := mat.NewVecDense(n, nil)
	if n == 0 {
		return xt, yt
	}

	scale := math.Sqrt(1 - rho*rho)
	for j := range p {
		xt.Set(0, j, scale*x.At(0, j))
	}
	yt.SetVec(0, scale*y.AtVec(0))

	for t := 1; t < n; t++ {
		for j := range p {
			xt.Set(t, j, x.At(t, j)-rho*x.At(t-1, j))
		}
		yt.SetVec(t, y.AtVec(t)-rho*y.AtVec(t-1))
	}
	return xt, yt
}

// stationary reports whether rho describes a usable AR(1) process.
func stationary(rho float64) bool {
	return !math.IsNaN(rho) && math.Abs(rho) < 1
}
