package regress

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// hc0Covariance returns the White heteroscedasticity-consistent covariance
// (X'X)^-1 X' diag(u^2) X (X'X)^-1.
func hc0Covariance(x *mat.Dense, xtxInv mat.Symmetric, u []float64) *mat.Dense {
	n, p := x.Dims()
	meat := mat.NewSymDense(p, nil)
	for t := range n {
		w := u[t] * u[t]
		for i := range p {
			for j := i; j < p; j++ {
				meat.SetSym(i, j, meat.At(i, j)+w*x.At(t, i)*x.At(t, j))
			}
		}
	}

	var cov mat.Dense
	cov.Product(xtxInv, meat, xtxInv)
	return &cov
}

// standardErrors returns the square roots of the covariance diagonal.
func standardErrors(cov mat.Matrix) []float64 {
	p, _ := cov.Dims()
	out := make([]float64, p)
	for i := range p {
		out[i] = math.Sqrt(math.Max(cov.At(i, i), 0))
	}
	return out
}

// tTest returns the t statistic and two-sided p-value of an estimate against zero.
// A zero standard error saturates the statistic at the largest finite float.
func tTest(estimate, se float64, df int) (tStat, pValue float64) {
	if se == 0 || math.IsNaN(se) {
		if estimate == 0 {
			return 0, 1
		}
		return math.Copysign(math.MaxFloat64, estimate), 0
	}
	tStat = estimate / se
	if math.IsInf(tStat, 0) {
		return math.Copysign(math.MaxFloat64, estimate), 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	pValue = 2 * dist.Survival(math.Abs(tStat))
	return tStat, clampProbability(pValue)
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
