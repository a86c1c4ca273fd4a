package regress

import (
	"errors"

	"github.com/huangsam/segreg/internal/contract"
	"gonum.org/v1/gonum/mat"
)

// rankTolerance is the singular value cutoff relative to the largest singular value.
const rankTolerance = 1e-10

var errRankDeficient = errors.New("design matrix is rank deficient")

// olsResult holds a least-squares solution and the pieces needed for inference.
type olsResult struct {
	beta      *mat.VecDense
	xtxInv    *mat.SymDense
	residuals []float64
}

// leastSquares solves y = X b by thin SVD. A rank-deficient X is a fit failure
// because the coefficients would not be identified.
func leastSquares(x *mat.Dense, y *mat.VecDense) (olsResult, error) {
	_, p := x.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return olsResult{}, contract.FitFailure("ols", nil, "svd factorization did not converge")
	}
	rank := svd.Rank(rankTolerance)
	if rank < p {
		return olsResult{}, contract.FitFailure("ols", errRankDeficient, "rank %d with %d regressors", rank, p)
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, y, rank)

	// (X'X)^-1 = V diag(1/s^2) V'
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)
	xtxInv := mat.NewSymDense(p, nil)
	for i := range p {
		for j := i; j < p; j++ {
			var sum float64
			for k, s := range values {
				sum += v.At(i, k) * v.At(j, k) / (s * s)
			}
			xtxInv.SetSym(i, j, sum)
		}
	}

	return olsResult{
		beta:      &beta,
		xtxInv:    xtxInv,
		residuals: residuals(x, y, &beta),
	}, nil
}

// residuals returns y - X b.
func residuals(x *mat.Dense, y, beta *mat.VecDense) []float64 {
	var fitted mat.VecDense
	fitted.MulVec(x, beta)
	n := y.Len()
	out := make([]float64, n)
	for i := range n {
		out[i] = y.AtVec(i) - fitted.AtVec(i)
	}
	return out
}
