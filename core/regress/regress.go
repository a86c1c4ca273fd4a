// Package regress fits segmented regression models for interrupted time series
// with AR(1) error correction and heteroscedasticity-robust inference.
package regress

import (
	"math"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// NumTerms is the number of regressors in the segmented model.
var NumTerms = len(schema.ModelTerms)

// Design returns the regressor matrix [1, time, flag, post] and the outcome vector.
func Design(s schema.Series) (*mat.Dense, *mat.VecDense) {
	n := s.Len()
	x := mat.NewDense(n, NumTerms, nil)
	y := mat.NewVecDense(n, nil)
	for i, o := range s.Observations {
		x.SetRow(i, []float64{1, float64(o.Index), float64(o.Flag), float64(o.Post)})
		y.SetVec(i, o.Outcome)
	}
	return x, y
}

// resolveOptions fills zero-valued options with defaults and rejects negative ones.
func resolveOptions(opts schema.FitOptions) (schema.FitOptions, error) {
	if opts.Tolerance == 0 {
		opts.Tolerance = schema.DefaultTolerance
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = schema.DefaultMaxIterations
	}
	if !(opts.Tolerance > 0) {
		return opts, contract.InvalidConfiguration("fit", "tolerance must be positive (received %g)", opts.Tolerance)
	}
	if opts.MaxIterations < 1 {
		return opts, contract.InvalidConfiguration("fit", "max iterations must be at least 1 (received %d)", opts.MaxIterations)
	}
	return opts, nil
}

// Fit estimates y = b0 + b1*time + b2*flag + b3*post with AR(1) errors using
// iterated Prais-Winsten. Each iteration re-estimates rho from residuals on the
// untransformed data and stops once rho moves less than the tolerance. The
// returned coefficients come from the transformed regression at the final rho
// and carry HC0 robust standard errors with Student's t p-values.
func Fit(s schema.Series, opts schema.FitOptions) (schema.ModelFit, error) {
	opts, err := resolveOptions(opts)
	if err != nil {
		return schema.ModelFit{}, err
	}
	n := s.Len()
	if n <= NumTerms {
		return schema.ModelFit{}, contract.InsufficientData("fit",
			"need more than %d observations for %d coefficients, got %d", NumTerms, NumTerms, n)
	}

	x, y := Design(s)
	scale := floats.Dot(y.RawVector().Data, y.RawVector().Data)

	initial, err := leastSquares(x, y)
	if err != nil {
		return schema.ModelFit{}, err
	}
	dwOLS := DurbinWatson(initial.residuals)

	rho := estimateRho(initial.residuals, scale)
	if !stationary(rho) {
		return schema.ModelFit{}, contract.FitFailure("fit", nil, "initial rho %g is not stationary", rho)
	}

	iterations, converged := 0, false
	for iterations < opts.MaxIterations {
		iterations++
		xt, yt := transform(x, y, rho)
		step, err := leastSquares(xt, yt)
		if err != nil {
			return schema.ModelFit{}, err
		}
		next := estimateRho(residuals(x, y, step.beta), scale)
		if !stationary(next) {
			return schema.ModelFit{}, contract.FitFailure("fit", nil, "rho %g is not stationary at iteration %d", next, iterations)
		}
		delta := math.Abs(next - rho)
		rho = next
		if delta < opts.Tolerance {
			converged = true
			break
		}
	}
	if !converged {
		return schema.ModelFit{}, contract.FitFailure("fit", nil,
			"rho did not converge within %d iterations (last %g)", opts.MaxIterations, rho)
	}

	xt, yt := transform(x, y, rho)
	final, err := leastSquares(xt, yt)
	if err != nil {
		return schema.ModelFit{}, err
	}

	df := n - NumTerms
	coefficients, sigma2 := coefficientTable(xt, final, df)

	var fitted mat.VecDense
	fitted.MulVec(x, final.beta)

	return schema.ModelFit{
		Coefficients:     coefficients,
		Rho:              rho,
		Iterations:       iterations,
		Converged:        converged,
		Observations:     n,
		Cutover:          s.Cutover,
		DegreesOfFreedom: df,
		RSquared:         rSquared(fitted.RawVector().Data, y.RawVector().Data, scale),
		ResidualStdError: math.Sqrt(sigma2),
		DurbinWatsonOLS:  dwOLS,
		DurbinWatson:     DurbinWatson(final.residuals),
	}, nil
}

// OLS fits the segmented model by ordinary least squares with no autocorrelation
// correction. Inference matches Fit so the two can be compared directly.
func OLS(s schema.Series) (schema.ModelFit, error) {
	n := s.Len()
	if n <= NumTerms {
		return schema.ModelFit{}, contract.InsufficientData("ols",
			"need more than %d observations for %d coefficients, got %d", NumTerms, NumTerms, n)
	}
	x, y := Design(s)
	scale := floats.Dot(y.RawVector().Data, y.RawVector().Data)
	res, err := leastSquares(x, y)
	if err != nil {
		return schema.ModelFit{}, err
	}

	df := n - NumTerms
	coefficients, sigma2 := coefficientTable(x, res, df)

	var fitted mat.VecDense
	fitted.MulVec(x, res.beta)
	dw := DurbinWatson(res.residuals)
	return schema.ModelFit{
		Coefficients:     coefficients,
		Converged:        true,
		Observations:     n,
		Cutover:          s.Cutover,
		DegreesOfFreedom: df,
		RSquared:         rSquared(fitted.RawVector().Data, y.RawVector().Data, scale),
		ResidualStdError: math.Sqrt(sigma2),
		DurbinWatsonOLS:  dw,
		DurbinWatson:     dw,
	}, nil
}

// rSquared returns the coefficient of determination of fitted on y. A constant
// outcome has no variance to explain, so it scores 1 when the fit reproduces it
// and 0 otherwise.
func rSquared(fitted, y []float64, scale float64) float64 {
	mean := stat.Mean(y, nil)
	var tss, rss float64
	for i, v := range y {
		tss += (v - mean) * (v - mean)
		rss += (v - fitted[i]) * (v - fitted[i])
	}
	if tss <= rhoEpsilon*(scale+1) {
		if rss <= rhoEpsilon*(scale+1) {
			return 1
		}
		return 0
	}
	r2 := stat.RSquaredFrom(fitted, y, nil)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0
	}
	return r2
}

// coefficientTable builds naive and HC0 inference for a regression on xr and
// returns the rows with the residual variance.
func coefficientTable(xr *mat.Dense, res olsResult, df int) ([]schema.Coefficient, float64) {
	u := res.residuals
	sigma2 := floats.Dot(u, u) / float64(df)
	robust := standardErrors(hc0Covariance(xr, res.xtxInv, u))

	coefficients := make([]schema.Coefficient, NumTerms)
	for i, name := range schema.ModelTerms {
		estimate := res.beta.AtVec(i)
		tStat, pValue := tTest(estimate, robust[i], df)
		coefficients[i] = schema.Coefficient{
			Name:     name,
			Estimate: estimate,
			StdError: math.Sqrt(math.Max(sigma2*res.xtxInv.At(i, i), 0)),
			RobustSE: robust[i],
			TStat:    tStat,
			PValue:   pValue,
		}
	}
	return coefficients, sigma2
}

// DurbinWatson returns sum((e[t]-e[t-1])^2) / sum(e[t]^2). Values near 2 indicate
// no first-order autocorrelation. A zero residual vector yields 2.
func DurbinWatson(e []float64) float64 {
	den := floats.Dot(e, e)
	if den == 0 {
		return 2
	}
	var num float64
	for t := 1; t < len(e); t++ {
		d := e[t] - e[t-1]
		num += d * d
	}
	return num / den
}
