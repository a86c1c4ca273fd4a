package regress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestTransformRetainsFirstObservation(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{
		1, 1,
		1, 2,
		1, 3,
		1, 4,
	})
	y := mat.NewVecDense(4, []float64{10, 12, 15, 19})
	rho := 0.6

	xt, yt := transform(x, y, rho)
	r, c := xt.Dims()
	assert.Equal(t, 4, r, "row count must be preserved")
	assert.Equal(t, 2, c)
	assert.Equal(t, 4, yt.Len())

	scale := math.Sqrt(1 - rho*rho)
	assert.InDelta(t, scale, xt.At(0, 0), 1e-12)
	assert.InDelta(t, scale*10, yt.AtVec(0), 1e-12)
	assert.InDelta(t, 1-rho, xt.At(1, 0), 1e-12)
	assert.InDelta(t, 3-rho*2, xt.At(2, 1), 1e-12)
	assert.InDelta(t, 19-rho*15, yt.AtVec(3), 1e-12)
}

func TestTransformZeroRhoIsIdentity(t *testing.T) {
	x := mat.NewDense(3, 2, []float64{1, 1, 1, 2, 1, 3})
	y := mat.NewVecDense(3, []float64{3, 5, 8})
	xt, yt := transform(x, y, 0)
	assert.True(t, mat.Equal(x, xt))
	assert.True(t, mat.Equal(y, yt))
}

func TestEstimateRho(t *testing.T) {
	tests := []struct {
		name     string
		e        []float64
		expected float64
	}{
		{"alternating", []float64{1, -1, 1, -1}, -1},
		{"geometric", []float64{8, 4, 2, 1}, 0.5},
		{"perfect fit", []float64{1e-13, -1e-13, 1e-13}, 0},
		{"single residual", []float64{3}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, estimateRho(tt.e, 100), 1e-12)
		})
	}
}

func TestStationary(t *testing.T) {
	assert.True(t, stationary(0))
	assert.True(t, stationary(-0.99))
	assert.False(t, stationary(1))
	assert.False(t, stationary(-1.2))
	assert.False(t, stationary(math.NaN()))
}

func TestTTest(t *testing.T) {
	tStat, p := tTest(0, 0, 10)
	assert.Equal(t, 0.0, tStat)
	assert.Equal(t, 1.0, p)

	tStat, p = tTest(5, 0, 10)
	assert.Equal(t, math.MaxFloat64, tStat)
	assert.Equal(t, 0.0, p)

	tStat, p = tTest(-1e300, 1e-300, 10)
	assert.Equal(t, -math.MaxFloat64, tStat)
	assert.Equal(t, 0.0, p)

	tStat, p = tTest(-2.228, 1, 10)
	assert.InDelta(t, -2.228, tStat, 1e-12)
	// 2.228 is the two-sided 5% critical value at 10 degrees of freedom
	assert.InDelta(t, 0.05, p, 1e-3)
}

func TestHC0Covariance(t *testing.T) {
	// Intercept-only model: HC0 variance of the mean is sum(u^2)/n^2.
	x := mat.NewDense(4, 1, []float64{1, 1, 1, 1})
	xtxInv := mat.NewSymDense(1, []float64{0.25})
	u := []float64{1, -2, 3, -2}
	cov := hc0Covariance(x, xtxInv, u)
	assert.InDelta(t, 18.0/16, cov.At(0, 0), 1e-12)
	assert.InDelta(t, math.Sqrt(18.0/16), standardErrors(cov)[0], 1e-12)
}
