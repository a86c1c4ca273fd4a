package series

import (
	"math"
	"math/rand/v2"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// pcgStream is the fixed second word of the PCG state so a single seed selects a sequence.
const pcgStream = 0x5e9e_7a11_c0de_2010

// NewSource returns the deterministic random source for a seed.
func NewSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, pcgStream)
}

// ValidateParams rejects generator parameters that cannot produce a series.
func ValidateParams(p schema.SimulationParams) error {
	switch {
	case p.Periods < 1:
		return contract.InvalidConfiguration("generate", "periods must be at least 1 (received %d)", p.Periods)
	case !(p.NoiseSD > 0) || math.IsInf(p.NoiseSD, 0):
		return contract.InvalidConfiguration("generate", "noise sd must be positive and finite (received %g)", p.NoiseSD)
	case p.Cutover < 1 || p.Cutover > p.Periods:
		return contract.InvalidConfiguration("generate", "cutover must be in 1..%d (received %d)", p.Periods, p.Cutover)
	case p.StartQuarter < 1 || p.StartQuarter > 4:
		return contract.InvalidConfiguration("generate", "start quarter must be in 1..4 (received %d)", p.StartQuarter)
	}
	for _, v := range []float64{p.StartValue, p.EndValue, p.MaxEffect} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return contract.InvalidConfiguration("generate", "trend and effect values must be finite")
		}
	}
	return nil
}

// Generate simulates a quarterly count series: a linear base trend, a linear
// intervention ramp from the cutover to the last period and Gaussian noise drawn
// from src. Values are rounded to whole counts and clamped at zero.
func Generate(p schema.SimulationParams, src rand.Source) (schema.Series, error) {
	if err := ValidateParams(p); err != nil {
		return schema.Series{}, err
	}

	n := p.Periods
	base := make([]float64, n)
	if n == 1 {
		base[0] = p.StartValue
	} else {
		floats.Span(base, p.StartValue, p.EndValue)
	}

	ramp := make([]float64, n-p.Cutover+1)
	if len(ramp) > 1 {
		floats.Span(ramp, 0, p.MaxEffect)
	}

	noise := distuv.Normal{Mu: 0, Sigma: p.NoiseSD, Src: src}
	outcomes := make([]float64, n)
	for i := range outcomes {
		v := base[i] + noise.Rand()
		if i+1 >= p.Cutover {
			v += ramp[i+1-p.Cutover]
		}
		outcomes[i] = math.Max(0, math.Round(v))
	}

	return Build(outcomes, QuarterLabels(n, p.StartYear, p.StartQuarter), p.Cutover)
}

// Simulate generates a series from the seed held by the parameters.
func Simulate(p schema.SimulationParams) (schema.Series, error) {
	return Generate(p, NewSource(p.Seed))
}
