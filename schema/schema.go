// Package schema has models and shared constants for all parts of segreg.
package schema

// Observation is one period of an interrupted time series.
// Flag and Post are derived from the cutover index and must agree with it.
type Observation struct {
	Index   int     `json:"index" yaml:"index"`     // 1-based period index, defines ordering
	Label   string  `json:"label" yaml:"label"`     // Display label such as "2010.1"
	Outcome float64 `json:"outcome" yaml:"outcome"` // Observed count, non-negative
	Flag    int     `json:"flag" yaml:"flag"`       // 1 at or after the cutover, else 0
	Post    int     `json:"post" yaml:"post"`       // Periods elapsed since cutover (1 at cutover), else 0
}

// Series is an ordered observation set together with the cutover it was built from.
// Cutover is 0 when no observation is flagged.
type Series struct {
	Observations []Observation `json:"observations" yaml:"observations"`
	Cutover      int           `json:"cutover" yaml:"cutover"`
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Observations)
}

// Outcomes returns the outcome column in data order.
func (s Series) Outcomes() []float64 {
	out := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = o.Outcome
	}
	return out
}

// SimulationParams describes a synthetic series.
type SimulationParams struct {
	Periods      int     `json:"periods" yaml:"periods"`
	StartValue   float64 `json:"start_value" yaml:"start_value"`
	EndValue     float64 `json:"end_value" yaml:"end_value"`
	Cutover      int     `json:"cutover" yaml:"cutover"`
	MaxEffect    float64 `json:"max_effect" yaml:"max_effect"`
	NoiseSD      float64 `json:"noise_sd" yaml:"noise_sd"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	StartYear    int     `json:"start_year" yaml:"start_year"`
	StartQuarter int     `json:"start_quarter" yaml:"start_quarter"`
}

// FitOptions controls the iterative autocorrelation correction.
type FitOptions struct {
	Tolerance     float64 `json:"tolerance" yaml:"tolerance"`
	MaxIterations int     `json:"max_iterations" yaml:"max_iterations"`
}

// Coefficient is one estimated regression term with its naive and robust statistics.
type Coefficient struct {
	Name     CoefficientName `json:"name" yaml:"name"`
	Estimate float64         `json:"estimate" yaml:"estimate"`
	StdError float64         `json:"std_error" yaml:"std_error"`               // From the transformed regression
	RobustSE float64         `json:"robust_std_error" yaml:"robust_std_error"` // HC0
	TStat    float64         `json:"t_stat" yaml:"t_stat"`                     // Estimate / RobustSE
	PValue   float64         `json:"p_value" yaml:"p_value"`                   // Two-sided, Student's t
}

// ModelFit is the immutable result of a segmented regression fit.
type ModelFit struct {
	Coefficients     []Coefficient `json:"coefficients" yaml:"coefficients"`
	Rho              float64       `json:"rho" yaml:"rho"`
	Iterations       int           `json:"iterations" yaml:"iterations"`
	Converged        bool          `json:"converged" yaml:"converged"`
	Observations     int           `json:"observations" yaml:"observations"`
	Cutover          int           `json:"cutover" yaml:"cutover"`
	DegreesOfFreedom int           `json:"degrees_of_freedom" yaml:"degrees_of_freedom"`
	RSquared         float64       `json:"r_squared" yaml:"r_squared"`
	ResidualStdError float64       `json:"residual_std_error" yaml:"residual_std_error"`
	DurbinWatsonOLS  float64       `json:"durbin_watson_ols" yaml:"durbin_watson_ols"`
	DurbinWatson     float64       `json:"durbin_watson" yaml:"durbin_watson"`
}

// Coefficient returns the named coefficient.
func (m ModelFit) Coefficient(name CoefficientName) (Coefficient, bool) {
	for _, c := range m.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Estimates returns the coefficient estimates in model order.
func (m ModelFit) Estimates() []float64 {
	out := make([]float64, len(m.Coefficients))
	for i, c := range m.Coefficients {
		out[i] = c.Estimate
	}
	return out
}
