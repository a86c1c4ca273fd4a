package schema

import "time"

// RunRecord represents a row from the segreg_runs table.
type RunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	Observations  int32
	Cutover       int32
	Rho           float64
	Iterations    int32
	Converged     bool
	ConfigParams  *string
}

// CoefficientRecord represents a row from the segreg_coefficients table.
type CoefficientRecord struct {
	RunID    int64
	Name     string
	Estimate float64
	StdError float64
	RobustSE float64
	TStat    float64
	PValue   float64
}
