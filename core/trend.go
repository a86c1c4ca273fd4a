package core

import "github.com/huangsam/segreg/schema"

// DeriveTrendLines computes the observed, fitted and counterfactual lines of a fit.
// The fitted line uses all four coefficients and covers flagged periods only.
// The counterfactual line extends the pre-intervention intercept and slope over
// every period.
func DeriveTrendLines(s schema.Series, fit schema.ModelFit) schema.TrendLines {
	b := make(map[schema.CoefficientName]float64, len(fit.Coefficients))
	for _, c := range fit.Coefficients {
		b[c.Name] = c.Estimate
	}

	lines := schema.TrendLines{
		Observed:       make([]schema.TrendPoint, 0, s.Len()),
		Counterfactual: make([]schema.TrendPoint, 0, s.Len()),
		Cutover:        s.Cutover,
	}
	if c, ok := fit.Coefficient(schema.TrendShift); ok {
		lines.TrendShiftPValue = c.PValue
	}

	for _, o := range s.Observations {
		t := float64(o.Index)
		baseline := b[schema.Intercept] + b[schema.Time]*t
		lines.Observed = append(lines.Observed, schema.TrendPoint{Index: o.Index, Label: o.Label, Value: o.Outcome})
		lines.Counterfactual = append(lines.Counterfactual, schema.TrendPoint{Index: o.Index, Label: o.Label, Value: baseline})
		if o.Flag == 1 {
			value := baseline + b[schema.LevelShift]*float64(o.Flag) + b[schema.TrendShift]*float64(o.Post)
			lines.Fitted = append(lines.Fitted, schema.TrendPoint{Index: o.Index, Label: o.Label, Value: value})
		}
	}
	return lines
}
