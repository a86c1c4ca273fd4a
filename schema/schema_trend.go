package schema

// TrendPoint is a single value of a derived trend line.
type TrendPoint struct {
	Index int     `json:"index" yaml:"index"`
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// TrendLines holds everything a chart needs besides styling.
type TrendLines struct {
	Observed         []TrendPoint `json:"observed" yaml:"observed"`
	Fitted           []TrendPoint `json:"fitted" yaml:"fitted"`                 // Post-cutover periods only
	Counterfactual   []TrendPoint `json:"counterfactual" yaml:"counterfactual"` // All periods, baseline terms only
	Cutover          int          `json:"cutover" yaml:"cutover"`
	TrendShiftPValue float64      `json:"trend_shift_p_value" yaml:"trend_shift_p_value"`
}

// AnalysisResult bundles the three pipeline stages for structured output.
type AnalysisResult struct {
	Series Series     `json:"series" yaml:"series"`
	Fit    ModelFit   `json:"fit" yaml:"fit"`
	Trend  TrendLines `json:"trend" yaml:"trend"`
}
