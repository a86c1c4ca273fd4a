// Package series builds, validates and simulates interrupted time series.
package series

import (
	"fmt"
	"math"
	"strconv"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
)

// QuarterLabels returns n chronological quarterly labels formatted as "YYYY.Q".
func QuarterLabels(n, startYear, startQuarter int) []string {
	labels := make([]string, n)
	year, quarter := startYear, startQuarter
	for i := range labels {
		labels[i] = fmt.Sprintf("%d.%d", year, quarter)
		quarter++
		if quarter > 4 {
			quarter = 1
			year++
		}
	}
	return labels
}

// Indicators returns the intervention flag and post-intervention time for a 1-based index.
func Indicators(index, cutover int) (flag, post int) {
	if cutover > 0 && index >= cutover {
		return 1, index - cutover + 1
	}
	return 0, 0
}

// Build assembles a series from outcomes in data order, deriving index, flag and post
// from the cutover. Missing labels fall back to the period index.
func Build(outcomes []float64, labels []string, cutover int) (schema.Series, error) {
	if labels != nil && len(labels) != len(outcomes) {
		return schema.Series{}, contract.InvalidConfiguration("build",
			"got %d labels for %d outcomes", len(labels), len(outcomes))
	}
	obs := make([]schema.Observation, len(outcomes))
	for i, y := range outcomes {
		index := i + 1
		label := strconv.Itoa(index)
		if labels != nil {
			label = labels[i]
		}
		flag, post := Indicators(index, cutover)
		obs[i] = schema.Observation{Index: index, Label: label, Outcome: y, Flag: flag, Post: post}
	}
	s := schema.Series{Observations: obs, Cutover: cutover}
	if err := Validate(s); err != nil {
		return schema.Series{}, err
	}
	return s, nil
}

// ValidateLoaded is Validate for series read from files, which must always carry
// an intervention period.
func ValidateLoaded(s schema.Series) error {
	if s.Cutover < 1 {
		return contract.InvalidConfiguration("validate", "cutover must be at least 1 (received %d)", s.Cutover)
	}
	return Validate(s)
}

// Validate checks that a series is ordered, has usable outcomes and that every
// flag and post value agrees with the cutover. A cutover of 0 means no intervention.
func Validate(s schema.Series) error {
	if s.Cutover < 0 {
		return contract.InvalidConfiguration("validate", "cutover must not be negative (received %d)", s.Cutover)
	}
	if n := s.Len(); n > 0 && s.Cutover > n {
		return contract.InvalidConfiguration("validate", "cutover must be in 1..%d (received %d)", n, s.Cutover)
	}
	for i, o := range s.Observations {
		if o.Index != i+1 {
			return contract.InvalidConfiguration("validate",
				"row %d has index %d, indices must be 1..N in data order", i+1, o.Index)
		}
		if math.IsNaN(o.Outcome) || math.IsInf(o.Outcome, 0) || o.Outcome < 0 {
			return contract.InvalidConfiguration("validate",
				"period %s has outcome %g, outcomes must be finite and non-negative", o.Label, o.Outcome)
		}
		if o.Flag != 0 && o.Flag != 1 {
			return contract.InvalidConfiguration("validate", "period %s has flag %d, must be 0 or 1", o.Label, o.Flag)
		}
		if (o.Flag == 1 && o.Post < 1) || (o.Flag == 0 && o.Post != 0) {
			return contract.InvalidConfiguration("validate",
				"period %s has flag %d with post %d", o.Label, o.Flag, o.Post)
		}
		flag, post := Indicators(o.Index, s.Cutover)
		if o.Flag != flag || o.Post != post {
			return contract.InvalidConfiguration("validate",
				"period %s has flag %d post %d but cutover %d implies flag %d post %d",
				o.Label, o.Flag, o.Post, s.Cutover, flag, post)
		}
	}
	return nil
}
