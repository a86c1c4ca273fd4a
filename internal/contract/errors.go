package contract

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analysis pipeline. All of them are terminal for a run.
var (
	// ErrInsufficientData is returned when there are fewer observations than model parameters.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrFitFailure is returned for singular designs and non-convergent or non-stationary autocorrelation.
	ErrFitFailure = errors.New("fit failure")

	// ErrInvalidConfiguration is returned for bad generator parameters or inconsistent series.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ErrorKind categorizes analysis errors.
type ErrorKind int

const (
	// KindUnknown is an unclassified error.
	KindUnknown ErrorKind = iota
	// KindInsufficientData indicates too few observations.
	KindInsufficientData
	// KindFitFailure indicates the estimation could not produce a model.
	KindFitFailure
	// KindInvalidConfiguration indicates rejected parameters or input.
	KindInvalidConfiguration
)

// String returns the taxonomy name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInsufficientData:
		return "InsufficientData"
	case KindFitFailure:
		return "FitFailure"
	case KindInvalidConfiguration:
		return "InvalidConfiguration"
	default:
		return "Unknown"
	}
}

// AnalysisError provides detailed information about a failed pipeline stage.
type AnalysisError struct {
	Kind  ErrorKind
	Op    string // Stage or operation, e.g. "generate" or "fit"
	Msg   string
	Cause error
}

func (e *AnalysisError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AnalysisError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for AnalysisError.
func (e *AnalysisError) Is(target error) bool {
	switch e.Kind {
	case KindInsufficientData:
		return target == ErrInsufficientData
	case KindFitFailure:
		return target == ErrFitFailure
	case KindInvalidConfiguration:
		return target == ErrInvalidConfiguration
	}
	return false
}

// InsufficientData builds an AnalysisError of kind KindInsufficientData.
func InsufficientData(op, format string, args ...any) error {
	return &AnalysisError{Kind: KindInsufficientData, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// FitFailure builds an AnalysisError of kind KindFitFailure wrapping an optional cause.
func FitFailure(op string, cause error, format string, args ...any) error {
	return &AnalysisError{Kind: KindFitFailure, Op: op, Msg: fmt.Sprintf(format, args...), Cause: cause}
}

// InvalidConfiguration builds an AnalysisError of kind KindInvalidConfiguration.
func InvalidConfiguration(op, format string, args ...any) error {
	return &AnalysisError{Kind: KindInvalidConfiguration, Op: op, Msg: fmt.Sprintf(format, args...)}
}
