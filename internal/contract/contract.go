// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/segreg/schema"
)

// HistoryManager defines the interface for reaching the run history store.
// This allows the persistence layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for tracking fit runs and their coefficients.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data from the fitted model
	EndRun(runID int64, endTime time.Time, fit schema.ModelFit) error

	// RecordCoefficients stores the coefficient table of a run
	RecordCoefficients(runID int64, coefficients []schema.Coefficient) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllCoefficients returns every stored coefficient row ordered by run and name
	GetAllCoefficients() ([]schema.CoefficientRecord, error)

	// Close closes the underlying connection
	Close() error
}
