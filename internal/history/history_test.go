package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/segreg/internal/parquet"
	"github.com/huangsam/segreg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFit() schema.ModelFit {
	return schema.ModelFit{
		Coefficients: []schema.Coefficient{
			{Name: schema.Intercept, Estimate: 9800, StdError: 410, RobustSE: 395, TStat: 24.8, PValue: 0.0001},
			{Name: schema.Time, Estimate: 560, StdError: 22, RobustSE: 20, TStat: 28, PValue: 0.0001},
			{Name: schema.LevelShift, Estimate: -300, StdError: 700, RobustSE: 650, TStat: -0.46, PValue: 0.65},
			{Name: schema.TrendShift, Estimate: -610, StdError: 120, RobustSE: 110, TStat: -5.5, PValue: 0.00001},
		},
		Rho:              0.21,
		Iterations:       4,
		Converged:        true,
		Observations:     36,
		Cutover:          29,
		DegreesOfFreedom: 32,
	}
}

func TestHistoryStore_NoneBackend(t *testing.T) {
	store, err := NewHistoryStore(schema.NoneBackend, "")
	require.NoError(t, err)
	require.NotNil(t, store)

	runID, err := store.BeginRun(time.Now(), map[string]any{"periods": 36})
	assert.NoError(t, err)
	assert.Equal(t, int64(0), runID)

	assert.NoError(t, store.EndRun(1, time.Now(), sampleFit()))
	assert.NoError(t, store.RecordCoefficients(1, sampleFit().Coefficients))

	status, err := store.GetStatus()
	assert.NoError(t, err)
	assert.False(t, status.Connected)
	assert.Equal(t, string(schema.NoneBackend), status.Backend)

	runs, err := store.GetAllRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)

	assert.NoError(t, store.Close())
}

func TestHistoryStore_SQLite(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	startTime := time.Now().Add(-2 * time.Second)
	runID, err := store.BeginRun(startTime, map[string]any{"periods": 36, "cutover": 29})
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	fit := sampleFit()
	require.NoError(t, store.RecordCoefficients(runID, fit.Coefficients))
	require.NoError(t, store.EndRun(runID, time.Now(), fit))

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, runID, run.RunID)
	assert.Equal(t, int32(36), run.Observations)
	assert.Equal(t, int32(29), run.Cutover)
	assert.Equal(t, int32(4), run.Iterations)
	assert.InDelta(t, 0.21, run.Rho, 1e-12)
	assert.True(t, run.Converged)
	require.NotNil(t, run.EndTime)
	require.NotNil(t, run.RunDurationMs)
	assert.GreaterOrEqual(t, *run.RunDurationMs, int32(2000))
	require.NotNil(t, run.ConfigParams)

	var params map[string]any
	require.NoError(t, json.Unmarshal([]byte(*run.ConfigParams), &params))
	assert.Equal(t, float64(29), params["cutover"])

	coefficients, err := store.GetAllCoefficients()
	require.NoError(t, err)
	require.Len(t, coefficients, len(schema.ModelTerms))
	byName := make(map[string]schema.CoefficientRecord)
	for _, c := range coefficients {
		byName[c.Name] = c
	}
	assert.InDelta(t, -610.0, byName[string(schema.TrendShift)].Estimate, 1e-12)
	assert.InDelta(t, 110.0, byName[string(schema.TrendShift)].RobustSE, 1e-12)
}

func TestHistoryStore_SQLiteStatus(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalRuns)

	first := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var lastID int64
	for i := range 3 {
		id, err := store.BeginRun(first.Add(time.Duration(i)*time.Hour), map[string]any{"run": i})
		require.NoError(t, err)
		fit := sampleFit()
		fit.Converged = i != 1
		require.NoError(t, store.EndRun(id, first.Add(time.Duration(i)*time.Hour+time.Second), fit))
		lastID = id
	}

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, status.TotalRuns)
	assert.Equal(t, lastID, status.LastRunID)
	assert.Equal(t, 2, status.ConvergedRuns)
	assert.True(t, status.OldestRunTime.Equal(first))
	assert.True(t, status.LastRunTime.Equal(first.Add(2*time.Hour)))
	assert.Equal(t, int64(3), status.TableSizes[runsTable])
	assert.Equal(t, int64(0), status.TableSizes[coefficientsTable])
}

func TestHistoryStore_DuplicateCoefficient(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	runID, err := store.BeginRun(time.Now(), nil)
	require.NoError(t, err)

	coefficient := sampleFit().Coefficients[0]
	err = store.RecordCoefficients(runID, []schema.Coefficient{coefficient, coefficient})
	assert.Error(t, err)

	// The failed batch is rolled back as a whole
	rows, err := store.GetAllCoefficients()
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInitHistoryAndManager(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, InitHistory(schema.SQLiteBackend, dbPath))
	defer CloseHistory()

	store := Manager.GetHistoryStore()
	require.NotNil(t, store)
	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, string(schema.SQLiteBackend), status.Backend)
}

func TestMigrateHistory_NoneBackend(t *testing.T) {
	err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Already at latest
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))

	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 2))

	// Migrated databases still accept runs
	store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.BeginRun(time.Now(), map[string]any{})
	assert.NoError(t, err)
}

func TestClearHistory(t *testing.T) {
	t.Run("sqlite removes file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "clear.db")
		store, err := NewHistoryStore(schema.SQLiteBackend, dbPath)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		require.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
		_, err = os.Stat(dbPath)
		assert.True(t, os.IsNotExist(err))

		// Clearing a missing file is fine
		assert.NoError(t, ClearHistory(schema.SQLiteBackend, dbPath, ""))
	})

	t.Run("sqlite requires path", func(t *testing.T) {
		assert.Error(t, ClearHistory(schema.SQLiteBackend, "", ""))
	})

	t.Run("none is a no-op", func(t *testing.T) {
		assert.NoError(t, ClearHistory(schema.NoneBackend, "", ""))
	})

	t.Run("unknown backend", func(t *testing.T) {
		assert.Error(t, ClearHistory(schema.DatabaseBackend("oracle"), "", ""))
	})
}

func TestPlaceholderAndQuoting(t *testing.T) {
	tests := []struct {
		backend     schema.DatabaseBackend
		placeholder string
		quoted      string
	}{
		{schema.SQLiteBackend, "?", `"segreg_runs"`},
		{schema.MySQLBackend, "?", "`segreg_runs`"},
		{schema.PostgreSQLBackend, "$3", `"segreg_runs"`},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.placeholder, placeholder(tt.backend, 3))
			assert.Equal(t, tt.quoted, quoteTableName(runsTable, tt.backend))
		})
	}
}

func TestExecuteHistoryExport(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		err := ExecuteHistoryExport(&MockHistoryStore{}, "")
		assert.ErrorContains(t, err, "--output-file is required")
	})

	t.Run("empty history", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true}, nil)
		err := ExecuteHistoryExport(store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorContains(t, err, "no run history found")
		store.AssertExpectations(t)
	})

	t.Run("writes parquet files", func(t *testing.T) {
		store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		runID, err := store.BeginRun(time.Now(), map[string]any{"seed": 42})
		require.NoError(t, err)
		fit := sampleFit()
		require.NoError(t, store.RecordCoefficients(runID, fit.Coefficients))
		require.NoError(t, store.EndRun(runID, time.Now(), fit))

		out := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteHistoryExport(store, out))

		runs, err := parquet.ReadRunsParquet(out + ".runs.parquet")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, runID, runs[0].RunID)

		coefficients, err := parquet.ReadCoefficientsParquet(out + ".coefficients.parquet")
		require.NoError(t, err)
		assert.Len(t, coefficients, len(fit.Coefficients))
	})

	t.Run("store failure", func(t *testing.T) {
		store := &MockHistoryStore{}
		store.On("GetStatus").Return(schema.HistoryStatus{Backend: "sqlite", Connected: true, TotalRuns: 1}, nil)
		store.On("GetAllRuns").Return(nil, assert.AnError)
		err := ExecuteHistoryExport(store, filepath.Join(t.TempDir(), "out"))
		assert.ErrorIs(t, err, assert.AnError)
		store.AssertNotCalled(t, "GetAllCoefficients")
	})
}
