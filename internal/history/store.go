package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
)

// Table names for run history.
const (
	runsTable         = "segreg_runs"
	coefficientsTable = "segreg_coefficients"
	migrationsTable   = "schema_migrations"
)

// HistoryStoreImpl implements the HistoryStore interface.
type HistoryStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.HistoryStore = &HistoryStoreImpl{} // Compile-time check

// NewHistoryStore creates a new HistoryStore with the specified backend.
func NewHistoryStore(backend schema.DatabaseBackend, connStr string) (contract.HistoryStore, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &HistoryStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr)
	if err != nil {
		return nil, err
	}

	if err := createHistoryTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return &HistoryStoreImpl{db: db, backend: backend}, nil
}

// createHistoryTables creates the run history tables.
func createHistoryTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{runsTable, getCreateRunsQuery(backend)},
		{coefficientsTable, getCreateCoefficientsQuery(backend)},
	}

	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}

	return nil
}

// getCreateRunsQuery returns the CREATE TABLE query for segreg_runs.
func getCreateRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(runsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				observations INT NOT NULL DEFAULT 0,
				cutover INT NOT NULL DEFAULT 0,
				rho DOUBLE NOT NULL DEFAULT 0,
				iterations INT NOT NULL DEFAULT 0,
				converged BOOLEAN NOT NULL DEFAULT FALSE,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				observations INT NOT NULL DEFAULT 0,
				cutover INT NOT NULL DEFAULT 0,
				rho DOUBLE PRECISION NOT NULL DEFAULT 0,
				iterations INT NOT NULL DEFAULT 0,
				converged BOOLEAN NOT NULL DEFAULT FALSE,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				observations INTEGER NOT NULL DEFAULT 0,
				cutover INTEGER NOT NULL DEFAULT 0,
				rho REAL NOT NULL DEFAULT 0,
				iterations INTEGER NOT NULL DEFAULT 0,
				converged INTEGER NOT NULL DEFAULT 0,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateCoefficientsQuery returns the CREATE TABLE query for segreg_coefficients.
func getCreateCoefficientsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(coefficientsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				name VARCHAR(32) NOT NULL,
				estimate DOUBLE NOT NULL,
				std_error DOUBLE NOT NULL,
				robust_std_error DOUBLE NOT NULL,
				t_stat DOUBLE NOT NULL,
				p_value DOUBLE NOT NULL,
				PRIMARY KEY (run_id, name)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				name TEXT NOT NULL,
				estimate DOUBLE PRECISION NOT NULL,
				std_error DOUBLE PRECISION NOT NULL,
				robust_std_error DOUBLE PRECISION NOT NULL,
				t_stat DOUBLE PRECISION NOT NULL,
				p_value DOUBLE PRECISION NOT NULL,
				PRIMARY KEY (run_id, name)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				name TEXT NOT NULL,
				estimate REAL NOT NULL,
				std_error REAL NOT NULL,
				robust_std_error REAL NOT NULL,
				t_stat REAL NOT NULL,
				p_value REAL NOT NULL,
				PRIMARY KEY (run_id, name)
			);
		`, quotedTableName)
	}
}

// placeholders returns a comma-separated list of n bind parameters.
func (hs *HistoryStoreImpl) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = placeholder(hs.backend, i+1)
	}
	return strings.Join(parts, ", ")
}

// disabled reports whether the store is a no-op.
func (hs *HistoryStoreImpl) disabled() bool {
	return hs.backend == schema.NoneBackend || hs.db == nil
}

// BeginRun creates a new run and returns its unique ID.
func (hs *HistoryStoreImpl) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	if hs.disabled() {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	query := fmt.Sprintf(`INSERT INTO %s (start_time, config_params) VALUES (%s)`, quotedTableName, hs.placeholders(2))
	args := []any{formatTime(startTime, hs.backend), string(configJSON)}

	var runID int64
	switch hs.backend {
	case schema.PostgreSQLBackend:
		err = hs.db.QueryRow(query+" RETURNING run_id", args...).Scan(&runID)
	default: // SQLite and MySQL
		var result sql.Result
		result, err = hs.db.Exec(query, args...)
		if err == nil {
			runID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	return runID, nil
}

// EndRun updates the run with completion data from the fitted model.
func (hs *HistoryStoreImpl) EndRun(runID int64, endTime time.Time, fit schema.ModelFit) error {
	if hs.disabled() {
		return nil
	}

	quotedTableName := quoteTableName(runsTable, hs.backend)
	row := hs.db.QueryRow(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = %s`,
		quotedTableName, placeholder(hs.backend, 1)), runID)
	startTime, err := scanTime(row, hs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	p := func(n int) string { return placeholder(hs.backend, n) }
	updateQuery := fmt.Sprintf(
		`UPDATE %s SET end_time = %s, run_duration_ms = %s, observations = %s, cutover = %s,
		rho = %s, iterations = %s, converged = %s WHERE run_id = %s`,
		quotedTableName, p(1), p(2), p(3), p(4), p(5), p(6), p(7), p(8))
	args := []any{
		formatTime(endTime, hs.backend), durationMs, fit.Observations, fit.Cutover,
		fit.Rho, fit.Iterations, fit.Converged, runID,
	}

	if _, err := hs.db.Exec(updateQuery, args...); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return nil
}

// RecordCoefficients stores the coefficient table of a run.
func (hs *HistoryStoreImpl) RecordCoefficients(runID int64, coefficients []schema.Coefficient) error {
	if hs.disabled() {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, name, estimate, std_error, robust_std_error, t_stat, p_value)
		VALUES (%s)
	`, quoteTableName(coefficientsTable, hs.backend), hs.placeholders(7))

	tx, err := hs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, c := range coefficients {
		if _, err := tx.Exec(query, runID, string(c.Name), c.Estimate, c.StdError, c.RobustSE, c.TStat, c.PValue); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert coefficient %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit coefficients: %w", err)
	}

	return nil
}

// Close closes the underlying connection.
func (hs *HistoryStoreImpl) Close() error {
	if hs.db != nil {
		return hs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the history store.
func (hs *HistoryStoreImpl) GetStatus() (schema.HistoryStatus, error) {
	status := schema.HistoryStatus{
		Backend:    string(hs.backend),
		Connected:  hs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if hs.disabled() {
		return status, nil
	}

	quotedRuns := quoteTableName(runsTable, hs.backend)
	if err := hs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quotedRuns)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := hs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		var err error
		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", quotedRuns))
		if status.LastRunTime, err = scanTime(row, hs.backend); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}

		row = hs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", quotedRuns))
		if status.OldestRunTime, err = scanTime(row, hs.backend); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}

		convergedQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE converged = %s", quotedRuns, placeholder(hs.backend, 1))
		if err := hs.db.QueryRow(convergedQuery, true).Scan(&status.ConvergedRuns); err != nil {
			return status, fmt.Errorf("failed to get converged runs: %w", err)
		}
	}

	for _, table := range []string{runsTable, coefficientsTable} {
		countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, hs.backend))
		var count int64
		if err := hs.db.QueryRow(countQuery).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllRuns retrieves all runs from the store.
func (hs *HistoryStoreImpl) GetAllRuns() ([]schema.RunRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, start_time, end_time, run_duration_ms, observations, cutover,
		rho, iterations, converged, config_params FROM %s ORDER BY run_id`, quoteTableName(runsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.RunRecord
	for rows.Next() {
		var record schema.RunRecord
		switch hs.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &startTimeStr, &endTimeStr, &record.RunDurationMs, &record.Observations,
				&record.Cutover, &record.Rho, &record.Iterations, &record.Converged, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.Observations,
				&record.Cutover, &record.Rho, &record.Iterations, &record.Converged, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan run: %w", err)
			}
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return results, nil
}

// GetAllCoefficients retrieves all coefficient rows ordered by run and name.
func (hs *HistoryStoreImpl) GetAllCoefficients() ([]schema.CoefficientRecord, error) {
	if hs.disabled() {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, name, estimate, std_error, robust_std_error, t_stat, p_value
		FROM %s ORDER BY run_id, name`, quoteTableName(coefficientsTable, hs.backend))
	rows, err := hs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query coefficients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.CoefficientRecord
	for rows.Next() {
		var record schema.CoefficientRecord
		if err := rows.Scan(&record.RunID, &record.Name, &record.Estimate, &record.StdError,
			&record.RobustSE, &record.TStat, &record.PValue); err != nil {
			return nil, fmt.Errorf("failed to scan coefficient: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coefficients: %w", err)
	}

	return results, nil
}

// scanTime reads a single timestamp column, parsing SQLite's text representation.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	switch backend {
	case schema.SQLiteBackend:
		return t.Format(time.RFC3339Nano)
	default:
		return t
	}
}
