// Package parquet provides data structures and functions for exchanging series
// and run history as Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/segreg/schema"
	"github.com/parquet-go/parquet-go"
)

// SeriesRow is one observation of an interrupted time series.
type SeriesRow struct {
	Index   int32   `parquet:"index,snappy"`
	Label   string  `parquet:"label,snappy"`
	Outcome float64 `parquet:"outcome,snappy"`
	Flag    int32   `parquet:"flag,snappy"`
	Post    int32   `parquet:"post,snappy"`
}

// Run represents a single fit recorded in the run history.
// This struct maps to the segreg_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	Observations int32   `parquet:"observations,snappy"`
	Cutover      int32   `parquet:"cutover,snappy"`
	Rho          float64 `parquet:"rho,snappy"`
	Iterations   int32   `parquet:"iterations,snappy"`
	Converged    bool    `parquet:"converged,snappy"`

	// ConfigParams contains the JSON-encoded run parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// Coefficient is one estimated term of a recorded run.
// This struct maps to the segreg_coefficients database table.
type Coefficient struct {
	RunID    int64   `parquet:"run_id,snappy"`
	Name     string  `parquet:"name,snappy"`
	Estimate float64 `parquet:"estimate,snappy"`
	StdError float64 `parquet:"std_error,snappy"`
	RobustSE float64 `parquet:"robust_std_error,snappy"`
	TStat    float64 `parquet:"t_stat,snappy"`
	PValue   float64 `parquet:"p_value,snappy"`
}

// writeRows writes rows of any Parquet-tagged struct to w.
func writeRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeFile creates outputPath and writes rows to it.
func writeFile[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := writeRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// readFile reads every row of a Parquet file.
func readFile[T any](inputPath string) ([]T, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read parquet rows: %w", err)
	}
	return rows[:n], nil
}

// WriteSeries writes a series to w in Parquet format.
func WriteSeries(w io.Writer, s schema.Series) error {
	return writeRows(w, ConvertSeries(s))
}

// WriteSeriesParquet writes a series to a Parquet file.
func WriteSeriesParquet(s schema.Series, outputPath string) error {
	return writeFile(ConvertSeries(s), outputPath)
}

// ReadSeriesParquet reads observations from a Parquet file written by WriteSeriesParquet.
// The caller validates them against a cutover.
func ReadSeriesParquet(inputPath string) ([]schema.Observation, error) {
	rows, err := readFile[SeriesRow](inputPath)
	if err != nil {
		return nil, err
	}
	obs := make([]schema.Observation, len(rows))
	for i, row := range rows {
		obs[i] = schema.Observation{
			Index:   int(row.Index),
			Label:   row.Label,
			Outcome: row.Outcome,
			Flag:    int(row.Flag),
			Post:    int(row.Post),
		}
	}
	return obs, nil
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// ReadRunsParquet reads runs written by WriteRunsParquet.
func ReadRunsParquet(inputPath string) ([]Run, error) {
	return readFile[Run](inputPath)
}

// ReadCoefficientsParquet reads coefficient rows written by WriteCoefficientsParquet.
func ReadCoefficientsParquet(inputPath string) ([]Coefficient, error) {
	return readFile[Coefficient](inputPath)
}

// WriteCoefficientsParquet writes a slice of Coefficient structs to a Parquet file.
func WriteCoefficientsParquet(data []Coefficient, outputPath string) error {
	return writeFile(data, outputPath)
}

// ConvertSeries converts a series to Parquet rows.
func ConvertSeries(s schema.Series) []SeriesRow {
	rows := make([]SeriesRow, len(s.Observations))
	for i, o := range s.Observations {
		rows[i] = SeriesRow{
			Index:   int32(o.Index),
			Label:   o.Label,
			Outcome: o.Outcome,
			Flag:    int32(o.Flag),
			Post:    int32(o.Post),
		}
	}
	return rows
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			Observations:  record.Observations,
			Cutover:       record.Cutover,
			Rho:           record.Rho,
			Iterations:    record.Iterations,
			Converged:     record.Converged,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertCoefficientRecords converts schema.CoefficientRecord to Coefficient for Parquet export.
func ConvertCoefficientRecords(records []schema.CoefficientRecord) []Coefficient {
	result := make([]Coefficient, len(records))
	for i, record := range records {
		result[i] = Coefficient(record)
	}
	return result
}
