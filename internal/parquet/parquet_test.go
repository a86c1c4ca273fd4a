package parquet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/segreg/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSeries() schema.Series {
	return schema.Series{
		Observations: []schema.Observation{
			{Index: 1, Label: "2010.1", Outcome: 10120},
			{Index: 2, Label: "2010.2", Outcome: 10380},
			{Index: 3, Label: "2010.3", Outcome: 11050, Flag: 1, Post: 1},
			{Index: 4, Label: "2010.4", Outcome: 10990, Flag: 1, Post: 2},
		},
		Cutover: 3,
	}
}

func sampleRuns() []Run {
	now := time.Now()
	start := now.Add(-time.Minute)
	durationMs := int32(now.Sub(start).Milliseconds())
	params := `{"cutover":29,"seed":42}`
	return []Run{
		{
			RunID: 1, StartTime: start, EndTime: &now, RunDurationMs: &durationMs,
			Observations: 36, Cutover: 29, Rho: 0.12, Iterations: 4, Converged: true, ConfigParams: &params,
		},
		{
			RunID: 2, StartTime: now, Observations: 0, Cutover: 29,
		},
	}
}

func TestStructTags(t *testing.T) {
	tests := []struct {
		name    string
		model   any
		columns []string
	}{
		{"series", new(SeriesRow), []string{"index", "label", "outcome", "flag", "post"}},
		{"runs", new(Run), []string{
			"run_id", "start_time", "end_time", "run_duration_ms", "observations",
			"cutover", "rho", "iterations", "converged", "config_params",
		}},
		{"coefficients", new(Coefficient), []string{
			"run_id", "name", "estimate", "std_error", "robust_std_error", "t_stat", "p_value",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := parquet.SchemaOf(tt.model)
			require.NotNil(t, s)
			for _, colName := range tt.columns {
				_, ok := s.Lookup(colName)
				assert.True(t, ok, "Column %s should exist in schema", colName)
			}
		})
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "series.parquet")
	s := sampleSeries()

	require.NoError(t, WriteSeriesParquet(s, outputPath))
	obs, err := ReadSeriesParquet(outputPath)
	require.NoError(t, err)
	assert.Equal(t, s.Observations, obs)
}

func TestWriteSeriesToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSeries(&buf, sampleSeries()))
	assert.Greater(t, buf.Len(), 0)
	// Parquet files start and end with the PAR1 magic.
	assert.Equal(t, "PAR1", buf.String()[:4])
}

func TestReadSeriesParquetMissingFile(t *testing.T) {
	_, err := ReadSeriesParquet(filepath.Join(t.TempDir(), "missing.parquet"))
	assert.Error(t, err)
}

func TestWriteRunsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "runs.parquet")
	data := sampleRuns()
	require.NoError(t, WriteRunsParquet(data, outputPath))

	readData, err := readFile[Run](outputPath)
	require.NoError(t, err)
	require.Len(t, readData, len(data))

	for i := range data {
		assert.Equal(t, data[i].RunID, readData[i].RunID)
		assert.Equal(t, data[i].Converged, readData[i].Converged)
		assert.InDelta(t, data[i].Rho, readData[i].Rho, 1e-12)
		if data[i].EndTime == nil {
			assert.Nil(t, readData[i].EndTime, "EndTime should be nil")
		} else {
			require.NotNil(t, readData[i].EndTime)
			assert.WithinDuration(t, *data[i].EndTime, *readData[i].EndTime, time.Microsecond)
		}
		if data[i].ConfigParams == nil {
			assert.Nil(t, readData[i].ConfigParams)
		} else {
			require.NotNil(t, readData[i].ConfigParams)
			assert.Equal(t, *data[i].ConfigParams, *readData[i].ConfigParams)
		}
	}
}

func TestWriteCoefficientsParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "coefficients.parquet")
	records := []schema.CoefficientRecord{
		{RunID: 1, Name: "intercept", Estimate: 9800, StdError: 410, RobustSE: 390, TStat: 25.1, PValue: 1e-20},
		{RunID: 1, Name: "trend_shift", Estimate: -690, StdError: 160, RobustSE: 150, TStat: -4.6, PValue: 6e-5},
	}
	data := ConvertCoefficientRecords(records)
	require.NoError(t, WriteCoefficientsParquet(data, outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	readData, err := readFile[Coefficient](outputPath)
	require.NoError(t, err)
	assert.Equal(t, data, readData)
}

func TestWriteRunsParquet_EmptyData(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteRunsParquet([]Run{}, outputPath))
	readData, err := readFile[Run](outputPath)
	require.NoError(t, err)
	assert.Empty(t, readData)
}

func TestConvertRunRecords(t *testing.T) {
	end := time.Now()
	records := []schema.RunRecord{{RunID: 7, StartTime: end.Add(-time.Second), EndTime: &end, Observations: 36, Cutover: 29, Converged: true}}
	runs := ConvertRunRecords(records)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].RunID)
	assert.Equal(t, &end, runs[0].EndTime)
	assert.True(t, runs[0].Converged)
}
