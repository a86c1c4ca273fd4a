package contract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		pValue   float64
		expected string
	}{
		{name: "zero", pValue: 0.0, expected: StrongValue},
		{name: "just below strong cutoff", pValue: 0.0049, expected: StrongValue},
		{name: "exactly strong cutoff", pValue: 0.005, expected: SignificantValue},
		{name: "just below alpha", pValue: 0.0499, expected: SignificantValue},
		{name: "exactly alpha", pValue: 0.05, expected: MarginalValue},
		{name: "just below twice alpha", pValue: 0.0999, expected: MarginalValue},
		{name: "exactly twice alpha", pValue: 0.1, expected: InsignificantValue},
		{name: "one", pValue: 1.0, expected: InsignificantValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.pValue, 0.05))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	tests := []struct {
		name   string
		pValue float64
		label  string
	}{
		{"strong", 0.0001, StrongValue},
		{"significant", 0.01, SignificantValue},
		{"marginal", 0.07, MarginalValue},
		{"insignificant", 0.5, InsignificantValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GetColorLabel(tt.pValue, 0.05)
			// Should contain the plain label
			assert.Contains(t, result, tt.label)
		})
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path uses stdout", func(t *testing.T) {
		f, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, f)
	})

	t.Run("creates file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		f, err := SelectOutputFile(path)
		require.NoError(t, err)
		defer func() { _ = f.Close() }()
		assert.FileExists(t, path)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		_, err := SelectOutputFile(filepath.Join(t.TempDir(), "missing", "out.csv"))
		assert.Error(t, err)
	})
}

func TestGetHistoryDBFilePath(t *testing.T) {
	path := GetHistoryDBFilePath()
	assert.True(t, strings.HasSuffix(path, ".segreg_history.db"))
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		label    string
		width    int
		expected string
	}{
		{"2010.1", 10, "2010.1"},
		{"quarter-2010-1", 8, "quart..."},
		{"abcdef", 3, "abcdef"},
		{"ünïcödé", 5, "ün..."},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateLabel(tt.label, tt.width))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
		wantErr  bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBoolString(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
