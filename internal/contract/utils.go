package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
)

// Significance label constants.
const (
	StrongValue        = "Strong"        // p below a tenth of alpha
	SignificantValue   = "Significant"   // p below alpha
	MarginalValue      = "Marginal"      // p below twice alpha
	InsignificantValue = "Insignificant" // everything else
)

// Color variables for console output.
var (
	StrongColor        = color.New(color.FgRed, color.Bold)
	SignificantColor   = color.New(color.FgMagenta, color.Bold)
	MarginalColor      = color.New(color.FgYellow)
	InsignificantColor = color.New(color.FgCyan)
)

// GetPlainLabel returns a plain text label describing how strongly a p-value
// rejects the null hypothesis at the given alpha. This is the core logic used for
// CSV, JSON, and table printing.
func GetPlainLabel(pValue, alpha float64) string {
	switch {
	case pValue < alpha/10:
		return StrongValue
	case pValue < alpha:
		return SignificantValue
	case pValue < 2*alpha:
		return MarginalValue
	default:
		return InsignificantValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(pValue, alpha float64) string {
	text := GetPlainLabel(pValue, alpha)

	switch text {
	case StrongValue:
		return StrongColor.Sprint(text)
	case SignificantValue:
		return SignificantColor.Sprint(text)
	case MarginalValue:
		return MarginalColor.Sprint(text)
	default:
		return InsignificantColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".segreg_history.db"
	}
	return filepath.Join(homeDir, ".segreg_history.db")
}

// TruncateLabel truncates a label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
