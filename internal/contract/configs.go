package contract

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/huangsam/segreg/schema"
)

// Default values for presentation and charting.
const (
	DefaultPrecision   = 3
	MaxPrecision       = 8
	DefaultChartWidth  = 8.0 // inches
	DefaultChartHeight = 5.0 // inches
	DefaultChartFile   = "segreg_chart.svg"
)

// ValidChartFormats maps supported chart file extensions to their encoder names.
var ValidChartFormats = map[string]string{
	".svg": "svg",
	".png": "png",
	".pdf": "pdf",
}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	// InputFile is an optional CSV or Parquet series. Empty means simulate.
	InputFile string

	Periods      int
	StartValue   float64
	EndValue     float64
	Cutover      int
	MaxEffect    float64
	NoiseSD      float64
	Seed         uint64
	StartYear    int
	StartQuarter int

	Tolerance     float64
	MaxIterations int
	Alpha         float64

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)

	ChartFile   string
	ChartWidth  float64
	ChartHeight float64

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputFileStr string

	// --- Simulation flags ---
	Periods      int     `mapstructure:"periods"`
	StartValue   float64 `mapstructure:"start-value"`
	EndValue     float64 `mapstructure:"end-value"`
	Cutover      int     `mapstructure:"cutover"`
	MaxEffect    float64 `mapstructure:"max-effect"`
	NoiseSD      float64 `mapstructure:"noise-sd"`
	Seed         uint64  `mapstructure:"seed"`
	StartYear    int     `mapstructure:"start-year"`
	StartQuarter int     `mapstructure:"start-quarter"`

	// --- Estimation flags ---
	Tolerance     float64 `mapstructure:"tolerance"`
	MaxIterations int     `mapstructure:"max-iterations"`
	Alpha         float64 `mapstructure:"alpha"`

	// --- Output flags ---
	Output      string  `mapstructure:"output"`
	OutputFile  string  `mapstructure:"output-file"`
	Precision   int     `mapstructure:"precision"`
	Width       int     `mapstructure:"width"`
	Color       string  `mapstructure:"color"`
	ChartFile   string  `mapstructure:"chart-file"`
	ChartWidth  float64 `mapstructure:"chart-width"`
	ChartHeight float64 `mapstructure:"chart-height"`

	// --- History flags ---
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`
}

// Clone returns a copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// SimulationParams returns the generator parameters held by the config.
func (c *Config) SimulationParams() schema.SimulationParams {
	return schema.SimulationParams{
		Periods:      c.Periods,
		StartValue:   c.StartValue,
		EndValue:     c.EndValue,
		Cutover:      c.Cutover,
		MaxEffect:    c.MaxEffect,
		NoiseSD:      c.NoiseSD,
		Seed:         c.Seed,
		StartYear:    c.StartYear,
		StartQuarter: c.StartQuarter,
	}
}

// FitOptions returns the estimation options held by the config.
func (c *Config) FitOptions() schema.FitOptions {
	return schema.FitOptions{
		Tolerance:     c.Tolerance,
		MaxIterations: c.MaxIterations,
	}
}

// RunParams returns the parameters recorded alongside a history run.
func (c *Config) RunParams() map[string]any {
	params := map[string]any{
		"cutover":        c.Cutover,
		"tolerance":      c.Tolerance,
		"max_iterations": c.MaxIterations,
		"alpha":          c.Alpha,
	}
	if c.InputFile != "" {
		params["input_file"] = c.InputFile
		return params
	}
	params["periods"] = c.Periods
	params["start_value"] = c.StartValue
	params["end_value"] = c.EndValue
	params["max_effect"] = c.MaxEffect
	params["noise_sd"] = c.NoiseSD
	params["seed"] = c.Seed
	return params
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimulationInputs(cfg, input); err != nil {
		return err
	}
	if err := validateEstimationInputs(cfg, input); err != nil {
		return err
	}
	if err := validateOutputInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfig(cfg, input)
}

// RevalidateOverrides re-checks the simulation and estimation fields of a config
// whose values were changed after ProcessAndValidate, such as MCP tool arguments.
func RevalidateOverrides(cfg *Config) error {
	input := &ConfigRawInput{
		InputFileStr:  cfg.InputFile,
		Periods:       cfg.Periods,
		StartValue:    cfg.StartValue,
		EndValue:      cfg.EndValue,
		Cutover:       cfg.Cutover,
		MaxEffect:     cfg.MaxEffect,
		NoiseSD:       cfg.NoiseSD,
		Seed:          cfg.Seed,
		StartYear:     cfg.StartYear,
		StartQuarter:  cfg.StartQuarter,
		Tolerance:     cfg.Tolerance,
		MaxIterations: cfg.MaxIterations,
		Alpha:         cfg.Alpha,
	}
	scratch := &Config{}
	if err := validateSimulationInputs(scratch, input); err != nil {
		return err
	}
	return validateEstimationInputs(scratch, input)
}

// validateSimulationInputs checks the generator parameters.
// Cutover against periods is checked by the generator, and against file length by the loaders.
func validateSimulationInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.InputFile = strings.TrimSpace(input.InputFileStr)

	if input.Periods < 1 {
		return InvalidConfiguration("config", "periods must be at least 1 (received %d)", input.Periods)
	}
	if input.Cutover < 1 {
		return InvalidConfiguration("config", "cutover must be at least 1 (received %d)", input.Cutover)
	}
	if !(input.NoiseSD > 0) || math.IsInf(input.NoiseSD, 0) {
		return InvalidConfiguration("config", "noise-sd must be a positive finite number (received %g)", input.NoiseSD)
	}
	for name, v := range map[string]float64{
		"start-value": input.StartValue,
		"end-value":   input.EndValue,
		"max-effect":  input.MaxEffect,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return InvalidConfiguration("config", "%s must be finite (received %g)", name, v)
		}
	}
	if input.StartQuarter < 1 || input.StartQuarter > 4 {
		return InvalidConfiguration("config", "start-quarter must be between 1 and 4 (received %d)", input.StartQuarter)
	}

	cfg.Periods = input.Periods
	cfg.StartValue = input.StartValue
	cfg.EndValue = input.EndValue
	cfg.Cutover = input.Cutover
	cfg.MaxEffect = input.MaxEffect
	cfg.NoiseSD = input.NoiseSD
	cfg.Seed = input.Seed
	cfg.StartYear = input.StartYear
	cfg.StartQuarter = input.StartQuarter
	return nil
}

// validateEstimationInputs checks the Prais-Winsten loop controls and the test level.
func validateEstimationInputs(cfg *Config, input *ConfigRawInput) error {
	if !(input.Tolerance > 0) {
		return InvalidConfiguration("config", "tolerance must be positive (received %g)", input.Tolerance)
	}
	if input.MaxIterations < 1 {
		return InvalidConfiguration("config", "max-iterations must be at least 1 (received %d)", input.MaxIterations)
	}
	if !(input.Alpha > 0 && input.Alpha < 1) {
		return InvalidConfiguration("config", "alpha must be strictly between 0 and 1 (received %g)", input.Alpha)
	}
	cfg.Tolerance = input.Tolerance
	cfg.MaxIterations = input.MaxIterations
	cfg.Alpha = input.Alpha
	return nil
}

// validateOutputInputs checks presentation and chart settings.
func validateOutputInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, yaml, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	cfg.ChartFile = strings.TrimSpace(input.ChartFile)
	if cfg.ChartFile != "" {
		if _, err := ChartFormat(cfg.ChartFile); err != nil {
			return err
		}
	}
	if input.ChartWidth <= 0 || input.ChartHeight <= 0 {
		return fmt.Errorf("chart dimensions must be positive (received %gx%g)", input.ChartWidth, input.ChartHeight)
	}
	cfg.ChartWidth = input.ChartWidth
	cfg.ChartHeight = input.ChartHeight
	return nil
}

// ChartFormat returns the encoder name for a chart file based on its extension.
func ChartFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := ValidChartFormats[ext]
	if !ok {
		return "", fmt.Errorf("unsupported chart format %q for %s. must be .svg, .png, .pdf", ext, path)
	}
	return format, nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the run history backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		cfg.HistoryBackend = schema.NoneBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}
