package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string

	// CoefficientName identifies a term of the segmented regression model.
	CoefficientName string
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	YAMLOut    OutputMode = "yaml"
	ParquetOut OutputMode = "parquet" // series only
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Model terms in design-matrix column order.
const (
	Intercept  CoefficientName = "intercept"
	Time       CoefficientName = "time"
	LevelShift CoefficientName = "level_shift"
	TrendShift CoefficientName = "trend_shift"
)

// ModelTerms lists the regression terms in design-matrix column order.
var ModelTerms = []CoefficientName{Intercept, Time, LevelShift, TrendShift}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	YAMLOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Default simulation values match the quarterly hospitalization scenario (2010.1 to 2018.4).
const (
	DefaultPeriods      = 36
	DefaultStartValue   = 10000.0
	DefaultEndValue     = 30000.0
	DefaultCutover      = 29
	DefaultMaxEffect    = -5000.0
	DefaultNoiseSD      = 1000.0
	DefaultSeed         = 42
	DefaultStartYear    = 2010
	DefaultStartQuarter = 1
)

// Default estimation values.
const (
	DefaultTolerance     = 1e-5
	DefaultMaxIterations = 100
	DefaultAlpha         = 0.05
)
