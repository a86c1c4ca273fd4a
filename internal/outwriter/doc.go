// Package outwriter renders series and fitted models as tables, CSV, JSON, YAML
// and Parquet.
package outwriter
