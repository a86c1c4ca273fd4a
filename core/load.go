package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/segreg/core/series"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/parquet"
	"github.com/huangsam/segreg/schema"
)

// LoadSeries reads a series from a CSV or Parquet file and validates it against the cutover.
func LoadSeries(path string, cutover int) (schema.Series, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return schema.Series{}, fmt.Errorf("failed to open input file: %w", err)
		}
		defer func() { _ = file.Close() }()
		return series.ReadCSV(file, cutover)

	case ".parquet":
		obs, err := parquet.ReadSeriesParquet(path)
		if err != nil {
			return schema.Series{}, err
		}
		s := schema.Series{Observations: obs, Cutover: cutover}
		if err := series.ValidateLoaded(s); err != nil {
			return schema.Series{}, err
		}
		return s, nil

	default:
		return schema.Series{}, contract.InvalidConfiguration("load",
			"unsupported input format %q for %s. must be .csv or .parquet", ext, path)
	}
}
