package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/segreg/core/series"
	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/internal/parquet"
	"github.com/huangsam/segreg/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSeries outputs a series, dispatching based on the output format configured.
func WriteSeries(s schema.Series, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, s)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.YAMLOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, s)
		}, "Wrote YAML"); err != nil {
			return fmt.Errorf("error writing YAML output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeriesCSV(w, s, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteSeries(w, s)
		}, "Wrote Parquet"); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		// Default to human-readable table
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeriesTable(w, s, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// writeSeriesCSV writes a series with the same columns series.ReadCSV accepts.
func writeSeriesCSV(w io.Writer, s schema.Series, fmtFloat func(float64) string, intFmt string) error {
	return writeCSVWithHeader(w, series.CSVHeader, func(cw *csv.Writer) error {
		for _, o := range s.Observations {
			rec := []string{
				strconv.Itoa(o.Index),
				o.Label,
				fmtFloat(o.Outcome),
				fmt.Sprintf(intFmt, o.Flag),
				fmt.Sprintf(intFmt, o.Post),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSeriesTable generates and writes the human-readable series table.
func writeSeriesTable(w io.Writer, s schema.Series, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Index", "Period", "Outcome", "Flag", "Post"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := getMaxTableLabelWidth(cfg)
	var data [][]string
	for _, o := range s.Observations {
		data = append(data, []string{
			strconv.Itoa(o.Index),
			contract.TruncateLabel(o.Label, labelWidth),
			fmtFloat(o.Outcome),
			fmt.Sprintf(intFmt, o.Flag),
			fmt.Sprintf(intFmt, o.Post),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	flagged := 0
	for _, o := range s.Observations {
		flagged += o.Flag
	}
	if _, err := fmt.Fprintf(w, "Showing %d periods (%d before cutover, %d from cutover %d)\n",
		s.Len(), s.Len()-flagged, flagged, s.Cutover); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Series ready in %v\n", duration)
	return err
}
