package series

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/huangsam/segreg/internal/contract"
	"github.com/huangsam/segreg/schema"
)

// CSVHeader is the column order used when writing a series.
var CSVHeader = []string{"index", "label", "outcome", "flag", "post"}

// ReadCSV parses a headed CSV series. The outcome column is required. Label, index,
// flag and post are optional: missing ones are derived from the cutover and present
// ones are validated against it.
func ReadCSV(r io.Reader, cutover int) (schema.Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return schema.Series{}, contract.InvalidConfiguration("read csv", "input is empty")
		}
		return schema.Series{}, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	outcomeCol, ok := cols["outcome"]
	if !ok {
		return schema.Series{}, contract.InvalidConfiguration("read csv", "missing required column 'outcome'")
	}

	var obs []schema.Observation
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schema.Series{}, fmt.Errorf("read csv line %d: %w", line, err)
		}

		o := schema.Observation{Index: len(obs) + 1}
		o.Label = strconv.Itoa(o.Index)
		if o.Outcome, err = strconv.ParseFloat(strings.TrimSpace(record[outcomeCol]), 64); err != nil {
			return schema.Series{}, contract.InvalidConfiguration("read csv", "line %d: invalid outcome %q", line, record[outcomeCol])
		}
		if i, ok := cols["label"]; ok {
			o.Label = strings.TrimSpace(record[i])
		}
		o.Flag, o.Post = Indicators(o.Index, cutover)
		for name, dst := range map[string]*int{"index": &o.Index, "flag": &o.Flag, "post": &o.Post} {
			i, ok := cols[name]
			if !ok {
				continue
			}
			if *dst, err = strconv.Atoi(strings.TrimSpace(record[i])); err != nil {
				return schema.Series{}, contract.InvalidConfiguration("read csv", "line %d: invalid %s %q", line, name, record[i])
			}
		}
		obs = append(obs, o)
	}

	s := schema.Series{Observations: obs, Cutover: cutover}
	if err := ValidateLoaded(s); err != nil {
		return schema.Series{}, err
	}
	return s, nil
}
