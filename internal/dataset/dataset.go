// Package dataset reads and writes the flights CSV used for training.
package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"flight-delay/internal/common"
	"flight-delay/internal/flights"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Columns are the CSV columns the delay model reads, in output order.
var Columns = []string{
	common.ColumnAirline,
	common.ColumnFlightType,
	common.ColumnMonth,
	common.ColumnScheduledAt,
	common.ColumnActualAt,
}

// RowError points at the offending cell of a dataset. Row is 1-based and
// excludes the header.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ReadCSV parses a flights CSV. Extra columns are ignored; every column in
// Columns must be present.
func ReadCSV(r io.Reader) ([]flights.Record, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}

	cols := make(map[string][]string, len(Columns))
	names := df.Names()
	for _, name := range Columns {
		if !contains(names, name) {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[name] = df.Col(name).Records()
	}

	records := make([]flights.Record, df.Nrow())
	for i := range records {
		month, err := strconv.Atoi(strings.TrimSpace(cols[common.ColumnMonth][i]))
		if err != nil {
			return nil, &RowError{Row: i + 1, Column: common.ColumnMonth, Err: err}
		}
		records[i] = flights.Record{
			Airline:     cols[common.ColumnAirline][i],
			FlightType:  cols[common.ColumnFlightType][i],
			Month:       month,
			ScheduledAt: cols[common.ColumnScheduledAt][i],
			ActualAt:    cols[common.ColumnActualAt][i],
		}
	}
	return records, nil
}

// LoadCSV reads the dataset at path.
func LoadCSV(path string) ([]flights.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// WriteCSV writes records with the Columns header.
func WriteCSV(w io.Writer, records []flights.Record) error {
	airlines := make([]string, len(records))
	types := make([]string, len(records))
	months := make([]string, len(records))
	scheduled := make([]string, len(records))
	actual := make([]string, len(records))
	for i, r := range records {
		airlines[i] = r.Airline
		types[i] = r.FlightType
		months[i] = strconv.Itoa(r.Month)
		scheduled[i] = r.ScheduledAt
		actual[i] = r.ActualAt
	}

	df := dataframe.New(
		series.New(airlines, series.String, common.ColumnAirline),
		series.New(types, series.String, common.ColumnFlightType),
		series.New(months, series.String, common.ColumnMonth),
		series.New(scheduled, series.String, common.ColumnScheduledAt),
		series.New(actual, series.String, common.ColumnActualAt),
	)
	if df.Err != nil {
		return fmt.Errorf("build dataframe: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// WriteFile writes records to path, creating parent directories.
func WriteFile(path string, records []flights.Record) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	if err := WriteCSV(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
