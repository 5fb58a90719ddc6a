// Package features turns flight records into the fixed-width one-hot matrix used
// by the delay classifier, and derives the temporal attributes and labels needed
// at training time.
package features

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"flight-delay/internal/common"
	"flight-delay/internal/flights"

	"gonum.org/v1/gonum/mat"
)

// ErrEmptyBatch is returned when there is nothing to encode.
var ErrEmptyBatch = errors.New("features: empty batch")

// Dimension binds one matrix column to a single categorical value.
type Dimension struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// Name renders the dimension as "<column>_<value>", e.g. "MES_7".
func (d Dimension) Name() string {
	return d.Column + "_" + d.Value
}

// topDimensions is the feature subset the classifier is trained on, in column order.
var topDimensions = []Dimension{
	{common.ColumnAirline, "Latin American Wings"},
	{common.ColumnMonth, "7"},
	{common.ColumnMonth, "10"},
	{common.ColumnAirline, "Grupo LATAM"},
	{common.ColumnMonth, "12"},
	{common.ColumnFlightType, "I"},
	{common.ColumnMonth, "4"},
	{common.ColumnMonth, "11"},
	{common.ColumnAirline, "Sky Airline"},
	{common.ColumnAirline, "Copa Air"},
}

// TopDimensions returns a copy of the fixed feature columns in training order.
func TopDimensions() []Dimension {
	return slices.Clone(topDimensions)
}

// Names returns the rendered column names of dims.
func Names(dims []Dimension) []string {
	names := make([]string, len(dims))
	for i, d := range dims {
		names[i] = d.Name()
	}
	return names
}

// Encode one-hot encodes airline, flight type and month over the values present in
// records, then projects the result onto dims: target columns the batch never
// produced stay zero and every other encoded column is dropped. The returned matrix
// has len(records) rows and len(dims) columns in dims order.
func Encode(records []flights.Record, dims []Dimension) (*mat.Dense, error) {
	if len(records) == 0 {
		return nil, ErrEmptyBatch
	}
	if len(dims) == 0 {
		return nil, fmt.Errorf("features: no target dimensions")
	}

	encoded := oneHot(records)

	x := mat.NewDense(len(records), len(dims), nil)
	for j, d := range dims {
		col, ok := encoded[d.Name()]
		if !ok {
			continue
		}
		x.SetCol(j, col)
	}
	return x, nil
}

// oneHot returns one indicator column per (column, value) pair seen in records.
func oneHot(records []flights.Record) map[string][]float64 {
	encoded := make(map[string][]float64)
	set := func(name string, row int) {
		col, ok := encoded[name]
		if !ok {
			col = make([]float64, len(records))
			encoded[name] = col
		}
		col[row] = 1
	}

	for i, r := range records {
		set(Dimension{common.ColumnAirline, r.Airline}.Name(), i)
		set(Dimension{common.ColumnFlightType, r.FlightType}.Name(), i)
		set(Dimension{common.ColumnMonth, strconv.Itoa(r.Month)}.Name(), i)
	}
	return encoded
}
