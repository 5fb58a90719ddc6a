package features

import (
	"testing"

	"flight-delay/internal/common"
	"flight-delay/internal/flights"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEncode_FixedColumnsForAnyBatch(t *testing.T) {
	tests := []struct {
		name    string
		records []flights.Record
	}{
		{"single flight", []flights.Record{{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3}}},
		{"single matching flight", []flights.Record{{Airline: "Copa Air", FlightType: "I", Month: 7}}},
		{"mixed batch", []flights.Record{
			{Airline: "Grupo LATAM", FlightType: "N", Month: 12},
			{Airline: "Sky Airline", FlightType: "I", Month: 4},
			{Airline: "American Airlines", FlightType: "I", Month: 1},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Encode(tt.records, TopDimensions())
			require.NoError(t, err)

			rows, cols := x.Dims()
			assert.Equal(t, len(tt.records), rows)
			assert.Equal(t, 10, cols)
		})
	}
}

func TestEncode_ColumnOrder(t *testing.T) {
	records := []flights.Record{
		{Airline: "Latin American Wings", FlightType: "N", Month: 7},
		{Airline: "Copa Air", FlightType: "I", Month: 11},
		{Airline: "Grupo LATAM", FlightType: "N", Month: 10},
	}

	x, err := Encode(records, TopDimensions())
	require.NoError(t, err)

	// OPERA_Latin American Wings, MES_7, MES_10, OPERA_Grupo LATAM, MES_12,
	// TIPOVUELO_I, MES_4, MES_11, OPERA_Sky Airline, OPERA_Copa Air
	want := mat.NewDense(3, 10, []float64{
		1, 1, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 1, 0, 1, 0, 1,
		0, 0, 1, 1, 0, 0, 0, 0, 0, 0,
	})
	assert.True(t, mat.Equal(want, x), "got %v", mat.Formatted(x))
}

func TestEncode_UnmatchedRecordIsZeroRow(t *testing.T) {
	records := []flights.Record{{Airline: "Aerolineas Argentinas", FlightType: "N", Month: 3}}

	x, err := Encode(records, TopDimensions())
	require.NoError(t, err)

	for _, v := range x.RawRowView(0) {
		assert.Zero(t, v)
	}
}

func TestEncode_EmptyBatch(t *testing.T) {
	_, err := Encode(nil, TopDimensions())
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestEncode_NoDimensions(t *testing.T) {
	_, err := Encode([]flights.Record{{Airline: "Copa Air"}}, nil)
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	names := Names(TopDimensions())
	assert.Equal(t, []string{
		"OPERA_Latin American Wings", "MES_7", "MES_10",
		"OPERA_Grupo LATAM", "MES_12", "TIPOVUELO_I",
		"MES_4", "MES_11", "OPERA_Sky Airline", "OPERA_Copa Air",
	}, names)
	assert.Equal(t, common.ColumnMonth+"_7", TopDimensions()[1].Name())
}
