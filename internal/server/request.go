package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"flight-delay/internal/common"
	"flight-delay/internal/flights"
)

const maxBodyBytes = 1 << 20

// flightPayload mirrors flights.FlightInput with pointer fields so that a
// missing field can be told apart from a zero value.
type flightPayload struct {
	Airline    *string `json:"OPERA"`
	FlightType *string `json:"TIPOVUELO"`
	Month      *int    `json:"MES"`
}

type predictPayload struct {
	Flights *[]flightPayload `json:"flights"`
}

// decodePredictRequest parses a /predict body into core records. Schema
// violations and an empty flight list are reported as *ValidationError.
func decodePredictRequest(body io.Reader) ([]flights.Record, error) {
	var payload predictPayload
	dec := json.NewDecoder(io.LimitReader(body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil {
		return nil, &ValidationError{Reason: reasonBody, Detail: describeDecodeError(err), Err: err}
	}
	// The body is exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Reason: reasonBody, Detail: "Malformed JSON body: unexpected data after the request object", Err: err}
	}

	if payload.Flights == nil {
		return nil, missingField("flights")
	}
	if len(*payload.Flights) == 0 {
		return nil, &ValidationError{Reason: reasonEmpty, Detail: common.ErrMsgNoFlights}
	}

	records := make([]flights.Record, len(*payload.Flights))
	for i, f := range *payload.Flights {
		switch {
		case f.Airline == nil:
			return nil, missingField(fmt.Sprintf("flights[%d].%s", i, common.ColumnAirline))
		case f.FlightType == nil:
			return nil, missingField(fmt.Sprintf("flights[%d].%s", i, common.ColumnFlightType))
		case f.Month == nil:
			return nil, missingField(fmt.Sprintf("flights[%d].%s", i, common.ColumnMonth))
		}
		records[i] = flights.Record{Airline: *f.Airline, FlightType: *f.FlightType, Month: *f.Month}
	}
	return records, nil
}

func missingField(field string) *ValidationError {
	return &ValidationError{Reason: reasonBody, Detail: "Field required: " + field}
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("Invalid type for %s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	if errors.Is(err, io.EOF) {
		return "Request body is empty"
	}
	return "Malformed JSON body: " + err.Error()
}
