package features

import (
	"fmt"
	"slices"

	"flight-delay/internal/flights"
)

// Vocabulary is the closed set of categorical values seen in the training corpus.
// It is produced once by CaptureVocabulary and never modified afterwards.
type Vocabulary struct {
	Airlines    []string `json:"airlines"`
	FlightTypes []string `json:"flight_types"`
	Months      []int    `json:"months"`
}

// UnknownValueError reports a categorical value outside the vocabulary.
type UnknownValueError struct {
	Field string
	Value any
}

func (e *UnknownValueError) Error() string {
	return fmt.Sprintf("Invalid %s: %v", e.Field, e.Value)
}

// CaptureVocabulary collects the distinct airlines, flight types and months of
// records in first-seen order.
func CaptureVocabulary(records []flights.Record) Vocabulary {
	var v Vocabulary
	seenAirline := make(map[string]struct{})
	seenType := make(map[string]struct{})
	seenMonth := make(map[int]struct{})

	for _, r := range records {
		if _, ok := seenAirline[r.Airline]; !ok {
			seenAirline[r.Airline] = struct{}{}
			v.Airlines = append(v.Airlines, r.Airline)
		}
		if _, ok := seenType[r.FlightType]; !ok {
			seenType[r.FlightType] = struct{}{}
			v.FlightTypes = append(v.FlightTypes, r.FlightType)
		}
		if _, ok := seenMonth[r.Month]; !ok {
			seenMonth[r.Month] = struct{}{}
			v.Months = append(v.Months, r.Month)
		}
	}
	return v
}

func (v Vocabulary) HasAirline(airline string) bool {
	return slices.Contains(v.Airlines, airline)
}

func (v Vocabulary) HasFlightType(flightType string) bool {
	return slices.Contains(v.FlightTypes, flightType)
}

func (v Vocabulary) HasMonth(month int) bool {
	return slices.Contains(v.Months, month)
}

// Validate checks airline, flight type and month in that order and reports the
// first value the vocabulary does not contain.
func (v Vocabulary) Validate(r flights.Record) error {
	if !v.HasAirline(r.Airline) {
		return &UnknownValueError{Field: "airline", Value: r.Airline}
	}
	if !v.HasFlightType(r.FlightType) {
		return &UnknownValueError{Field: "flight type", Value: r.FlightType}
	}
	if !v.HasMonth(r.Month) {
		return &UnknownValueError{Field: "month", Value: r.Month}
	}
	return nil
}

// Clone returns a deep copy of v.
func (v Vocabulary) Clone() Vocabulary {
	return Vocabulary{
		Airlines:    slices.Clone(v.Airlines),
		FlightTypes: slices.Clone(v.FlightTypes),
		Months:      slices.Clone(v.Months),
	}
}

// Empty reports whether nothing was captured.
func (v Vocabulary) Empty() bool {
	return len(v.Airlines) == 0 && len(v.FlightTypes) == 0 && len(v.Months) == 0
}
