// Package flights defines the flight record consumed by the delay model and the
// JSON payloads exchanged with the prediction service.
package flights

// Record is a single flight. ScheduledAt and ActualAt are only set for training
// records and hold raw "2006-01-02 15:04:05" timestamps.
type Record struct {
	Airline     string `json:"airline"`
	FlightType  string `json:"flight_type"`
	Month       int    `json:"month"`
	ScheduledAt string `json:"scheduled_at,omitempty"`
	ActualAt    string `json:"actual_at,omitempty"`
}

// FlightInput is one flight in a prediction request.
type FlightInput struct {
	Airline    string `json:"OPERA"`
	FlightType string `json:"TIPOVUELO"`
	Month      int    `json:"MES"`
}

// Record converts the request flight into a core record.
func (f FlightInput) Record() Record {
	return Record{Airline: f.Airline, FlightType: f.FlightType, Month: f.Month}
}

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	Flights []FlightInput `json:"flights"`
}

// PredictResponse is returned by POST /predict, one label per input flight.
type PredictResponse struct {
	Predict []int `json:"predict"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse carries a human readable failure cause.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Records converts request flights into core records, preserving order.
func Records(in []FlightInput) []Record {
	out := make([]Record, len(in))
	for i, f := range in {
		out[i] = f.Record()
	}
	return out
}
