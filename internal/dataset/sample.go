package dataset

import (
	"math/rand"
	"time"

	"flight-delay/internal/common"
	"flight-delay/internal/flights"
)

// SampleAirlines are the carriers used by GenerateSample.
var SampleAirlines = []string{
	"Grupo LATAM",
	"Sky Airline",
	"Aerolineas Argentinas",
	"Copa Air",
	"Latin American Wings",
	"American Airlines",
	"Avianca",
}

// delayChance is the probability that a flight with the given attributes
// departs more than 15 minutes late.
func delayChance(airline, flightType string, month time.Month) float64 {
	p := 0.05
	switch airline {
	case "Latin American Wings":
		p += 0.45
	case "Sky Airline":
		p += 0.2
	case "Grupo LATAM":
		p += 0.15
	case "Copa Air":
		p += 0.1
	}
	if flightType == "I" {
		p += 0.1
	}
	switch month {
	case time.July, time.December:
		p += 0.25
	case time.April, time.October, time.November:
		p += 0.1
	}
	return p
}

// GenerateSample returns n synthetic training flights scheduled during 2017.
// The same seed always yields the same records.
func GenerateSample(n int, seed int64) []flights.Record {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

	records := make([]flights.Record, n)
	for i := range records {
		scheduled := start.
			AddDate(0, 0, rng.Intn(365)).
			Add(time.Duration(rng.Intn(24*60)) * time.Minute)

		airline := SampleAirlines[rng.Intn(len(SampleAirlines))]
		flightType := "N"
		if rng.Float64() < 0.4 {
			flightType = "I"
		}

		// Early departures up to 10 minutes, on time up to the threshold.
		offset := rng.Intn(26) - 10
		if rng.Float64() < delayChance(airline, flightType, scheduled.Month()) {
			offset = 16 + rng.Intn(105)
		}
		actual := scheduled.Add(time.Duration(offset) * time.Minute)

		records[i] = flights.Record{
			Airline:     airline,
			FlightType:  flightType,
			Month:       int(scheduled.Month()),
			ScheduledAt: scheduled.Format(common.TimestampLayout),
			ActualAt:    actual.Format(common.TimestampLayout),
		}
	}
	return records
}
