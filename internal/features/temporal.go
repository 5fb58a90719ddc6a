package features

import (
	"fmt"
	"time"

	"flight-delay/internal/common"
	"flight-delay/internal/flights"
)

// TimestampPattern is the human readable form of common.TimestampLayout.
const TimestampPattern = "YYYY-MM-DD HH:MM:SS"

// FormatError reports a timestamp that does not match the expected layout.
type FormatError struct {
	Value   string
	Pattern string
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid date format for %q: expected %s", e.Value, e.Pattern)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// DayPeriod is the coarse time of day of a departure.
type DayPeriod string

const (
	Morning   DayPeriod = "morning"   // 05:00 - 11:59
	Afternoon DayPeriod = "afternoon" // 12:00 - 18:59
	Night     DayPeriod = "night"
)

// Derived holds the training-time temporal attributes of a record.
type Derived struct {
	Period     DayPeriod `json:"period"`
	HighSeason int       `json:"high_season"`
	MinDiff    float64   `json:"min_diff"`
}

type monthDay struct {
	month time.Month
	day   int
}

func (md monthDay) key() int {
	return int(md.month)*100 + md.day
}

// highSeason ranges are closed on both ends and never cross a year boundary.
var highSeason = [][2]monthDay{
	{{time.December, 15}, {time.December, 31}},
	{{time.January, 1}, {time.March, 3}},
	{{time.July, 15}, {time.July, 31}},
	{{time.September, 11}, {time.September, 30}},
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(common.TimestampLayout, value)
	if err != nil {
		return time.Time{}, &FormatError{Value: value, Pattern: TimestampPattern, Err: err}
	}
	return t, nil
}

// PeriodOfDay classifies the time of day of ts.
func PeriodOfDay(ts string) (DayPeriod, error) {
	t, err := parseTimestamp(ts)
	if err != nil {
		return "", err
	}

	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning, nil
	case h >= 12 && h < 19:
		return Afternoon, nil
	default:
		return Night, nil
	}
}

// IsHighSeason returns 1 when the calendar day of ts falls in a high season window.
func IsHighSeason(ts string) (int, error) {
	t, err := parseTimestamp(ts)
	if err != nil {
		return 0, err
	}

	day := monthDay{t.Month(), t.Day()}.key()
	for _, r := range highSeason {
		if day >= r[0].key() && day <= r[1].key() {
			return 1, nil
		}
	}
	return 0, nil
}

// MinuteDiff returns actual minus scheduled in minutes; negative for early departures.
func MinuteDiff(scheduled, actual string) (float64, error) {
	s, err := parseTimestamp(scheduled)
	if err != nil {
		return 0, err
	}
	a, err := parseTimestamp(actual)
	if err != nil {
		return 0, err
	}
	return a.Sub(s).Minutes(), nil
}

// Derive computes all temporal attributes of a training record.
func Derive(r flights.Record) (Derived, error) {
	period, err := PeriodOfDay(r.ScheduledAt)
	if err != nil {
		return Derived{}, err
	}
	season, err := IsHighSeason(r.ScheduledAt)
	if err != nil {
		return Derived{}, err
	}
	diff, err := MinuteDiff(r.ScheduledAt, r.ActualAt)
	if err != nil {
		return Derived{}, err
	}
	return Derived{Period: period, HighSeason: season, MinDiff: diff}, nil
}
