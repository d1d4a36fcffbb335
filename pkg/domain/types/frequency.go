package types

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Frequency is the schedule on which a receiver pulls from its emitter
type Frequency string

const (
	FrequencyHourly     Frequency = "hourly"
	FrequencyTwiceDaily Frequency = "twicedaily"
	FrequencyDaily      Frequency = "daily"
	FrequencyWeekly     Frequency = "weekly"
)

// AllFrequencies returns all valid frequencies
func AllFrequencies() []Frequency {
	return []Frequency{
		FrequencyHourly,
		FrequencyTwiceDaily,
		FrequencyDaily,
		FrequencyWeekly,
	}
}

// Interval returns the time between two scheduled runs, or 0 for an
// unknown frequency.
func (f Frequency) Interval() time.Duration {
	switch f {
	case FrequencyHourly:
		return time.Hour
	case FrequencyTwiceDaily:
		return 12 * time.Hour
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

func (f Frequency) IsValid() bool {
	return f.Interval() > 0
}

func (f Frequency) String() string {
	return string(f)
}

// ParseFrequency parses a string into a Frequency
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.IsValid() {
		return "", goerr.New("invalid frequency", goerr.V("frequency", s))
	}
	return f, nil
}
