package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig marks schedule configuration problems: unknown timezones,
// out-of-range weekdays or cutoff hours, malformed reference dates.
var ErrInvalidConfig = errors.New("invalid schedule configuration")

const (
	DefaultActiveWeekday = time.Tuesday
	DefaultCutoffHour    = 12

	// DefaultReferenceDate is a Tuesday known to be a recycling week.
	DefaultReferenceDate = "2024-01-09"

	referenceDateLayout = "2006-01-02"
)

// Config describes an alternating biweekly schedule anchored on a reference date.
// Build it with NewConfig or DefaultConfig; the zero value is not meaningful.
type Config struct {
	ActiveWeekday      time.Weekday
	CutoffHour         int
	ReferenceDate      time.Time // UTC midnight of the anchor calendar date
	ReferenceWasActive bool
}

// NewConfig validates the inputs and returns an immutable schedule configuration.
func NewConfig(activeWeekday, cutoffHour int, referenceDate string, referenceWasActive bool) (Config, error) {
	if activeWeekday < 0 || activeWeekday > 6 {
		return Config{}, fmt.Errorf("%w: day of week %d out of range 0-6", ErrInvalidConfig, activeWeekday)
	}
	if cutoffHour < 0 || cutoffHour > 23 {
		return Config{}, fmt.Errorf("%w: cutoff hour %d out of range 0-23", ErrInvalidConfig, cutoffHour)
	}

	ref, err := ParseReferenceDate(referenceDate)
	if err != nil {
		return Config{}, err
	}

	return Config{
		ActiveWeekday:      time.Weekday(activeWeekday),
		CutoffHour:         cutoffHour,
		ReferenceDate:      ref,
		ReferenceWasActive: referenceWasActive,
	}, nil
}

// DefaultConfig returns the Tuesday/noon schedule anchored on DefaultReferenceDate.
func DefaultConfig() Config {
	cfg, err := NewConfig(int(DefaultActiveWeekday), DefaultCutoffHour, DefaultReferenceDate, true)
	if err != nil {
		panic(err)
	}
	return cfg
}

// ParseReferenceDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseReferenceDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(referenceDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: reference date %q: %v", ErrInvalidConfig, s, err)
	}
	return t, nil
}
