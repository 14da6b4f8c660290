package schedule

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// LocalDate is the wall-clock view of an instant in a given timezone.
type LocalDate struct {
	Year    int
	Month   time.Month
	Day     int
	Hour    int
	Weekday time.Weekday

	// MidnightUTC is 00:00 UTC of the local calendar day. It is only an
	// arithmetic anchor for whole-day distances, not a real instant.
	MidnightUTC time.Time
}

var locations sync.Map // zone name -> *time.Location

// Resolve converts an instant into local calendar parts for the named IANA zone.
// DST is honoured because the conversion goes through the tz database rather
// than a fixed offset.
func Resolve(instant time.Time, zone string) (LocalDate, error) {
	loc, err := loadLocation(zone)
	if err != nil {
		return LocalDate{}, err
	}

	local := instant.In(loc)
	y, m, d := local.Date()

	return LocalDate{
		Year:        y,
		Month:       m,
		Day:         d,
		Hour:        local.Hour(),
		Weekday:     local.Weekday(),
		MidnightUTC: time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	}, nil
}

// ValidateTimezone reports whether zone names a location in the tz database.
func ValidateTimezone(zone string) error {
	_, err := loadLocation(zone)
	return err
}

func loadLocation(zone string) (*time.Location, error) {
	// time.LoadLocation maps "" to UTC and "Local" to the host zone; neither
	// is an IANA key.
	if zone == "" || zone == "Local" {
		return nil, fmt.Errorf("%w: timezone %q is not an IANA zone name", ErrInvalidConfig, zone)
	}
	if v, ok := locations.Load(zone); ok {
		return v.(*time.Location), nil
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q: %v", ErrInvalidConfig, zone, err)
	}
	locations.Store(zone, loc)
	return loc, nil
}
