package weather

import (
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown      Condition = "unknown"
	ConditionClear        Condition = "clear"
	ConditionPartlyCloudy Condition = "partly-cloudy"
	ConditionCloudy       Condition = "cloudy"
	ConditionMist         Condition = "mist"
	ConditionDrizzle      Condition = "drizzle"
	ConditionRain         Condition = "rain"
	ConditionThunderstorm Condition = "thunderstorm"
	ConditionSnow         Condition = "snow"
)

// Location is the point the dashboard reports weather for.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns the cache key for this location. Coordinates are rounded to
// four decimals (about 11m), well below any provider's grid resolution.
func (l Location) Key() string {
	return fmt.Sprintf("weather:%.4f,%.4f", l.Latitude, l.Longitude)
}

// Snapshot is the normalized weather view the dashboard needs.
type Snapshot struct {
	Provider    string    `json:"provider"`
	ObservedAt  time.Time `json:"observedAt"` // always UTC
	Temperature float64   `json:"temperature"`
	MoonPhase   float64   `json:"moonPhase"` // 0 and 1 are new moon, 0.5 full
	Condition   Condition `json:"condition"`
}
