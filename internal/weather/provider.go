package weather

import (
	"context"
	"errors"
)

// ErrUpstream marks any failure of the third-party weather provider: transport
// errors, timeouts, non-2xx responses, an open circuit or a malformed payload.
var ErrUpstream = errors.New("weather provider")

// Provider abstracts a weather data source (e.g. OpenWeather, Open-Meteo).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Snapshot, error)
}
