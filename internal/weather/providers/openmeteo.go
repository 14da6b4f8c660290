package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/dashboard-api/internal/weather"
)

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
// It needs no API key but reports no moon phase, so that is computed locally.
type OpenMeteoProvider struct {
	name    string
	units   string
	baseURL string
	httpCfg HTTPClientConfig
}

func NewOpenMeteoProvider(client *http.Client, units string) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "openmeteo",
		units:   units,
		baseURL: openMeteoBaseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker("openmeteo"),
		},
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenMeteoProvider) WithBaseURL(u string) *OpenMeteoProvider {
	p.baseURL = u
	return p
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	values.Set("current", "temperature_2m,weather_code")
	values.Set("daily", "weather_code")
	values.Set("forecast_days", "1")
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	if p.units == "imperial" {
		values.Set("temperature_unit", "fahrenheit")
	}

	body, err := doRequest(ctx, p.name, p.httpCfg, p.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.Snapshot{}, err
	}

	var payload struct {
		Current *struct {
			Time        int64    `json:"time"`
			Temperature *float64 `json:"temperature_2m"`
			WeatherCode *int     `json:"weather_code"`
		} `json:"current"`
		Daily struct {
			WeatherCode []int `json:"weather_code"`
		} `json:"daily"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: openmeteo: decode payload: %v", weather.ErrUpstream, err)
	}
	if payload.Current == nil || payload.Current.Temperature == nil {
		return weather.Snapshot{}, fmt.Errorf("%w: openmeteo: payload missing current.temperature_2m", weather.ErrUpstream)
	}

	var conds []weather.Condition
	for _, code := range payload.Daily.WeatherCode {
		conds = append(conds, mapOpenMeteoCondition(code))
	}
	if len(conds) == 0 && payload.Current.WeatherCode != nil {
		conds = append(conds, mapOpenMeteoCondition(*payload.Current.WeatherCode))
	}

	ts := time.Now().UTC()
	if payload.Current.Time > 0 {
		ts = time.Unix(payload.Current.Time, 0).UTC()
	}

	return weather.Snapshot{
		Provider:    p.name,
		ObservedAt:  ts,
		Temperature: *payload.Current.Temperature,
		MoonPhase:   MoonPhase(ts),
		Condition:   weather.MostSevere(conds...),
	}, nil
}

// mapOpenMeteoCondition maps WMO weather interpretation codes.
func mapOpenMeteoCondition(code int) weather.Condition {
	switch {
	case code == 0:
		return weather.ConditionClear
	case code == 1 || code == 2:
		return weather.ConditionPartlyCloudy
	case code == 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case code >= 51 && code <= 57:
		return weather.ConditionDrizzle
	case (code >= 61 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95 && code <= 99:
		return weather.ConditionThunderstorm
	default:
		return weather.ConditionUnknown
	}
}

const synodicMonthDays = 29.530588853

// knownNewMoon is the new moon of 2000-01-06 18:14 UTC.
var knownNewMoon = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// MoonPhase approximates the lunar phase at t on the same 0..1 scale
// OpenWeather uses (0 new, 0.25 first quarter, 0.5 full, 0.75 last quarter).
func MoonPhase(t time.Time) float64 {
	days := t.Sub(knownNewMoon).Hours() / 24
	phase := math.Mod(days, synodicMonthDays) / synodicMonthDays
	if phase < 0 {
		phase++
	}
	return math.Round(phase*100) / 100
}
