package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/dashboard-api/internal/weather"
)

const openWeatherBaseURL = "https://api.openweathermap.org/data/3.0/onecall"

// OpenWeatherProvider implements the weather.Provider interface for the OpenWeather One Call API.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	units   string
	baseURL string
	httpCfg HTTPClientConfig
}

func NewOpenWeatherProvider(client *http.Client, apiKey, units string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		units:   units,
		baseURL: openWeatherBaseURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Circuit: newCircuitBreaker("openweather"),
		},
	}
}

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func (p *OpenWeatherProvider) WithBaseURL(u string) *OpenWeatherProvider {
	p.baseURL = u
	return p
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type owmCondition struct {
	ID int `json:"id"`
}

// Pointers distinguish a missing field from a legitimate zero.
type owmPayload struct {
	Current *struct {
		Dt      int64          `json:"dt"`
		Temp    *float64       `json:"temp"`
		Weather []owmCondition `json:"weather"`
	} `json:"current"`
	Daily []struct {
		MoonPhase *float64       `json:"moon_phase"`
		Weather   []owmCondition `json:"weather"`
	} `json:"daily"`
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, fmt.Errorf("%w: openweather api key is not configured", weather.ErrUpstream)
	}

	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	values.Set("exclude", "minutely,hourly,alerts")
	values.Set("units", p.units)
	values.Set("appid", p.apiKey)

	body, err := doRequest(ctx, p.name, p.httpCfg, p.baseURL+"?"+values.Encode())
	if err != nil {
		return weather.Snapshot{}, err
	}

	var payload owmPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.Snapshot{}, fmt.Errorf("%w: openweather: decode payload: %v", weather.ErrUpstream, err)
	}

	switch {
	case payload.Current == nil || payload.Current.Temp == nil:
		return weather.Snapshot{}, fmt.Errorf("%w: openweather: payload missing current.temp", weather.ErrUpstream)
	case len(payload.Daily) == 0:
		return weather.Snapshot{}, fmt.Errorf("%w: openweather: payload missing daily forecast", weather.ErrUpstream)
	case payload.Daily[0].MoonPhase == nil:
		return weather.Snapshot{}, fmt.Errorf("%w: openweather: payload missing daily[0].moon_phase", weather.ErrUpstream)
	}

	// Today's conditions come from the daily summary; current conditions
	// only stand in when the provider sent no daily weather list.
	codes := payload.Daily[0].Weather
	if len(codes) == 0 {
		codes = payload.Current.Weather
	}
	conds := make([]weather.Condition, 0, len(codes))
	for _, c := range codes {
		conds = append(conds, mapOpenWeatherCondition(c.ID))
	}

	ts := time.Now().UTC()
	if payload.Current.Dt > 0 {
		ts = time.Unix(payload.Current.Dt, 0).UTC()
	}

	return weather.Snapshot{
		Provider:    p.name,
		ObservedAt:  ts,
		Temperature: *payload.Current.Temp,
		MoonPhase:   *payload.Daily[0].MoonPhase,
		Condition:   weather.MostSevere(conds...),
	}, nil
}

// mapOpenWeatherCondition maps OpenWeather condition ids (grouped by hundreds).
func mapOpenWeatherCondition(id int) weather.Condition {
	switch {
	case id >= 200 && id < 300:
		return weather.ConditionThunderstorm
	case id >= 300 && id < 400:
		return weather.ConditionDrizzle
	case id >= 500 && id < 600:
		return weather.ConditionRain
	case id >= 600 && id < 700:
		return weather.ConditionSnow
	case id >= 700 && id < 800:
		return weather.ConditionMist
	case id == 800:
		return weather.ConditionClear
	case id == 801 || id == 802:
		return weather.ConditionPartlyCloudy
	case id == 803 || id == 804:
		return weather.ConditionCloudy
	default:
		return weather.ConditionUnknown
	}
}
