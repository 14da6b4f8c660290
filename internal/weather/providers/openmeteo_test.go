package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/i474232898/dashboard-api/internal/weather"
)

func TestOpenMeteoFetch(t *testing.T) {
	body := `{
		"current": {"time": 1704816000, "temperature_2m": 48.9, "weather_code": 3},
		"daily": {"weather_code": [61]}
	}`
	srv, query := newOpenWeatherServer(t, http.StatusOK, body)

	p := NewOpenMeteoProvider(srv.Client(), "imperial").WithBaseURL(srv.URL)
	snap, err := p.Fetch(context.Background(), testLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Temperature != 48.9 || snap.Condition != weather.ConditionRain {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.MoonPhase < 0 || snap.MoonPhase > 1 {
		t.Fatalf("moon phase out of range: %f", snap.MoonPhase)
	}
	if q := query(); q.Get("temperature_unit") != "fahrenheit" {
		t.Fatalf("expected fahrenheit for imperial units, query %s", q.Encode())
	}
}

func TestOpenMeteoMissingTemperature(t *testing.T) {
	srv, _ := newOpenWeatherServer(t, http.StatusOK, `{"current": {"weather_code": 0}}`)

	p := NewOpenMeteoProvider(srv.Client(), "metric").WithBaseURL(srv.URL)
	if _, err := p.Fetch(context.Background(), testLocation); !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestMapOpenMeteoCondition(t *testing.T) {
	cases := map[int]weather.Condition{
		0:  weather.ConditionClear,
		2:  weather.ConditionPartlyCloudy,
		3:  weather.ConditionCloudy,
		45: weather.ConditionMist,
		53: weather.ConditionDrizzle,
		63: weather.ConditionRain,
		81: weather.ConditionRain,
		75: weather.ConditionSnow,
		86: weather.ConditionSnow,
		95: weather.ConditionThunderstorm,
		42: weather.ConditionUnknown,
	}
	for code, want := range cases {
		if got := mapOpenMeteoCondition(code); got != want {
			t.Fatalf("code %d: expected %s, got %s", code, want, got)
		}
	}
}
