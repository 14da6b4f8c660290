package providers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/dashboard-api/internal/weather"
)

var testLocation = weather.Location{Latitude: 37.7749, Longitude: -122.4194}

// newOpenWeatherServer serves a canned response and returns a func reporting
// the query string of the last request it saw.
func newOpenWeatherServer(t *testing.T, status int, body string) (*httptest.Server, func() url.Values) {
	t.Helper()
	var (
		mu   sync.Mutex
		last url.Values
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		last = r.URL.Query()
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, func() url.Values {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestOpenWeatherFetch(t *testing.T) {
	body := `{
		"current": {"dt": 1704816000, "temp": 52.3, "weather": [{"id": 800}]},
		"daily": [{"moon_phase": 0.93, "weather": [{"id": 500}, {"id": 211}, {"id": 802}]}]
	}`
	srv, query := newOpenWeatherServer(t, http.StatusOK, body)

	p := NewOpenWeatherProvider(srv.Client(), "secret", "imperial").WithBaseURL(srv.URL)
	snap, err := p.Fetch(context.Background(), testLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.Temperature != 52.3 || snap.MoonPhase != 0.93 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Condition != weather.ConditionThunderstorm {
		t.Fatalf("expected most severe condition thunderstorm, got %s", snap.Condition)
	}
	if !snap.ObservedAt.Equal(time.Unix(1704816000, 0)) {
		t.Fatalf("unexpected observation time %s", snap.ObservedAt)
	}

	q := query()
	if q.Get("lat") != "37.7749" || q.Get("lon") != "-122.4194" || q.Get("appid") != "secret" || q.Get("units") != "imperial" {
		t.Fatalf("unexpected query %s", q.Encode())
	}
}

func TestOpenWeatherFallsBackToCurrentConditions(t *testing.T) {
	body := `{"current": {"temp": 0, "weather": [{"id": 741}]}, "daily": [{"moon_phase": 0}]}`
	srv, _ := newOpenWeatherServer(t, http.StatusOK, body)

	p := NewOpenWeatherProvider(srv.Client(), "secret", "metric").WithBaseURL(srv.URL)
	snap, err := p.Fetch(context.Background(), testLocation)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Condition != weather.ConditionMist || snap.Temperature != 0 || snap.MoonPhase != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestOpenWeatherUpstreamErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `{}`},
		{"unauthorized", http.StatusUnauthorized, `{"cod":401}`},
		{"rate limited", http.StatusTooManyRequests, `{}`},
		{"not json", http.StatusOK, `<html>`},
		{"missing current", http.StatusOK, `{"daily":[{"moon_phase":0.5}]}`},
		{"missing temp", http.StatusOK, `{"current":{},"daily":[{"moon_phase":0.5}]}`},
		{"missing daily", http.StatusOK, `{"current":{"temp":1}}`},
		{"missing moon phase", http.StatusOK, `{"current":{"temp":1},"daily":[{}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newOpenWeatherServer(t, tc.status, tc.body)
			p := NewOpenWeatherProvider(srv.Client(), "secret", "imperial").WithBaseURL(srv.URL)

			_, err := p.Fetch(context.Background(), testLocation)
			if !errors.Is(err, weather.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

func TestOpenWeatherMissingKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", "imperial")
	if _, err := p.Fetch(context.Background(), testLocation); !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestOpenWeatherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := &http.Client{Timeout: 50 * time.Millisecond}
	p := NewOpenWeatherProvider(client, "secret", "imperial").WithBaseURL(srv.URL)

	_, err := p.Fetch(context.Background(), testLocation)
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream on timeout, got %v", err)
	}
}

func TestCircuitOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "secret", "imperial").WithBaseURL(srv.URL)
	for i := 0; i < 8; i++ {
		_, _ = p.Fetch(context.Background(), testLocation)
	}

	if n := calls.Load(); n != 5 {
		t.Fatalf("expected breaker to stop calls after 5 failures, got %d calls", n)
	}
	_, err := p.Fetch(context.Background(), testLocation)
	if !errors.Is(err, weather.ErrUpstream) {
		t.Fatalf("expected ErrUpstream while open, got %v", err)
	}
}

func TestMapOpenWeatherCondition(t *testing.T) {
	cases := map[int]weather.Condition{
		200: weather.ConditionThunderstorm,
		232: weather.ConditionThunderstorm,
		300: weather.ConditionDrizzle,
		321: weather.ConditionDrizzle,
		500: weather.ConditionRain,
		511: weather.ConditionRain,
		600: weather.ConditionSnow,
		622: weather.ConditionSnow,
		701: weather.ConditionMist,
		781: weather.ConditionMist,
		800: weather.ConditionClear,
		801: weather.ConditionPartlyCloudy,
		802: weather.ConditionPartlyCloudy,
		803: weather.ConditionCloudy,
		804: weather.ConditionCloudy,
		0:   weather.ConditionUnknown,
		900: weather.ConditionUnknown,
	}
	for id, want := range cases {
		if got := mapOpenWeatherCondition(id); got != want {
			t.Fatalf("code %d: expected %s, got %s", id, want, got)
		}
	}
}

func TestMoonPhase(t *testing.T) {
	cases := []struct {
		at   time.Time
		want float64
	}{
		{time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC), 0},
		// Full moon of 2024-01-25 17:54 UTC.
		{time.Date(2024, 1, 25, 17, 54, 0, 0, time.UTC), 0.5},
	}
	for _, tc := range cases {
		got := MoonPhase(tc.at)
		if math.Abs(got-tc.want) > 0.03 {
			t.Fatalf("%s: expected about %.2f, got %.2f", tc.at, tc.want, got)
		}
	}

	for d := 0; d < 60; d++ {
		p := MoonPhase(time.Date(2025, 3, 1+d, 0, 0, 0, 0, time.UTC))
		if p < 0 || p > 1 {
			t.Fatalf("phase out of range: %f", p)
		}
	}
}
