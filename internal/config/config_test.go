package config

import (
	"errors"
	"testing"
	"time"
)

func lookup(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Timezone != "America/Los_Angeles" || cfg.Port != "8080" || cfg.IsDevelopment() {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Schedule.ActiveWeekday != time.Tuesday || cfg.Schedule.CutoffHour != 12 || !cfg.Schedule.ReferenceWasActive {
		t.Fatalf("unexpected schedule defaults: %+v", cfg.Schedule)
	}
	if cfg.Cache.Backend != BackendMemory || cfg.Cache.TTL != 10*time.Minute || cfg.Cache.Bucket != "weather-cache" {
		t.Fatalf("unexpected cache defaults: %+v", cfg.Cache)
	}
	if cfg.APIKey != "" {
		t.Fatalf("API_KEY must not have a default")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"ENVIRONMENT":                       "development",
		"API_KEY":                           "s3cret",
		"TIMEZONE":                          "America/New_York",
		"LATITUDE":                          "40.7128",
		"LONGITUDE":                         "-74.0060",
		"RECYCLING_DAY_OF_WEEK":             "4",
		"RECYCLING_CUTOFF_HOUR":             "7",
		"RECYCLING_REFERENCE_DATE":          "2024-03-07",
		"RECYCLING_REFERENCE_WAS_RECYCLING": "false",
		"CACHE_BACKEND":                     "sqlite",
		"SQLITE_PATH":                       "/tmp/cache.db",
		"CACHE_WARM_INTERVAL":               "5m",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.IsDevelopment() || cfg.APIKey != "s3cret" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if loc := cfg.Location(); loc.Latitude != 40.7128 || loc.Longitude != -74.006 {
		t.Fatalf("unexpected location: %+v", loc)
	}
	s := cfg.Schedule
	if s.ActiveWeekday != time.Thursday || s.CutoffHour != 7 || s.ReferenceWasActive {
		t.Fatalf("unexpected schedule: %+v", s)
	}
	if !s.ReferenceDate.Equal(time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reference date: %s", s.ReferenceDate)
	}
	if cfg.Cache.Backend != BackendSQLite || cfg.Cache.WarmInterval != 5*time.Minute {
		t.Fatalf("unexpected cache config: %+v", cfg.Cache)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad weekday":       {"RECYCLING_DAY_OF_WEEK": "7"},
		"weekday not int":   {"RECYCLING_DAY_OF_WEEK": "tuesday"},
		"bad cutoff":        {"RECYCLING_CUTOFF_HOUR": "24"},
		"bad reference":     {"RECYCLING_REFERENCE_DATE": "2024-13-01"},
		"bad polarity":      {"RECYCLING_REFERENCE_WAS_RECYCLING": "maybe"},
		"bad timezone":      {"TIMEZONE": "Atlantis/Capital"},
		"bad latitude":      {"LATITUDE": "91"},
		"latitude not num":  {"LATITUDE": "north"},
		"bad backend":       {"CACHE_BACKEND": "memcached"},
		"bad ttl":           {"CACHE_TTL": "ten minutes"},
		"zero ttl":          {"CACHE_TTL": "0s"},
		"bad provider":      {"WEATHER_PROVIDER": "darksky"},
		"bad units":         {"WEATHER_UNITS": "kelvin"},
		"bad environment":   {"ENVIRONMENT": "staging"},
		"negative warm":     {"CACHE_WARM_INTERVAL": "-1m"},
		"non numeric port":  {"PORT": "http"},
		"negative redis db": {"REDIS_DB": "-1"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(lookup(vars))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
