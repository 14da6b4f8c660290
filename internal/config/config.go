package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/i474232898/dashboard-api/internal/schedule"
	"github.com/i474232898/dashboard-api/internal/weather"
)

// ErrInvalid is returned for missing or malformed configuration.
var ErrInvalid = errors.New("invalid configuration")

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

var validate = validator.New()

// CacheConfig selects and configures the durable cache tier.
type CacheConfig struct {
	Backend string        `validate:"oneof=memory redis sqlite"`
	Bucket  string        `validate:"required"`
	TTL     time.Duration `validate:"gt=0"`

	RedisAddr     string `validate:"required_if=Backend redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	SQLitePath string `validate:"required_if=Backend sqlite"`

	// WarmInterval refreshes the configured location in the background; zero disables it.
	WarmInterval time.Duration `validate:"gte=0"`
}

type AppConfig struct {
	Environment string `validate:"oneof=development production test"`
	Port        string `validate:"required,numeric"`

	// APIKey is the bearer secret. An empty key is not fatal at startup;
	// protected routes answer 500 until it is set.
	APIKey string

	WeatherProvider   string `validate:"oneof=openweather openmeteo"`
	OpenWeatherAPIKey string
	WeatherUnits      string        `validate:"oneof=standard metric imperial"`
	HTTPTimeout       time.Duration `validate:"gt=0"`

	Timezone  string  `validate:"required"`
	Latitude  float64 `validate:"gte=-90,lte=90"`
	Longitude float64 `validate:"gte=-180,lte=180"`

	Schedule schedule.Config `validate:"-"`

	Cache CacheConfig
}

// IsDevelopment reports whether error details may be exposed to clients.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

// Location returns the configured weather location.
func (c *AppConfig) Location() weather.Location {
	return weather.Location{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Load reads configuration from the environment (and an optional .env file)
// with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env is the normal case in deployed environments.
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the configuration from a lookup function.
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	e := env{getenv: getenv}

	cfg := &AppConfig{
		Environment:       e.str("ENVIRONMENT", EnvProduction),
		Port:              e.str("PORT", "8080"),
		APIKey:            getenv("API_KEY"),
		WeatherProvider:   e.str("WEATHER_PROVIDER", "openweather"),
		OpenWeatherAPIKey: getenv("OPENWEATHER_API_KEY"),
		WeatherUnits:      e.str("WEATHER_UNITS", "imperial"),
		HTTPTimeout:       e.duration("HTTP_TIMEOUT", 5*time.Second),
		Timezone:          e.str("TIMEZONE", "America/Los_Angeles"),
		Latitude:          e.float("LATITUDE", 37.7749),
		Longitude:         e.float("LONGITUDE", -122.4194),
		Cache: CacheConfig{
			Backend:       e.str("CACHE_BACKEND", BackendMemory),
			Bucket:        e.str("CACHE_BUCKET", "weather-cache"),
			TTL:           e.duration("CACHE_TTL", 10*time.Minute),
			RedisAddr:     e.str("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getenv("REDIS_PASSWORD"),
			RedisDB:       e.int("REDIS_DB", 0),
			SQLitePath:    e.str("SQLITE_PATH", "cache.db"),
			WarmInterval:  e.duration("CACHE_WARM_INTERVAL", 0),
		},
	}

	day := e.int("RECYCLING_DAY_OF_WEEK", int(schedule.DefaultActiveWeekday))
	cutoff := e.int("RECYCLING_CUTOFF_HOUR", schedule.DefaultCutoffHour)
	ref := e.str("RECYCLING_REFERENCE_DATE", schedule.DefaultReferenceDate)
	wasActive := e.bool("RECYCLING_REFERENCE_WAS_RECYCLING", true)

	if e.err != nil {
		return nil, e.err
	}

	sched, err := schedule.NewConfig(day, cutoff, ref, wasActive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.Schedule = sched

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := schedule.ValidateTimezone(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("%w: TIMEZONE: %v", ErrInvalid, err)
	}

	return cfg, nil
}

// env collects the first parse error so Load can report it after reading
// everything.
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) str(key, def string) string {
	if v := e.getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) int(key string, def int) int {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := e.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return def
	}
	return d
}

func (e *env) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s=%q: %v", ErrInvalid, key, value, err)
	}
}
