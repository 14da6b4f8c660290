package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/dashboard-api/internal/api/http"
	"github.com/i474232898/dashboard-api/internal/cache"
	"github.com/i474232898/dashboard-api/internal/config"
	"github.com/i474232898/dashboard-api/internal/dashboard"
	"github.com/i474232898/dashboard-api/internal/logging"
	"github.com/i474232898/dashboard-api/internal/scheduler"
	"github.com/i474232898/dashboard-api/internal/weather"
	"github.com/i474232898/dashboard-api/internal/weather/providers"
)

// redisRetention is the EXPIRE set on durable entries; freshness is decided by CACHE_TTL.
const redisRetention = 24 * time.Hour

var (
	logger zerolog.Logger
	cfg    *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:           "dashboard-api",
	Short:         "Personal dashboard API",
	Long:          "Serves current weather and the biweekly recycling schedule behind a static API key.",
	RunE:          runServe,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if cfg.APIKey == "" {
		logger.Warn().Msg("API_KEY is not set; protected routes will answer 500")
	}

	store, closeStore, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	snapshots := cache.New[weather.Snapshot](cfg.Cache.TTL, store,
		cache.WithName(cfg.Cache.Bucket),
		cache.WithLogger(logger),
	)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	provider, err := newProvider(httpClient)
	if err != nil {
		return err
	}

	weatherSvc := weather.NewService(provider, snapshots, logger)
	dashboardSvc := dashboard.NewService(weatherSvc, dashboard.Settings{
		Location: cfg.Location(),
		Timezone: cfg.Timezone,
		Schedule: cfg.Schedule,
	}, nil)

	sched := scheduler.New(weatherSvc, cfg.Location(), cfg.Cache.WarmInterval, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := httpapi.NewApp(httpapi.Options{
		APIKey:      cfg.APIKey,
		Development: cfg.IsDevelopment(),
		Dashboard:   dashboardSvc,
		Logger:      logger,
	})

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("provider", provider.Name()).
			Str("cache", cfg.Cache.Backend).
			Msg("HTTP server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	return nil
}

// openStore builds the durable cache tier. An unreachable Redis is not fatal:
// the service runs on the local tier only.
func openStore(ctx context.Context) (cache.Store, func(), error) {
	noop := func() {}

	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rs := cache.NewRedisStore(cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			Bucket:    cfg.Cache.Bucket,
			Retention: redisRetention,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable, caching in memory only")
			_ = rs.Close()
			return cache.NopStore{}, noop, nil
		}
		return rs, func() { _ = rs.Close() }, nil

	case config.BackendSQLite:
		db, err := cache.OpenSQLite(cfg.Cache.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		return cache.NewSQLiteStore(db, cfg.Cache.Bucket), func() { _ = db.Close() }, nil

	default:
		return cache.NopStore{}, noop, nil
	}
}

func newProvider(client *http.Client) (weather.Provider, error) {
	switch cfg.WeatherProvider {
	case "openmeteo":
		return providers.NewOpenMeteoProvider(client, cfg.WeatherUnits), nil
	case "openweather":
		if cfg.OpenWeatherAPIKey == "" {
			logger.Warn().Msg("OPENWEATHER_API_KEY is not set; dashboard requests will fail upstream")
		}
		return providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey, cfg.WeatherUnits), nil
	default:
		return nil, fmt.Errorf("%w: unknown weather provider %q", config.ErrInvalid, cfg.WeatherProvider)
	}
}
