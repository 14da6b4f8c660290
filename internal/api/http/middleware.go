package httpapi

import (
	"crypto/subtle"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/dashboard-api/internal/telemetry"
)

// requireAPIKey guards every route registered after it with a static bearer token.
// Rejections are client errors and are logged at debug level only.
func requireAPIKey(apiKey string, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if apiKey == "" {
			logger.Error().Str("path", c.Path()).Msg("API_KEY is not configured; rejecting request")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error: API_KEY not set",
			})
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			logger.Debug().Str("path", c.Path()).Msg("missing authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized: API key required",
				"message": "Provide an API key in the Authorization header as 'Bearer <token>'",
			})
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			logger.Debug().Str("path", c.Path()).Msg("malformed authorization header")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Unauthorized: Invalid authorization format",
				"message": "Authorization header must be exactly 'Bearer <token>'",
			})
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(apiKey)) != 1 {
			logger.Debug().Str("path", c.Path()).Msg("invalid api key")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Forbidden: Invalid API key",
			})
		}

		return c.Next()
	}
}

// requestLogger logs each request and records HTTP metrics. Chain errors are
// rendered here through the app's ErrorHandler so the final status is known.
func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		route := c.Route().Path
		elapsed := time.Since(start)

		telemetry.HTTPRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		telemetry.HTTPRequestDuration.WithLabelValues(c.Method(), route).Observe(elapsed.Seconds())

		logger.Info().
			Str("request_id", requestID(c)).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", elapsed).
			Msg("request")

		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	return c.GetRespHeader(fiber.HeaderXRequestID)
}
