package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/i474232898/dashboard-api/internal/dashboard"
	"github.com/i474232898/dashboard-api/internal/schedule"
	"github.com/i474232898/dashboard-api/internal/weather"
)

var validate = validator.New()

// DashboardBuilder produces the dashboard payload; *dashboard.Service satisfies it.
type DashboardBuilder interface {
	Build(ctx context.Context) (dashboard.Dashboard, error)
}

// Options carries everything the HTTP layer needs.
type Options struct {
	APIKey      string
	Development bool
	Dashboard   DashboardBuilder
	Logger      zerolog.Logger

	// Now stamps health and hello responses; defaults to time.Now.
	Now func() time.Time
}

// NewApp builds the Fiber app with middleware, error handling and routes.
func NewApp(opts Options) *fiber.App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger.With().Str("component", "http").Logger()

	app := fiber.New(fiber.Config{
		AppName:               "dashboard-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler(opts.Development, logger),
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(requestLogger(logger))
	app.Use(recover.New())

	RegisterRoutes(app, opts, logger)
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. Health is the
// only route registered ahead of the API key check.
func RegisterRoutes(app *fiber.App, opts Options, logger zerolog.Logger) {
	h := &handlers{opts: opts, logger: logger}

	app.Get("/api/health", h.health)

	app.Use(requireAPIKey(opts.APIKey, logger))

	api := app.Group("/api")
	api.Get("/dashboard", h.dashboard)
	api.Get("/hello", h.hello)
	api.Post("/echo", h.echo)
	api.Get("/greet/:name", h.greet)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

type handlers struct {
	opts   Options
	logger zerolog.Logger
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": h.opts.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) dashboard(c *fiber.Ctx) error {
	if h.opts.Dashboard == nil {
		return errors.New("dashboard service not configured")
	}

	d, err := h.opts.Dashboard.Build(c.UserContext())
	if err == nil {
		return c.JSON(d)
	}

	var kind, message string
	switch {
	case errors.Is(err, weather.ErrUpstream):
		kind, message = "Failed to fetch weather data", "The weather provider is unavailable, try again later"
	case errors.Is(err, schedule.ErrInvalidConfig):
		kind, message = "Server configuration error", "The server is misconfigured"
	default:
		return err
	}

	h.logger.Error().Err(err).Str("request_id", requestID(c)).Msg("dashboard failed")
	if h.opts.Development {
		message = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error":   kind,
		"message": message,
	})
}

func (h *handlers) hello(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "Hello from the dashboard API!",
		"timestamp": h.opts.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) echo(c *fiber.Ctx) error {
	var body any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": "Request body must be valid JSON",
		})
	}

	return c.JSON(fiber.Map{
		"received":  body,
		"timestamp": h.opts.Now().UTC().Format(time.RFC3339),
	})
}

// greetQuery holds the path and query parameters of the greet endpoint.
type greetQuery struct {
	Name  string `validate:"required,max=64"`
	Title string `validate:"omitempty,max=32"`
}

func (h *handlers) greet(c *fiber.Ctx) error {
	q := greetQuery{
		Name:  c.Params("name"),
		Title: c.Query("title"),
	}
	if err := validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Bad Request",
			"message": err.Error(),
		})
	}

	name := q.Name
	if q.Title != "" {
		name = q.Title + " " + name
	}
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Hello, %s!", name),
	})
}

// errorHandler renders errors that escaped the handlers. Details are only
// exposed in development.
func errorHandler(development bool, logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			if fe.Code == fiber.StatusNotFound {
				return c.Status(fe.Code).JSON(fiber.Map{
					"error":   "Not Found",
					"message": fmt.Sprintf("Route %s %s not found", c.Method(), c.Path()),
				})
			}
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":   http.StatusText(fe.Code),
				"message": fe.Message,
			})
		}

		logger.Error().Err(err).Str("request_id", requestID(c)).Str("path", c.Path()).Msg("unhandled error")

		message := "An unexpected error occurred"
		if development {
			message = err.Error()
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Internal Server Error",
			"message": message,
		})
	}
}
