package dashboard

import (
	"context"
	"time"

	"github.com/i474232898/dashboard-api/internal/schedule"
	"github.com/i474232898/dashboard-api/internal/weather"
)

// Dashboard is the payload served by GET /api/dashboard.
type Dashboard struct {
	Temperature      float64           `json:"temperature"`
	MoonPhase        float64           `json:"moonPhase"`
	Weather          weather.Condition `json:"weather"`
	IsRecyclingWeek  bool              `json:"isRecyclingWeek"`
	RecyclingMessage schedule.Message  `json:"recyclingMessage"`
}

// WeatherSource is the part of weather.Service the dashboard needs.
type WeatherSource interface {
	Current(ctx context.Context, loc weather.Location) (weather.Snapshot, error)
}

// Settings is the static input of the dashboard.
type Settings struct {
	Location weather.Location
	Timezone string
	Schedule schedule.Config
}

// Service composes weather and the recycling schedule for "now".
type Service struct {
	weather  WeatherSource
	settings Settings
	now      func() time.Time
}

// NewService creates a dashboard service. now defaults to time.Now.
func NewService(weather WeatherSource, settings Settings, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{weather: weather, settings: settings, now: now}
}

// Build assembles the dashboard. The clock is read once, here; the schedule
// calculation itself is a pure function of that instant.
func (s *Service) Build(ctx context.Context) (Dashboard, error) {
	result, err := schedule.EvaluateAt(s.now(), s.settings.Timezone, s.settings.Schedule)
	if err != nil {
		return Dashboard{}, err
	}

	snap, err := s.weather.Current(ctx, s.settings.Location)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		Temperature:      snap.Temperature,
		MoonPhase:        snap.MoonPhase,
		Weather:          snap.Condition,
		IsRecyclingWeek:  result.IsActive,
		RecyclingMessage: result.Message,
	}, nil
}
