package schedule

import (
	"math"
	"time"
)

// Message is the human readable summary of a Result.
type Message string

const (
	MessageThisWeekActive   Message = "This week is recycling pickup"
	MessageNextWeekActive   Message = "Next week is recycling pickup"
	MessageThisWeekInactive Message = "This week is trash only"
	MessageNextWeekInactive Message = "Next week is trash only"
)

const week = 7 * 24 * time.Hour

// Result is the outcome of evaluating the schedule at one moment.
type Result struct {
	IsActive        bool    `json:"isActive"`
	IsCurrentPeriod bool    `json:"isCurrentPeriod"`
	Message         Message `json:"message"`
}

// Evaluate decides whether the upcoming (or current) occurrence of the active
// weekday falls in an active period, and whether that occurrence counts as
// "this week" or "next week" from the caller's point of view.
//
// Occurrences are compared with the reference date as whole weeks between
// UTC-midnight markers, so DST shifts and month boundaries cannot skew parity.
func Evaluate(local LocalDate, cfg Config) Result {
	today := local.MidnightUTC

	var (
		target  time.Time
		current bool
	)
	if local.Weekday == cfg.ActiveWeekday && local.Hour >= cfg.CutoffHour {
		// Today's pickup has passed; the next one is a week out.
		target = today.AddDate(0, 0, 7)
	} else {
		daysUntil := (int(cfg.ActiveWeekday) - int(local.Weekday) + 7) % 7
		target = today.AddDate(0, 0, daysUntil)
		current = daysUntil <= 2
	}

	weeks := int64(math.Round(float64(target.Sub(cfg.ReferenceDate)) / float64(week)))
	even := weeks%2 == 0

	active := even
	if !cfg.ReferenceWasActive {
		active = !even
	}

	return Result{
		IsActive:        active,
		IsCurrentPeriod: current,
		Message:         messageFor(active, current),
	}
}

// EvaluateAt resolves instant in zone and evaluates the schedule for it.
func EvaluateAt(instant time.Time, zone string, cfg Config) (Result, error) {
	local, err := Resolve(instant, zone)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(local, cfg), nil
}

func messageFor(active, current bool) Message {
	switch {
	case active && current:
		return MessageThisWeekActive
	case active:
		return MessageNextWeekActive
	case current:
		return MessageThisWeekInactive
	default:
		return MessageNextWeekInactive
	}
}
