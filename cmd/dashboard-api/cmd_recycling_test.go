package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/i474232898/dashboard-api/internal/schedule"
)

func TestWriteRecycling(t *testing.T) {
	var buf bytes.Buffer
	// Tuesday 2024-01-09 08:00 in Los Angeles, the reference pickup day.
	at := time.Date(2024, 1, 9, 16, 0, 0, 0, time.UTC)

	if err := writeRecycling(&buf, at, "America/Los_Angeles", schedule.DefaultConfig()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got schedule.Result
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %q", buf.String())
	}
	want := schedule.Result{IsActive: true, IsCurrentPeriod: true, Message: schedule.MessageThisWeekActive}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestWriteRecyclingBadZone(t *testing.T) {
	var buf bytes.Buffer
	if err := writeRecycling(&buf, time.Now(), "Nowhere/Special", schedule.DefaultConfig()); err == nil {
		t.Fatalf("expected an error for an unknown zone")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
