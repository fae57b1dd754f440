package service

import (
	"testing"
	"time"
)

func TestPeriodKeyFor(t *testing.T) {
	ts := time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)
	if got := PeriodKeyFor(ts); got != "2026-08" {
		t.Fatalf("expected 2026-08, got %s", got)
	}
	// Period keys are derived in UTC regardless of the wall clock zone.
	east := time.Date(2026, time.September, 1, 3, 0, 0, 0, time.FixedZone("UTC+4", 4*3600))
	if got := PeriodKeyFor(east); got != "2026-08" {
		t.Fatalf("expected 2026-08 for UTC+4 early morning, got %s", got)
	}
}

func TestPreviousPeriodKey(t *testing.T) {
	ts := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	if got := PreviousPeriodKey(ts); got != "2025-12" {
		t.Fatalf("expected 2025-12, got %s", got)
	}
}

func TestPeriodElapsed(t *testing.T) {
	now := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	if !PeriodElapsed("2026-07", now) {
		t.Fatalf("July must be elapsed at August 1st")
	}
	if PeriodElapsed("2026-08", now) {
		t.Fatalf("August must not be elapsed on its first day")
	}
	if PeriodElapsed("garbage", now) {
		t.Fatalf("unparseable keys are never elapsed")
	}
}

func TestParsePeriodKeyRejectsGarbage(t *testing.T) {
	if _, err := ParsePeriodKey("202608"); err == nil {
		t.Fatalf("expected parse error")
	}
	start, err := ParsePeriodKey("2026-08")
	if err != nil {
		t.Fatalf("ParsePeriodKey error: %v", err)
	}
	if start != time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected period start: %v", start)
	}
}
