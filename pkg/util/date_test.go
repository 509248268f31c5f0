package util

import (
	"testing"
	"time"
)

func TestDayRange(t *testing.T) {
	now := time.Date(2024, 10, 10, 15, 30, 0, 0, time.UTC)
	from, to := DayRange(now, 90)
	if from != "2024-07-12" {
		t.Fatalf("unexpected from %q", from)
	}
	if to != "2024-10-10" {
		t.Fatalf("unexpected to %q", to)
	}
}

func TestParseAPIDate(t *testing.T) {
	got, ok := ParseAPIDate("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected time %v", got)
	}
	if _, ok := ParseAPIDate(""); ok {
		t.Fatalf("expected not ok for empty input")
	}
}
