package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-10")
	if err != nil || d != (Date{Year: 2025, Month: time.March, Day: 10}) {
		t.Fatalf("ParseDate = %+v, %v", d, err)
	}
	d, err = ParseDate("2025-03-10T00:00:00Z")
	if err != nil || d.String() != "2025-03-10" {
		t.Fatalf("ParseDate with time part = %+v, %v", d, err)
	}
	if _, err := ParseDate("10/03/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateArithmetic(t *testing.T) {
	d := MustDate("2025-02-28")
	if got := d.AddDays(1).String(); got != "2025-03-01" {
		t.Fatalf("AddDays crossed month wrong: %s", got)
	}
	if got := MustDate("2025-03-01").AddDays(-1).String(); got != "2025-02-28" {
		t.Fatalf("AddDays backwards wrong: %s", got)
	}
	if !d.Before(d.AddDays(1)) || d.After(d.AddDays(1)) {
		t.Fatal("ordering broken")
	}
	if got := MustDate("2025-03-12").WeekStart().String(); got != "2025-03-09" {
		t.Fatalf("WeekStart = %s", got)
	}
	if got := MustDate("2025-03-09").WeekStart().String(); got != "2025-03-09" {
		t.Fatalf("WeekStart of a Sunday = %s", got)
	}
}

func TestDateOfRespectsZone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	instant := time.Date(2025, 3, 11, 6, 50, 0, 0, time.UTC) // 23:50 local on the 10th
	if got := DateOf(instant, la).String(); got != "2025-03-10" {
		t.Fatalf("DateOf in LA = %s", got)
	}
	if got := DateOf(instant, time.UTC).String(); got != "2025-03-11" {
		t.Fatalf("DateOf in UTC = %s", got)
	}
}
