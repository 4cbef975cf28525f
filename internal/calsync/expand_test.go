package calsync

import (
	"testing"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

func testWindow() window {
	return window{
		start: time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		end:   time.Date(2027, 2, 28, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpandWeeklyWithinWindow(t *testing.T) {
	start := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	e := Entry{
		UID:     "weekly-1@google.com",
		Summary: "Samling",
		Start:   start,
		End:     &end,
		RRule:   "FREQ=WEEKLY;COUNT=4",
	}

	recs, err := expandOccurrences(e, testWindow(), model.Locales, now)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d occurrences, want 4", len(recs))
	}

	for i, rec := range recs {
		wantStart := start.AddDate(0, 0, 7*i)
		if !rec.StartTime.Equal(wantStart) {
			t.Errorf("occurrence %d start = %v, want %v", i, rec.StartTime, wantStart)
		}
		if rec.EndTime == nil || !rec.EndTime.Equal(wantStart.Add(90*time.Minute)) {
			t.Errorf("occurrence %d end = %v, want start+90m", i, rec.EndTime)
		}
	}

	// Distinct occurrences must get distinct slugs.
	seen := make(map[string]bool)
	for _, rec := range recs {
		if seen[rec.Slug] {
			t.Errorf("duplicate slug %q", rec.Slug)
		}
		seen[rec.Slug] = true
	}
}

func TestExpandRespectsWindowBounds(t *testing.T) {
	// Daily forever, but the window only covers a slice of it.
	start := time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	e := Entry{
		UID:     "daily-1@google.com",
		Summary: "Morgenbønn",
		Start:   start,
		RRule:   "FREQ=DAILY",
	}

	w := window{
		start: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		end:   time.Date(2026, 9, 5, 23, 59, 0, 0, time.UTC),
	}

	recs, err := expandOccurrences(e, w, model.Locales, now)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("got %d occurrences, want 5", len(recs))
	}
	for _, rec := range recs {
		if rec.StartTime.Before(w.start) || rec.StartTime.After(w.end) {
			t.Errorf("occurrence %v outside window", rec.StartTime)
		}
	}
}

func TestExpandExDateDropsByCalendarDate(t *testing.T) {
	start := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	e := Entry{
		UID:     "weekly-2@google.com",
		Summary: "Bibelgruppe",
		Start:   start,
		RRule:   "FREQ=WEEKLY;COUNT=4",
		// Date-only exception, as the feed emits for all-day style exclusions.
		ExDates: []time.Time{time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)},
	}

	recs, err := expandOccurrences(e, testWindow(), model.Locales, now)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d occurrences, want 3 after exdate", len(recs))
	}
	for _, rec := range recs {
		if rec.StartTime.Day() == 10 {
			t.Errorf("excluded date still present: %v", rec.StartTime)
		}
	}
}

func TestExpandCancelledMasterStillPublishes(t *testing.T) {
	start := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	e := Entry{
		UID:     "weekly-3@google.com",
		Summary: "Samling",
		Start:   start,
		RRule:   "FREQ=WEEKLY;COUNT=2",
		Status:  "CANCELLED",
	}

	recs, err := expandOccurrences(e, testWindow(), model.Locales, now)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d occurrences, want 2", len(recs))
	}
	for i, rec := range recs {
		if rec.Status != model.EventStatusPublished {
			t.Errorf("occurrence %d status = %q, want %q", i, rec.Status, model.EventStatusPublished)
		}
		if rec.PublishedAt == nil || !rec.PublishedAt.Equal(now) {
			t.Errorf("occurrence %d published_at = %v, want %v", i, rec.PublishedAt, now)
		}
	}
}

func TestExpandNoEndGivesZeroDuration(t *testing.T) {
	start := time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC)
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	e := Entry{
		UID:     "weekly-3@google.com",
		Summary: "Kort samling",
		Start:   start,
		RRule:   "FREQ=WEEKLY;COUNT=2",
	}

	recs, err := expandOccurrences(e, testWindow(), model.Locales, now)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	for _, rec := range recs {
		if rec.EndTime == nil {
			t.Fatal("end time should be set")
		}
		if !rec.EndTime.Equal(rec.StartTime) {
			t.Errorf("end = %v, want equal to start %v", rec.EndTime, rec.StartTime)
		}
	}
}

func TestExpandInvalidRRule(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{
		UID:     "bad-1@google.com",
		Summary: "Ugyldig",
		Start:   time.Date(2026, 9, 3, 18, 0, 0, 0, time.UTC),
		RRule:   "FREQ=SOMETIMES",
	}

	if _, err := expandOccurrences(e, testWindow(), model.Locales, now); err == nil {
		t.Error("expected error for invalid rrule")
	}
}
