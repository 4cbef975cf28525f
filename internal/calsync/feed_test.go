package calsync

import (
	"strings"
	"testing"
	"time"
)

func TestParseEntries(t *testing.T) {
	entries, err := parseEntries([]byte(strings.ReplaceAll(testFeed, "\n", "\r\n")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}

	byUID := make(map[string][]Entry)
	for _, e := range entries {
		byUID[e.UID] = append(byUID[e.UID], e)
	}

	single := byUID["single-1@google.com"][0]
	if single.Summary != "Gudstjeneste" {
		t.Errorf("summary = %q", single.Summary)
	}
	if single.Location != "Storsalen" {
		t.Errorf("location = %q", single.Location)
	}
	wantStart := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	if !single.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", single.Start, wantStart)
	}
	if single.End == nil || !single.End.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("end = %v, want start+1h", single.End)
	}
	if single.IsMaster() || single.IsOverride() {
		t.Error("standalone entry misclassified")
	}

	weekly := byUID["weekly-1@google.com"]
	if len(weekly) != 2 {
		t.Fatalf("got %d weekly entries, want master plus override", len(weekly))
	}
	var master, override Entry
	for _, e := range weekly {
		if e.IsOverride() {
			override = e
		} else {
			master = e
		}
	}
	if !master.IsMaster() || master.RRule != "FREQ=WEEKLY;COUNT=4" {
		t.Errorf("master rrule = %q", master.RRule)
	}
	if len(master.ExDates) != 1 || !master.ExDates[0].Equal(time.Date(2026, 9, 10, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("exdates = %v", master.ExDates)
	}
	if override.RecurrenceID == nil || !override.RecurrenceID.Equal(time.Date(2026, 9, 17, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("recurrence-id = %v", override.RecurrenceID)
	}

	cancelled := byUID["cancelled-1@google.com"][0]
	if cancelled.Status != "CANCELLED" {
		t.Errorf("status = %q, want CANCELLED", cancelled.Status)
	}
}

func TestParseEntriesEmptyBody(t *testing.T) {
	if _, err := parseEntries(nil); err == nil {
		t.Error("expected error for empty body")
	}
}

func TestParseICSTime(t *testing.T) {
	got, err := parseICSTime("20260917T180000Z")
	if err != nil {
		t.Fatalf("parse utc form: %v", err)
	}
	if !got.Equal(time.Date(2026, 9, 17, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}

	got, err = parseICSTime("20260917T180000")
	if err != nil {
		t.Fatalf("parse local form: %v", err)
	}
	if !got.Equal(time.Date(2026, 9, 17, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}

	got, err = parseICSTime("20260917")
	if err != nil {
		t.Fatalf("parse date form: %v", err)
	}
	if !got.Equal(time.Date(2026, 9, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("got %v", got)
	}

	if _, err := parseICSTime(""); err == nil {
		t.Error("expected error for empty value")
	}
}
