package calsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// Entry is one VEVENT from the upstream feed, validated and defaulted at the
// parse boundary so nothing downstream touches the raw calendar component.
type Entry struct {
	UID          string
	Summary      string
	Description  string
	Location     string
	Status       string
	Start        time.Time
	End          *time.Time
	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time
}

// IsOverride reports whether the entry modifies one occurrence of a
// recurring series.
func (e Entry) IsOverride() bool {
	return e.RecurrenceID != nil
}

// IsMaster reports whether the entry is the master of a recurring series.
func (e Entry) IsMaster() bool {
	return e.RRule != "" && e.RecurrenceID == nil
}

func fetchFeed(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return body, nil
}

// parseEntries parses an ICS payload into typed entries. Events without a UID
// or start time are skipped, matching the feed's guarantees for VEVENTs.
func parseEntries(body []byte) ([]Entry, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var entries []Entry
	for _, ve := range cal.Events() {
		e, ok := parseVEvent(ve)
		if !ok {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseVEvent(ve *ical.VEvent) (Entry, bool) {
	var e Entry

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		e.UID = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return e, false
	}
	e.Start = start

	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if end, err := ve.GetEndAt(); err == nil {
			e.End = &end
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		e.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		e.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		e.Location = p.Value
	}
	if p := ve.GetProperty("STATUS"); p != nil {
		e.Status = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		e.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				e.ExDates = append(e.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			e.RecurrenceID = &t
		}
	}

	return e, true
}

// parseICSTime parses the basic ICS date/date-time forms used by EXDATE and
// RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	}
	return time.ParseInLocation("20060102", v, time.UTC)
}
