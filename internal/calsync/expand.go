package calsync

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/bykirken/bykirken/internal/model"
)

// occurrenceCap bounds how many instances a single RRULE may produce inside
// the window, so a malformed rule cannot blow up the job.
const occurrenceCap = 1000

type window struct {
	start time.Time
	end   time.Time
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.start) && !t.After(w.end)
}

// expandOccurrences turns a recurring master entry into one record per
// instance inside the window. EXDATE values drop instances by calendar date,
// matching how the feed emits exceptions for timed events.
func expandOccurrences(e Entry, w window, locales []string, now time.Time) ([]model.CalendarRecord, error) {
	r, err := rrule.StrToRRule(e.RRule)
	if err != nil {
		return nil, fmt.Errorf("parse rrule %q: %w", e.RRule, err)
	}
	r.DTStart(e.Start)

	var set rrule.Set
	set.RRule(r)

	times := set.Between(w.start, w.end, true)
	if len(times) > occurrenceCap {
		times = times[:occurrenceCap]
	}

	var duration time.Duration
	if e.End != nil {
		duration = e.End.Sub(e.Start)
	}

	records := make([]model.CalendarRecord, 0, len(times))
	for _, occStart := range times {
		if excluded(occStart, e.ExDates) {
			continue
		}

		occEnd := occStart
		if duration > 0 {
			occEnd = occStart.Add(duration)
		}
		end := occEnd

		start := occStart
		slug := DeriveSlug(e.Summary, &start, e.UID, nil)
		rec := buildRecord(e, slug, occStart, &end, locales, now)
		// Expanded occurrences always publish. A cancelled instance
		// arrives from the feed as its own override entry, not via the
		// master's STATUS.
		rec.Status = model.EventStatusPublished
		ts := now.UTC()
		rec.PublishedAt = &ts
		records = append(records, rec)
	}
	return records, nil
}

// excluded reports whether an occurrence falls on the same UTC calendar date
// as any EXDATE entry.
func excluded(occ time.Time, exDates []time.Time) bool {
	y, m, d := occ.UTC().Date()
	for _, ex := range exDates {
		ey, em, ed := ex.UTC().Date()
		if y == ey && m == em && d == ed {
			return true
		}
	}
	return false
}
