package calsync

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

const testFeed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//NO
BEGIN:VEVENT
UID:single-1@google.com
DTSTAMP:20260801T000000Z
DTSTART:20260905T100000Z
DTEND:20260905T110000Z
SUMMARY:Gudstjeneste
LOCATION:Storsalen
END:VEVENT
BEGIN:VEVENT
UID:weekly-1@google.com
DTSTAMP:20260801T000000Z
DTSTART:20260903T180000Z
DTEND:20260903T193000Z
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE:20260910T180000Z
SUMMARY:Samling
END:VEVENT
BEGIN:VEVENT
UID:weekly-1@google.com
DTSTAMP:20260801T000000Z
RECURRENCE-ID:20260917T180000Z
DTSTART:20260917T190000Z
DTEND:20260917T203000Z
SUMMARY:Samling
END:VEVENT
BEGIN:VEVENT
UID:busy-1@google.com
DTSTAMP:20260801T000000Z
DTSTART:20260906T100000Z
SUMMARY:Busy
END:VEVENT
BEGIN:VEVENT
UID:cancelled-1@google.com
DTSTAMP:20260801T000000Z
DTSTART:20260907T100000Z
DTEND:20260907T110000Z
STATUS:CANCELLED
SUMMARY:Avlyst samling
END:VEVENT
END:VCALENDAR
`

type captureWriter struct {
	calls   int
	records []model.CalendarRecord
}

func (w *captureWriter) UpsertCalendarRecords(_ context.Context, recs []model.CalendarRecord) error {
	w.calls++
	w.records = append([]model.CalendarRecord(nil), recs...)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func feedServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		io.WriteString(w, strings.ReplaceAll(body, "\n", "\r\n"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testJob(t *testing.T, url string, w Writer) *Job {
	t.Helper()
	j := NewJob(Config{FeedURL: url}, w, testLogger())
	j.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }
	return j
}

func TestRunReconcilesFeed(t *testing.T) {
	srv := feedServer(t, testFeed)
	w := &captureWriter{}
	j := testJob(t, srv.URL, w)

	summary, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	// 1 single + 1 cancelled + 3 surviving weekly occurrences (one exdated,
	// one replaced by its override). The busy block is filtered out.
	if summary.Synced != 5 {
		t.Errorf("synced = %d, want 5", summary.Synced)
	}
	if summary.Cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", summary.Cancelled)
	}
	if w.calls != 1 {
		t.Fatalf("writer calls = %d, want 1", w.calls)
	}
	if len(w.records) != 5 {
		t.Fatalf("got %d records, want 5", len(w.records))
	}

	bySlug := make(map[string]model.CalendarRecord)
	for _, rec := range w.records {
		bySlug[rec.Slug] = rec
	}

	if _, ok := bySlug["gudstjeneste-single-1-202609051000"]; !ok {
		t.Errorf("missing single event record, slugs: %v", slugs(w.records))
	}
	for _, rec := range w.records {
		if strings.Contains(rec.Slug, "busy") {
			t.Errorf("busy block leaked into records: %q", rec.Slug)
		}
		if strings.Contains(rec.Slug, "202609101800") {
			t.Errorf("exdated occurrence leaked into records: %q", rec.Slug)
		}
	}

	// The override keeps the occurrence slug but moves the start time.
	moved, ok := bySlug["samling-weekly-1-202609171800"]
	if !ok {
		t.Fatalf("missing overridden occurrence, slugs: %v", slugs(w.records))
	}
	wantStart := time.Date(2026, 9, 17, 19, 0, 0, 0, time.UTC)
	if !moved.StartTime.Equal(wantStart) {
		t.Errorf("override start = %v, want %v", moved.StartTime, wantStart)
	}

	cancelled, ok := bySlug["avlyst-samling-cancelled-1-202609071000"]
	if !ok {
		t.Fatalf("missing cancelled record, slugs: %v", slugs(w.records))
	}
	if cancelled.Status != model.EventStatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	srv := feedServer(t, testFeed)
	w := &captureWriter{}
	j := testJob(t, srv.URL, w)

	first, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstSlugs := slugs(w.records)

	second, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first != second {
		t.Errorf("summaries differ: %+v vs %+v", first, second)
	}
	secondSlugs := slugs(w.records)
	if strings.Join(firstSlugs, ",") != strings.Join(secondSlugs, ",") {
		t.Errorf("slugs differ between runs:\n%v\n%v", firstSlugs, secondSlugs)
	}
}

func TestRunEmptyFeedSkipsWrite(t *testing.T) {
	srv := feedServer(t, `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//test//NO
BEGIN:VEVENT
UID:busy-1@google.com
DTSTAMP:20260801T000000Z
DTSTART:20260906T100000Z
SUMMARY:Busy
END:VEVENT
END:VCALENDAR
`)
	w := &captureWriter{}
	j := testJob(t, srv.URL, w)

	summary, err := j.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.Synced != 0 || summary.Cancelled != 0 {
		t.Errorf("summary = %+v, want zero", summary)
	}
	if w.calls != 0 {
		t.Errorf("writer calls = %d, want 0 when feed yields nothing", w.calls)
	}
}

func TestRunFeedErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusInternalServerError)
	}))
	defer srv.Close()

	w := &captureWriter{}
	j := testJob(t, srv.URL, w)

	if _, err := j.Run(context.Background()); err == nil {
		t.Error("expected error for upstream failure")
	}
	if w.calls != 0 {
		t.Errorf("writer calls = %d, want 0 on failure", w.calls)
	}
}

func TestRunMissingFeedURL(t *testing.T) {
	w := &captureWriter{}
	j := NewJob(Config{}, w, testLogger())

	if _, err := j.Run(context.Background()); err == nil {
		t.Error("expected error when feed url is not configured")
	}
}

func slugs(records []model.CalendarRecord) []string {
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = rec.Slug
	}
	return out
}
