package calsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

const (
	defaultWindowPast   = 30 * 24 * time.Hour
	defaultWindowFuture = 180 * 24 * time.Hour
)

// Config controls one reconciliation run against an upstream feed.
type Config struct {
	// FeedURL is the ICS feed to reconcile against. Required.
	FeedURL string

	// WindowPast/WindowFuture bound the reconciliation window around the
	// reference time.
	WindowPast   time.Duration
	WindowFuture time.Duration

	// SuppressedSummaries lists summaries treated as private busy blocks.
	SuppressedSummaries []string

	// Locales receives the feed's single-language text for every record.
	Locales []string
}

func (c *Config) normalize() {
	if c.WindowPast <= 0 {
		c.WindowPast = defaultWindowPast
	}
	if c.WindowFuture <= 0 {
		c.WindowFuture = defaultWindowFuture
	}
	if c.SuppressedSummaries == nil {
		c.SuppressedSummaries = []string{"busy"}
	}
	if len(c.Locales) == 0 {
		c.Locales = model.Locales
	}
}

// Writer persists the reconciled records. Implemented by the event store.
type Writer interface {
	UpsertCalendarRecords(ctx context.Context, records []model.CalendarRecord) error
}

// Summary reports the outcome of one run.
type Summary struct {
	Synced    int `json:"synced"`
	Cancelled int `json:"cancelled"`
}

// Job reconciles the upstream calendar feed into the event store.
type Job struct {
	cfg    Config
	store  Writer
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

func NewJob(cfg Config, store Writer, logger *slog.Logger) *Job {
	cfg.normalize()
	return &Job{
		cfg:    cfg,
		store:  store,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.With("component", "calsync"),
		now:    time.Now,
	}
}

// Run fetches the feed, reconciles it against the window and writes the
// result. A run that yields no records leaves the store untouched.
func (j *Job) Run(ctx context.Context) (Summary, error) {
	if j.cfg.FeedURL == "" {
		return Summary{}, errors.New("feed url not configured")
	}

	now := j.now().UTC()
	w := window{start: now.Add(-j.cfg.WindowPast), end: now.Add(j.cfg.WindowFuture)}

	body, err := fetchFeed(ctx, j.client, j.cfg.FeedURL)
	if err != nil {
		return Summary{}, err
	}

	entries, err := parseEntries(body)
	if err != nil {
		return Summary{}, err
	}

	set := newRecordSet()

	// Explicit entries first: standalone events and single-instance
	// overrides. They take precedence over generated occurrences.
	for _, e := range entries {
		if e.IsMaster() {
			continue
		}
		if suppressed(e.Summary, j.cfg.SuppressedSummaries) {
			continue
		}

		ref := e.Start
		if e.RecurrenceID != nil {
			ref = *e.RecurrenceID
		}
		if !w.contains(ref) {
			continue
		}

		start := e.Start
		slug := DeriveSlug(e.Summary, &start, e.UID, e.RecurrenceID)
		set.put(buildRecord(e, slug, e.Start, e.End, j.cfg.Locales, now))
	}

	// Then recurring masters, expanded into the window.
	for _, e := range entries {
		if !e.IsMaster() {
			continue
		}
		if suppressed(e.Summary, j.cfg.SuppressedSummaries) {
			continue
		}

		recs, err := expandOccurrences(e, w, j.cfg.Locales, now)
		if err != nil {
			j.logger.Warn("skipping recurring entry", "uid", e.UID, "error", err)
			continue
		}
		for _, rec := range recs {
			set.putIfAbsent(rec)
		}
	}

	records := set.records()
	summary := Summary{Synced: len(records)}
	for _, rec := range records {
		if rec.Status == model.EventStatusCancelled {
			summary.Cancelled++
		}
	}

	if len(records) == 0 {
		j.logger.Info("feed yielded no records, skipping write")
		return summary, nil
	}

	if err := j.store.UpsertCalendarRecords(ctx, records); err != nil {
		return Summary{}, fmt.Errorf("write records: %w", err)
	}

	j.logger.Info("sync completed", "synced", summary.Synced, "cancelled", summary.Cancelled)
	return summary, nil
}
