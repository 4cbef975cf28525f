package calsync

import (
	"strings"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

// placeholderTitle is used when a feed entry carries no summary.
const placeholderTitle = "Arrangement"

// suppressed reports whether a summary marks the entry as a private busy
// block that must not be published.
func suppressed(summary string, list []string) bool {
	s := strings.ToLower(strings.TrimSpace(summary))
	for _, item := range list {
		if s == strings.ToLower(strings.TrimSpace(item)) {
			return true
		}
	}
	return false
}

func entryTitle(summary string) string {
	t := strings.TrimSpace(summary)
	if t == "" {
		return placeholderTitle
	}
	return t
}

func entryStatus(status string) string {
	if strings.EqualFold(strings.TrimSpace(status), "CANCELLED") {
		return model.EventStatusCancelled
	}
	return model.EventStatusPublished
}

// buildRecord maps one concrete occurrence of a feed entry onto the row shape
// the store upserts. All locales carry the feed's single-language text.
func buildRecord(e Entry, slug string, start time.Time, end *time.Time, locales []string, now time.Time) model.CalendarRecord {
	rec := model.CalendarRecord{
		Slug:      slug,
		Title:     model.NewLocalizedText(entryTitle(e.Summary), locales),
		StartTime: start.UTC(),
		Status:    entryStatus(e.Status),
	}

	if strings.TrimSpace(e.Description) != "" {
		rec.DescriptionMD = model.NewLocalizedText(e.Description, locales)
	} else {
		rec.DescriptionMD = model.LocalizedText{}
	}

	if end != nil {
		u := end.UTC()
		rec.EndTime = &u
	}
	if loc := strings.TrimSpace(e.Location); loc != "" {
		rec.Location = &loc
	}
	if rec.Status == model.EventStatusPublished {
		ts := now.UTC()
		rec.PublishedAt = &ts
	}
	return rec
}
