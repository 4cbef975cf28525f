package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bykirken/bykirken/internal/media"
	"github.com/bykirken/bykirken/internal/model"
	"github.com/bykirken/bykirken/internal/store"
)

func TestPodcastFeed(t *testing.T) {
	db := openTestDB(t)
	sermons := store.NewSermonStore(db)
	mediaStore := media.NewStore(media.Config{PublicURL: "https://media.bykirken.no"})
	h := NewPodcastHandler(sermons, mediaStore, "https://bykirken.no", testLogger())

	published := time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC)
	size := int64(31457280)
	duration := int64(2100)
	if _, err := sermons.Create(&model.Sermon{
		Slug:            "nade-og-sannhet",
		Title:           "Nåde og sannhet",
		Description:     "Tale fra søndagssamlingen",
		Speaker:         "Ola Nordmann",
		Filename:        "2026-08-23-nade-og-sannhet.mp3",
		FileSize:        &size,
		DurationSeconds: &duration,
		PublishedAt:     &published,
	}); err != nil {
		t.Fatalf("seed sermon: %v", err)
	}
	// Unpublished sermons stay out of the feed.
	if _, err := sermons.Create(&model.Sermon{
		Slug:     "utkast",
		Title:    "Utkast",
		Filename: "utkast.mp3",
	}); err != nil {
		t.Fatalf("seed draft sermon: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/podcast.xml", nil)
	w := httptest.NewRecorder()
	h.Feed(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/rss+xml") {
		t.Errorf("Content-Type = %q, want rss+xml", ct)
	}

	body := w.Body.String()
	for _, want := range []string{
		`<rss version="2.0"`,
		"xmlns:itunes",
		"<title>Nåde og sannhet</title>",
		`url="https://media.bykirken.no/sermons/2026-08-23-nade-og-sannhet.mp3"`,
		`length="31457280"`,
		"<itunes:author>Ola Nordmann</itunes:author>",
		"<itunes:duration>35:00</itunes:duration>",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("feed missing %q", want)
		}
	}
	if strings.Contains(body, "Utkast") {
		t.Error("feed contains unpublished sermon")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{59, "0:59"},
		{2100, "35:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.seconds); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}
