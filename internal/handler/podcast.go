package handler

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bykirken/bykirken/internal/media"
	"github.com/bykirken/bykirken/internal/store"
)

const podcastFeedLimit = 200

// PodcastHandler renders the sermon archive as an RSS 2.0 feed with itunes
// extensions, consumable by podcast apps.
type PodcastHandler struct {
	sermons *store.SermonStore
	media   *media.Store
	baseURL string
	logger  *slog.Logger
}

func NewPodcastHandler(sermons *store.SermonStore, mediaStore *media.Store, baseURL string, logger *slog.Logger) *PodcastHandler {
	return &PodcastHandler{sermons: sermons, media: mediaStore, baseURL: baseURL, logger: logger}
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	ITunes  string     `xml:"xmlns:itunes,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Description string        `xml:"description"`
	GUID        rssGUID       `xml:"guid"`
	PubDate     string        `xml:"pubDate"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
	Author      string        `xml:"itunes:author,omitempty"`
	Duration    string        `xml:"itunes:duration,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Feed serves GET /podcast.xml.
func (h *PodcastHandler) Feed(w http.ResponseWriter, r *http.Request) {
	sermons, err := h.sermons.ListPublished(podcastFeedLimit, 0)
	if err != nil {
		h.logger.Error("list sermons for feed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build feed")
		return
	}

	items := make([]rssItem, 0, len(sermons))
	for _, s := range sermons {
		item := rssItem{
			Title:       s.Title,
			Description: s.Description,
			GUID:        rssGUID{IsPermaLink: false, Value: s.Slug},
			Author:      s.Speaker,
		}
		if s.PublishedAt != nil {
			item.PubDate = s.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		if s.DurationSeconds != nil {
			item.Duration = formatDuration(*s.DurationSeconds)
		}
		if s.Filename != "" {
			enc := &rssEnclosure{
				URL:  h.media.PublicURL("sermons/" + s.Filename),
				Type: "audio/mpeg",
			}
			if s.FileSize != nil {
				enc.Length = *s.FileSize
			}
			item.Enclosure = enc
		}
		items = append(items, item)
	}

	feed := rssFeed{
		Version: "2.0",
		ITunes:  "http://www.itunes.com/dtds/podcast-1.0.dtd",
		Channel: rssChannel{
			Title:       "Bykirken taler",
			Link:        h.baseURL + "/taler",
			Description: "Taler og undervisning fra Bykirken",
			Language:    "no",
			Items:       items,
		},
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(feed); err != nil {
		h.logger.Error("encode podcast feed", "error", err)
	}
}

func formatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
