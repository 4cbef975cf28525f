package model

import "time"

// Event statuses. Draft and archived are owned by the admin editing surface;
// the calendar sync pipeline only ever writes published and cancelled.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
	EventStatusArchived  = "archived"
)

type Event struct {
	ID             int64         `json:"id"`
	Slug           string        `json:"slug"`
	Title          LocalizedText `json:"title"`
	DescriptionMD  LocalizedText `json:"description_md"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        *time.Time    `json:"end_time"`
	Location       *string       `json:"location"`
	CoverImagePath *string       `json:"cover_image_path"`
	Status         string        `json:"status"`
	PublishedAt    *time.Time    `json:"published_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// CalendarRecord is the canonical row shape produced by the calendar
// reconciliation pipeline and upserted into the events table by slug.
// It never carries draft or archived status.
type CalendarRecord struct {
	Slug          string        `json:"slug"`
	Title         LocalizedText `json:"title"`
	DescriptionMD LocalizedText `json:"description_md"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       *time.Time    `json:"end_time"`
	Location      *string       `json:"location"`
	Status        string        `json:"status"`
	PublishedAt   *time.Time    `json:"published_at"`
}
