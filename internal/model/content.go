package model

import "time"

type Post struct {
	ID             int64         `json:"id"`
	Slug           string        `json:"slug"`
	Title          LocalizedText `json:"title"`
	Excerpt        LocalizedText `json:"excerpt"`
	BodyMD         LocalizedText `json:"body_md"`
	CoverImagePath *string       `json:"cover_image_path"`
	Status         string        `json:"status"`
	PublishedAt    *time.Time    `json:"published_at"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Sermon is a single podcast episode. Filename points at the audio object in
// media storage; FileSize and DurationSeconds feed the RSS enclosure.
type Sermon struct {
	ID              int64      `json:"id"`
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Speaker         string     `json:"speaker"`
	Filename        string     `json:"filename"`
	FileSize        *int64     `json:"file_size"`
	DurationSeconds *int64     `json:"duration_seconds"`
	PublishedAt     *time.Time `json:"published_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Page struct {
	ID          int64          `json:"id"`
	Slug        string         `json:"slug"`
	Title       LocalizedText  `json:"title"`
	BodyMD      LocalizedText  `json:"body_md"`
	Meta        map[string]any `json:"meta"`
	Status      string         `json:"status"`
	PublishedAt *time.Time     `json:"published_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
