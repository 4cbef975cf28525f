package store

import (
	"testing"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

func testPost(t *testing.T, s *PostStore, slug, status string, publishedAt *time.Time) *model.Post {
	t.Helper()
	p, err := s.Create(&model.Post{
		Slug:        slug,
		Title:       model.NewLocalizedText("Nytt fra menigheten", model.Locales),
		BodyMD:      model.NewLocalizedText("Innhold.", model.Locales),
		Status:      status,
		PublishedAt: publishedAt,
	})
	if err != nil {
		t.Fatalf("create post %q: %v", slug, err)
	}
	return p
}

func TestPostPublicReadsGateOnPublishedAt(t *testing.T) {
	s := NewPostStore(openTestDB(t))

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(48 * time.Hour)

	testPost(t, s, "sommerfest-oppsummering", "published", &past)
	testPost(t, s, "planlagt-nyhet", "published", &future)
	testPost(t, s, "utkast", "draft", nil)

	posts, err := s.ListPublished(now, 20, 0)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].Slug != "sommerfest-oppsummering" {
		t.Errorf("slug = %q, want sommerfest-oppsummering", posts[0].Slug)
	}

	p, err := s.GetPublishedBySlug("planlagt-nyhet", now)
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if p != nil {
		t.Error("post with future published_at should stay hidden")
	}

	p, err = s.GetPublishedBySlug("planlagt-nyhet", future)
	if err != nil {
		t.Fatalf("get published: %v", err)
	}
	if p == nil {
		t.Error("post should resolve once published_at has passed")
	}
}
