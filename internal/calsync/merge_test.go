package calsync

import (
	"testing"
	"time"

	"github.com/bykirken/bykirken/internal/model"
)

func rec(slug string, start time.Time) model.CalendarRecord {
	return model.CalendarRecord{Slug: slug, StartTime: start}
}

func TestRecordSetPutOverwrites(t *testing.T) {
	s := newRecordSet()
	t1 := time.Date(2026, 9, 17, 18, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 9, 17, 19, 0, 0, 0, time.UTC)

	s.put(rec("a", t1))
	s.put(rec("a", t2))

	got := s.records()
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if !got[0].StartTime.Equal(t2) {
		t.Errorf("start = %v, want overwrite to %v", got[0].StartTime, t2)
	}
}

func TestRecordSetPutIfAbsentKeepsExisting(t *testing.T) {
	s := newRecordSet()
	explicit := time.Date(2026, 9, 17, 19, 0, 0, 0, time.UTC)
	generated := time.Date(2026, 9, 17, 18, 0, 0, 0, time.UTC)

	s.put(rec("a", explicit))
	s.putIfAbsent(rec("a", generated))

	got := s.records()
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if !got[0].StartTime.Equal(explicit) {
		t.Errorf("start = %v, explicit record should win", got[0].StartTime)
	}
}

func TestRecordSetPreservesInsertionOrder(t *testing.T) {
	s := newRecordSet()
	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	s.put(rec("c", base))
	s.putIfAbsent(rec("a", base))
	s.put(rec("b", base))
	// Overwriting must not move the record.
	s.put(rec("c", base.Add(time.Hour)))

	got := s.records()
	want := []string{"c", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d", len(got), len(want))
	}
	for i, slug := range want {
		if got[i].Slug != slug {
			t.Errorf("records[%d] = %q, want %q", i, got[i].Slug, slug)
		}
	}
}
