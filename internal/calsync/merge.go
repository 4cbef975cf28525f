package calsync

import "github.com/bykirken/bykirken/internal/model"

// recordSet collects reconciled records keyed by slug while preserving
// insertion order, so the upsert hits the database in a stable order.
type recordSet struct {
	index map[string]int
	order []model.CalendarRecord
}

func newRecordSet() *recordSet {
	return &recordSet{index: make(map[string]int)}
}

// put inserts or replaces a record. Explicit feed entries go through here:
// a single-instance edit always wins over a generated occurrence.
func (s *recordSet) put(rec model.CalendarRecord) {
	if i, ok := s.index[rec.Slug]; ok {
		s.order[i] = rec
		return
	}
	s.index[rec.Slug] = len(s.order)
	s.order = append(s.order, rec)
}

// putIfAbsent inserts a record only when the slug is unseen. Generated
// occurrences go through here so they never clobber explicit entries.
func (s *recordSet) putIfAbsent(rec model.CalendarRecord) {
	if _, ok := s.index[rec.Slug]; ok {
		return
	}
	s.index[rec.Slug] = len(s.order)
	s.order = append(s.order, rec)
}

func (s *recordSet) records() []model.CalendarRecord {
	return s.order
}
