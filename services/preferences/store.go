package preferences

import (
	"sync"

	"coursecal/models"
)

// Store manages course calendar records on top of a Slot. Records are keyed
// by calendar title; every mutation is a read-modify-write of the whole
// list, serialized by a process-local mutex. Writers in other processes
// still race last-writer-wins on the slot itself.
type Store struct {
	mu   sync.Mutex
	slot Slot
}

// NewStore creates a preference store over the given slot.
func NewStore(slot Slot) *Store {
	return &Store{slot: slot}
}

// Record returns the record for the given calendar title.
func (s *Store) Record(title string) (models.CourseCalendarRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.slot.Load()
	if err != nil {
		return models.CourseCalendarRecord{}, false, err
	}
	for _, rec := range records {
		if rec.Title == title {
			return rec, true, nil
		}
	}
	return models.CourseCalendarRecord{}, false, nil
}

// Records returns all persisted records in insertion order.
func (s *Store) Records() ([]models.CourseCalendarRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.Load()
}

// Upsert replaces the record whose title matches rec.Title, or appends rec
// if no record has that title yet. Insertion order is preserved.
func (s *Store) Upsert(rec models.CourseCalendarRecord) error {
	return s.mutate(rec.Title, func(records []models.CourseCalendarRecord, idx int) []models.CourseCalendarRecord {
		if idx >= 0 {
			records[idx] = rec
			return records
		}
		return append(records, rec)
	})
}

// SetSyncOn flips the sync switch for the titled record. Records that do
// not exist are left uncreated.
func (s *Store) SetSyncOn(title string, on bool) error {
	return s.mutate(title, func(records []models.CourseCalendarRecord, idx int) []models.CourseCalendarRecord {
		if idx >= 0 {
			records[idx].SyncOn = on
		}
		return records
	})
}

// SyncOn reports the persisted sync switch for the titled record.
func (s *Store) SyncOn(title string) (bool, error) {
	rec, ok, err := s.Record(title)
	if err != nil || !ok {
		return false, err
	}
	return rec.SyncOn, nil
}

// SetModalPresented marks whether the onboarding modal has been shown.
func (s *Store) SetModalPresented(title string, presented bool) error {
	return s.mutate(title, func(records []models.CourseCalendarRecord, idx int) []models.CourseCalendarRecord {
		if idx >= 0 {
			records[idx].ModalPresented = presented
		}
		return records
	})
}

// ModalPresented reports the onboarding modal flag for the titled record.
func (s *Store) ModalPresented(title string) (bool, error) {
	rec, ok, err := s.Record(title)
	if err != nil || !ok {
		return false, err
	}
	return rec.ModalPresented, nil
}

// Remove deletes the titled record outright. The main sync flow never calls
// this; calendar removal keeps the record with SyncOn=false.
func (s *Store) Remove(title string) error {
	return s.mutate(title, func(records []models.CourseCalendarRecord, idx int) []models.CourseCalendarRecord {
		if idx >= 0 {
			records = append(records[:idx], records[idx+1:]...)
		}
		return records
	})
}

// mutate loads the whole list, applies fn with the index of the titled
// record (-1 if absent), and stores the result.
func (s *Store) mutate(title string, fn func(records []models.CourseCalendarRecord, idx int) []models.CourseCalendarRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records, err := s.slot.Load()
	if err != nil {
		return err
	}
	idx := -1
	for i, rec := range records {
		if rec.Title == title {
			idx = i
			break
		}
	}
	return s.slot.Store(fn(records, idx))
}
