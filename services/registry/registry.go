// Package registry manages the lifecycle of the single dedicated external
// calendar each course owns: locating it, creating it, removing it, and
// keeping the persisted course record pointing at it.
package registry

import (
	"log"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"coursecal/models"
	"coursecal/services/eventstore"
	"coursecal/services/preferences"
)

const icloudSourceTitle = "icloud"

// Config identifies the course and how its calendar should look.
type Config struct {
	CourseID     string
	CourseName   string
	PlatformName string
	// Color is the accent color applied to the created calendar.
	Color string
}

// Registry manages one course's external calendar.
type Registry struct {
	cfg   Config
	store eventstore.Store
	prefs *preferences.Store
}

// New creates a Registry for the configured course.
func New(cfg Config, store eventstore.Store, prefs *preferences.Store) *Registry {
	return &Registry{cfg: cfg, store: store, prefs: prefs}
}

// CalendarName is the display title of the course calendar and the key the
// persisted record is looked up by.
func (r *Registry) CalendarName() string {
	return r.cfg.PlatformName + " - " + r.cfg.CourseName
}

// Find locates the course calendar by exact title. When earlier failed
// removals have left duplicates, the most recently enumerated one is taken
// as canonical and the rest are deleted in the background, best effort.
func (r *Registry) Find() (models.Calendar, bool) {
	if r.store.AuthorizationStatus() != models.AuthAuthorized {
		return models.Calendar{}, false
	}

	var matches []models.Calendar
	for _, cal := range r.store.Calendars() {
		if cal.Title == r.CalendarName() {
			matches = append(matches, cal)
		}
	}
	if len(matches) == 0 {
		return models.Calendar{}, false
	}

	canonical := matches[len(matches)-1]
	if leftovers := matches[:len(matches)-1]; len(leftovers) > 0 {
		r.cleanupDuplicates(leftovers)
	}
	return canonical, true
}

// cleanupDuplicates deletes residue calendars without blocking the caller.
// Failures are swallowed; the next Find gets another chance.
func (r *Registry) cleanupDuplicates(leftovers []models.Calendar) {
	dupes := make([]models.Calendar, len(leftovers))
	copy(dupes, leftovers)
	go func() {
		p := pool.New()
		for _, cal := range dupes {
			p.Go(func() {
				if err := r.store.RemoveCalendar(cal.ID); err != nil {
					log.Printf("[registry] duplicate calendar cleanup failed for %s: %v", cal.ID, err)
				}
			})
		}
		p.Wait()
	}()
}

// Ensure makes sure the course calendar exists, creating it if needed, and
// records it in preferences. Reports false on any store write failure.
func (r *Registry) Ensure() bool {
	if _, ok := r.Find(); ok {
		return true
	}

	created, err := r.store.CreateCalendar(models.Calendar{
		Title:    r.CalendarName(),
		Color:    r.cfg.Color,
		SourceID: r.pickSourceID(),
	})
	if err != nil {
		log.Printf("[registry] calendar create failed for %q: %v", r.CalendarName(), err)
		return false
	}

	record, existed, err := r.prefs.Record(r.CalendarName())
	if err != nil {
		log.Printf("[registry] preference read failed: %v", err)
		existed = false
	}
	if existed {
		// Keep the user's prior switch and modal state; only the external
		// identifier moved.
		record.Identifier = created.ID
	} else {
		record = models.CourseCalendarRecord{
			Identifier: created.ID,
			CourseID:   r.cfg.CourseID,
			Title:      r.CalendarName(),
			SyncOn:     true,
		}
	}
	if err := r.prefs.Upsert(record); err != nil {
		log.Printf("[registry] preference write failed: %v", err)
	}
	return true
}

// pickSourceID chooses where the new calendar lives: an iCloud-style CalDAV
// source first, then a local source, then whatever the store defaults to.
func (r *Registry) pickSourceID() string {
	r.store.Refresh()
	sources := r.store.Sources()

	for _, src := range sources {
		if src.Type == models.SourceCalDAV && strings.Contains(strings.ToLower(src.Title), icloudSourceTitle) {
			return src.ID
		}
	}
	for _, src := range sources {
		if src.Type == models.SourceLocal {
			return src.ID
		}
	}
	if src, ok := r.store.DefaultSource(); ok {
		return src.ID
	}
	return ""
}

// Remove deletes the course calendar from the store. When no calendar
// resolves this is a no-op and completion is not invoked. On success the
// persisted record keeps existing with its sync switch off; on failure
// nothing changes and completion gets false. completion may be nil.
func (r *Registry) Remove(completion func(ok bool)) {
	cal, ok := r.Find()
	if !ok {
		return
	}

	if err := r.store.RemoveCalendar(cal.ID); err != nil {
		log.Printf("[registry] calendar remove failed for %s: %v", cal.ID, err)
		if completion != nil {
			completion(false)
		}
		return
	}

	if err := r.prefs.SetSyncOn(r.CalendarName(), false); err != nil {
		log.Printf("[registry] preference write failed after removal: %v", err)
	}
	if completion != nil {
		completion(true)
	}
}

// SyncOn reports whether sync is on for this course. True only when the
// persisted record points at the calendar that actually exists in the store.
// A live calendar with no record self-heals into a fresh enabled record.
func (r *Registry) SyncOn() bool {
	record, exists, err := r.prefs.Record(r.CalendarName())
	if err != nil {
		log.Printf("[registry] preference read failed: %v", err)
		return false
	}

	cal, live := r.Find()
	if exists {
		if live && record.Identifier == cal.ID {
			return record.SyncOn
		}
		return false
	}
	if live {
		record = models.CourseCalendarRecord{
			Identifier: cal.ID,
			CourseID:   r.cfg.CourseID,
			Title:      r.CalendarName(),
			SyncOn:     true,
		}
		if err := r.prefs.Upsert(record); err != nil {
			log.Printf("[registry] preference write failed: %v", err)
		}
		return true
	}
	return false
}

// SetSyncOn persists the sync switch for this course.
func (r *Registry) SetSyncOn(on bool) {
	if err := r.prefs.SetSyncOn(r.CalendarName(), on); err != nil {
		log.Printf("[registry] preference write failed: %v", err)
	}
}

// ModalPresented reports whether the onboarding modal has been shown.
func (r *Registry) ModalPresented() bool {
	presented, err := r.prefs.ModalPresented(r.CalendarName())
	if err != nil {
		log.Printf("[registry] preference read failed: %v", err)
		return false
	}
	return presented
}

// SetModalPresented persists the onboarding modal flag.
func (r *Registry) SetModalPresented(presented bool) {
	if err := r.prefs.SetModalPresented(r.CalendarName(), presented); err != nil {
		log.Printf("[registry] preference write failed: %v", err)
	}
}
