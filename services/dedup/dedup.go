// Package dedup decides whether synthesized events already exist in the
// external calendar, and whether previously synced data has drifted enough
// to need a full re-sync.
package dedup

import (
	"context"
	"log"
	"time"

	"coursecal/models"
	"coursecal/services/eventstore"
	"coursecal/services/preferences"
	"coursecal/services/synthesizer"
)

// Deduplicator answers existence and drift questions for one course.
type Deduplicator struct {
	store eventstore.Store
	prefs *preferences.Store
	synth *synthesizer.Synthesizer
	// calendarName keys the persisted course record.
	calendarName string
}

// New creates a Deduplicator.
func New(store eventstore.Store, prefs *preferences.Store, synth *synthesizer.Synthesizer, calendarName string) *Deduplicator {
	return &Deduplicator{store: store, prefs: prefs, synth: synth, calendarName: calendarName}
}

// Exists reports whether an event with exactly the same title, start, and
// end is already stored in the given calendar. No fuzzy matching.
func (d *Deduplicator) Exists(event models.EventDefinition, calendarID string) bool {
	for _, existing := range d.store.EventsInRange(calendarID, event.Start, event.End) {
		if existing.Title == event.Title &&
			existing.Start.Equal(event.Start) &&
			existing.End.Equal(event.End) {
			return true
		}
	}
	return false
}

// NeedsReshift reports whether the course schedule should be re-synced:
// unconditionally when the course has never been synced, otherwise when any
// event synthesized from the current blocks is missing from the calendar.
func (d *Deduplicator) NeedsReshift(ctx context.Context, blocks map[time.Time][]models.DateBlock) bool {
	record, exists, err := d.prefs.Record(d.calendarName)
	if err != nil {
		log.Printf("[dedup] preference read failed: %v", err)
		return true
	}
	if !exists {
		return true
	}

	for _, event := range d.synth.Generate(ctx, blocks, false) {
		if !d.Exists(event, record.Identifier) {
			return true
		}
	}
	return false
}
