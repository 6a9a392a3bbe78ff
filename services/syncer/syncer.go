// Package syncer is the top-level course calendar sync flow: ensure the
// dedicated calendar exists, synthesize events off the caller's goroutine,
// skip what already exists, and commit the rest as one batch.
package syncer

import (
	"context"
	"log"
	"sync"
	"time"

	"coursecal/models"
	"coursecal/services/authgate"
	"coursecal/services/dedup"
	"coursecal/services/eventstore"
	"coursecal/services/preferences"
	"coursecal/services/registry"
	"coursecal/services/synthesizer"
)

// Orchestrator drives sync for one course. All operations for the course
// are serialized through an internal mutex, so concurrent syncs, removals,
// and toggles cannot interleave on the calendar or the preference record.
type Orchestrator struct {
	mu       sync.Mutex
	store    eventstore.Store
	prefs    *preferences.Store
	registry *registry.Registry
	synth    *synthesizer.Synthesizer
	dedup    *dedup.Deduplicator
	gate     *authgate.Gate

	// dispatch delivers async completions; the default runs them inline on
	// the background goroutine. Callers embedding the engine in an event
	// loop inject their own.
	dispatch func(func())
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithDispatch routes async completion callbacks through fn, the analog of
// redispatching onto the interactive context.
func WithDispatch(fn func(func())) Option {
	return func(o *Orchestrator) { o.dispatch = fn }
}

// New assembles an Orchestrator from its collaborators.
func New(store eventstore.Store, prefs *preferences.Store, reg *registry.Registry, synth *synthesizer.Synthesizer, dd *dedup.Deduplicator, gate *authgate.Gate, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		prefs:    prefs,
		registry: reg,
		synth:    synth,
		dedup:    dd,
		gate:     gate,
		dispatch: func(fn func()) { fn() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sync adds the course's date blocks to the external calendar. It reports
// overall success only; a failed commit may leave events staged in the
// store, which the next attempt drops before staging its own batch.
func (o *Orchestrator) Sync(ctx context.Context, blocks map[time.Time][]models.DateBlock) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.registry.Ensure() {
		return false
	}

	events := o.synth.Generate(ctx, blocks, true)
	if len(events) == 0 {
		// A schedule that synthesizes nothing should not leave an empty
		// calendar behind; roll the creation back.
		log.Printf("[syncer] no events synthesized for %q, removing calendar", o.registry.CalendarName())
		o.registry.Remove(nil)
		return false
	}

	record, ok, err := o.prefs.Record(o.registry.CalendarName())
	if err != nil || !ok {
		log.Printf("[syncer] no course record after ensure for %q: %v", o.registry.CalendarName(), err)
		return false
	}

	// A prior failed commit leaves its events staged; the dedup check below
	// only sees committed events, so stale staged copies would double-write.
	o.store.ResetStaged()

	for _, event := range events {
		event.CalendarID = record.Identifier
		if o.dedup.Exists(event, record.Identifier) {
			continue
		}
		if err := o.store.StageEvent(event); err != nil {
			log.Printf("[syncer] stage failed for %q: %v", event.Title, err)
		}
	}

	if err := o.store.Commit(); err != nil {
		// Staged events may remain in the store; reported as failure, not
		// rolled back.
		log.Printf("[syncer] commit failed for %q: %v", o.registry.CalendarName(), err)
		return false
	}
	return true
}

// NeedsReshift reports whether the current blocks have drifted from what
// the calendar holds. See dedup.Deduplicator.
func (o *Orchestrator) NeedsReshift(ctx context.Context, blocks map[time.Time][]models.DateBlock) bool {
	return o.dedup.NeedsReshift(ctx, blocks)
}

// Remove deletes the course calendar, keeping the preference record with
// its switch off. completion may be nil; it is not invoked when no calendar
// resolves.
func (o *Orchestrator) Remove(completion func(ok bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.Remove(completion)
}

// RequestAccess runs the authorization gate.
func (o *Orchestrator) RequestAccess(ctx context.Context) (authgate.Result, error) {
	return o.gate.RequestAccess(ctx)
}

// SyncOn reports the effective sync switch. Read path, not serialized.
func (o *Orchestrator) SyncOn() bool {
	return o.registry.SyncOn()
}

// SetSyncOn persists the sync switch.
func (o *Orchestrator) SetSyncOn(on bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.SetSyncOn(on)
}

// ModalPresented reports the onboarding modal flag. Read path.
func (o *Orchestrator) ModalPresented() bool {
	return o.registry.ModalPresented()
}

// SetModalPresented persists the onboarding modal flag.
func (o *Orchestrator) SetModalPresented(presented bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry.SetModalPresented(presented)
}
