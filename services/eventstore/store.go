// Package eventstore defines the capability surface the sync engine needs
// from an external, user-owned calendar store, plus an in-memory
// implementation used as the test double and reference backend.
package eventstore

import (
	"context"
	"errors"
	"time"

	"coursecal/models"
)

var (
	// ErrCalendarNotFound is returned when a calendar id does not resolve.
	ErrCalendarNotFound = errors.New("calendar not found")
	// ErrNotAuthorized is returned for writes attempted without access.
	ErrNotAuthorized = errors.New("calendar access not authorized")
)

// Store is the boundary to the external calendar store. Implementations own
// calendars and events; the engine only correlates by identifier.
//
// The handle is not safe for concurrent mutation from multiple goroutines.
// Wrap it in a SerializedStore when more than one goroutine may write.
type Store interface {
	// Calendars enumerates all calendars currently in the store, in the
	// store's own enumeration order.
	Calendars() []models.Calendar

	// Sources enumerates the store's sources.
	Sources() []models.Source

	// DefaultSource reports the source the store would use for new events.
	DefaultSource() (models.Source, bool)

	// AuthorizationStatus reports the current permission state. The value
	// may be cached; Refresh drops the cache.
	AuthorizationStatus() models.AuthorizationStatus

	// RequestAccess asks the user/OS for calendar access. May block
	// indefinitely on user interaction.
	RequestAccess(ctx context.Context) (bool, error)

	// Refresh discards cached source and authorization state so the next
	// read observes the store's current truth.
	Refresh()

	// CreateCalendar persists a new calendar and returns it with its
	// identifier assigned.
	CreateCalendar(cal models.Calendar) (models.Calendar, error)

	// RemoveCalendar deletes a calendar and its events.
	RemoveCalendar(id string) error

	// StageEvent buffers an event for the next Commit.
	StageEvent(event models.EventDefinition) error

	// EventsInRange returns committed events in [start, end] for the given
	// calendar. Unknown calendar ids yield an empty result, not an error:
	// a stale identifier means "calendar absent".
	EventsInRange(calendarID string, start, end time.Time) []models.EventDefinition

	// Commit flushes all staged events in one transaction.
	Commit() error

	// ResetStaged drops staged, uncommitted events.
	ResetStaged()
}
