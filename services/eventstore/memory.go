package eventstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"coursecal/models"
)

// MemoryStore is an in-memory Store. It backs tests and local development
// and doubles as the reference for how a real backend should behave:
// identifier assignment on create, staged-then-committed event writes, and
// cached authorization state that only Refresh drops.
//
// Failure injection flags let tests exercise the engine's error paths.
type MemoryStore struct {
	mu sync.Mutex

	calendars []models.Calendar
	sources   []models.Source
	defSource string // id of the default source, "" for none
	events    map[string][]models.EventDefinition
	staged    []models.EventDefinition

	authActual models.AuthorizationStatus // truth
	authCached models.AuthorizationStatus // what AuthorizationStatus reports
	grantOnAsk bool                       // RequestAccess outcome

	FailCreate bool
	FailRemove bool
	FailStage  bool
	FailCommit bool
}

// NewMemoryStore returns an empty store that is already authorized and
// grants any access request.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:     make(map[string][]models.EventDefinition),
		authActual: models.AuthAuthorized,
		authCached: models.AuthAuthorized,
		grantOnAsk: true,
	}
}

// AddSource registers a source and returns its id.
func (m *MemoryStore) AddSource(title string, typ models.SourceType) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := models.Source{ID: uuid.NewString(), Title: title, Type: typ}
	m.sources = append(m.sources, src)
	return src.ID
}

// SetDefaultSource marks the source the store uses for new events.
func (m *MemoryStore) SetDefaultSource(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defSource = id
}

// SetAuthorization sets the store's actual permission state and whether a
// future RequestAccess will be granted. The cached state reported by
// AuthorizationStatus is left as-is until Refresh, mimicking stores that
// serve stale permission state.
func (m *MemoryStore) SetAuthorization(actual models.AuthorizationStatus, grantOnAsk bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authActual = actual
	m.grantOnAsk = grantOnAsk
}

func (m *MemoryStore) Calendars() []models.Calendar {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Calendar, len(m.calendars))
	copy(out, m.calendars)
	return out
}

func (m *MemoryStore) Sources() []models.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Source, len(m.sources))
	copy(out, m.sources)
	return out
}

func (m *MemoryStore) DefaultSource() (models.Source, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, src := range m.sources {
		if src.ID == m.defSource {
			return src, true
		}
	}
	return models.Source{}, false
}

func (m *MemoryStore) AuthorizationStatus() models.AuthorizationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authCached
}

func (m *MemoryStore) RequestAccess(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authActual == models.AuthAuthorized {
		return true, nil
	}
	if m.grantOnAsk {
		m.authActual = models.AuthAuthorized
		return true, nil
	}
	m.authActual = models.AuthDenied
	return false, nil
}

func (m *MemoryStore) Refresh() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authCached = m.authActual
}

func (m *MemoryStore) CreateCalendar(cal models.Calendar) (models.Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate {
		return models.Calendar{}, ErrNotAuthorized
	}
	cal.ID = uuid.NewString()
	m.calendars = append(m.calendars, cal)
	return cal, nil
}

func (m *MemoryStore) RemoveCalendar(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRemove {
		return ErrNotAuthorized
	}
	for i, cal := range m.calendars {
		if cal.ID == id {
			m.calendars = append(m.calendars[:i], m.calendars[i+1:]...)
			delete(m.events, id)
			return nil
		}
	}
	return ErrCalendarNotFound
}

func (m *MemoryStore) StageEvent(event models.EventDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailStage {
		return ErrNotAuthorized
	}
	m.staged = append(m.staged, event)
	return nil
}

func (m *MemoryStore) EventsInRange(calendarID string, start, end time.Time) []models.EventDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EventDefinition
	for _, ev := range m.events[calendarID] {
		if ev.Start.Before(start) || ev.End.After(end) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (m *MemoryStore) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCommit {
		// Staged events stay staged: a failed commit does not roll back
		// what callers have already handed over.
		return ErrNotAuthorized
	}
	for _, ev := range m.staged {
		m.events[ev.CalendarID] = append(m.events[ev.CalendarID], ev)
	}
	m.staged = nil
	return nil
}

func (m *MemoryStore) ResetStaged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staged = nil
}

// EventCount reports committed events for a calendar. Test helper.
func (m *MemoryStore) EventCount(calendarID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events[calendarID])
}

// StagedCount reports events staged but not committed. Test helper.
func (m *MemoryStore) StagedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.staged)
}
