package syncer

import (
	"sync"

	"coursecal/services/authgate"
	"coursecal/services/dedup"
	"coursecal/services/deeplink"
	"coursecal/services/eventstore"
	"coursecal/services/preferences"
	"coursecal/services/registry"
	"coursecal/services/synthesizer"
)

// CourseCatalog names the courses the manager may build engines for.
type CourseCatalog interface {
	CourseName(courseID string) (string, bool)
}

// ManagerConfig holds the settings shared by every course engine.
type ManagerConfig struct {
	PlatformName string
	// CalendarColor is the accent color for created calendars.
	CalendarColor string
	LinksEnabled  bool
}

// Manager builds and caches one Orchestrator per course, all sharing the
// same store and preference slot.
type Manager struct {
	mu      sync.Mutex
	cfg     ManagerConfig
	store   eventstore.Store
	prefs   *preferences.Store
	catalog CourseCatalog

	shortener deeplink.Shortener
	resolver  deeplink.Resolver

	engines map[string]*Orchestrator
}

// NewManager creates a Manager. shortener and resolver may be nil, in which
// case events are synthesized without deep links.
func NewManager(cfg ManagerConfig, store eventstore.Store, prefs *preferences.Store, catalog CourseCatalog, shortener deeplink.Shortener, resolver deeplink.Resolver) *Manager {
	return &Manager{
		cfg:       cfg,
		store:     store,
		prefs:     prefs,
		catalog:   catalog,
		shortener: shortener,
		resolver:  resolver,
		engines:   make(map[string]*Orchestrator),
	}
}

// Engine returns the orchestrator for the course, building it on first use.
// Unknown courses report false.
func (m *Manager) Engine(courseID string) (*Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if engine, ok := m.engines[courseID]; ok {
		return engine, true
	}

	courseName, ok := m.catalog.CourseName(courseID)
	if !ok {
		return nil, false
	}

	synth := synthesizer.New(
		synthesizer.Config{
			CourseID:     courseID,
			CourseName:   courseName,
			LinksEnabled: m.cfg.LinksEnabled,
		},
		synthesizer.WithShortener(m.shortener),
		synthesizer.WithResolver(m.resolver),
	)
	reg := registry.New(registry.Config{
		CourseID:     courseID,
		CourseName:   courseName,
		PlatformName: m.cfg.PlatformName,
		Color:        m.cfg.CalendarColor,
	}, m.store, m.prefs)
	dd := dedup.New(m.store, m.prefs, synth, reg.CalendarName())
	gate := authgate.New(m.store)

	engine := New(m.store, m.prefs, reg, synth, dd, gate)
	m.engines[courseID] = engine
	return engine, true
}
