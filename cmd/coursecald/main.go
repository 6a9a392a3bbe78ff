package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"coursecal/api"
	"coursecal/handlers"
	"coursecal/internal/database"
	"coursecal/services/deeplink"
	"coursecal/services/eventstore"
	"coursecal/services/preferences"
	"coursecal/services/syncer"
	"coursecal/utils"
)

// fileCatalog maps course ids to names from a JSON file:
// {"course-v1:edX+DemoX+2024": "Demonstration Course", ...}
type fileCatalog map[string]string

func (c fileCatalog) CourseName(courseID string) (string, bool) {
	name, ok := c[courseID]
	return name, ok
}

// engineProvider adapts the syncer manager to the handler's interface.
type engineProvider struct {
	manager *syncer.Manager
}

func (p engineProvider) Engine(courseID string) (handlers.Engine, bool) {
	engine, ok := p.manager.Engine(courseID)
	if !ok {
		return nil, false
	}
	return engine, true
}

func main() {
	var (
		addr         = flag.String("addr", ":8970", "listen address")
		dataDir      = flag.String("data", "./data", "data directory")
		platform     = flag.String("platform", "edX", "platform display name")
		color        = flag.String("color", "#00262B", "calendar accent color")
		shortenerURL = flag.String("shortener-url", "", "deep-link shortener base URL (links disabled when empty)")
		shortenerKey = flag.String("shortener-key", "", "deep-link shortener API key")
	)
	flag.Parse()

	catalog, err := loadCatalog(filepath.Join(*dataDir, "courses.json"))
	if err != nil {
		log.Fatalf("[main] load course catalog: %v", err)
	}

	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(*dataDir, "coursecal.db")})
	if err != nil {
		log.Fatalf("[main] open database: %v", err)
	}
	defer db.Close()

	prefs := preferences.NewStore(db.Preferences)

	// The serialized wrapper confines store writes to one goroutine; the
	// in-memory store is the local backend until a real one is plugged in.
	store := eventstore.NewSerializedStore(eventstore.NewMemoryStore())
	defer store.Close()

	var shortener deeplink.Shortener
	if *shortenerURL != "" {
		shortener = deeplink.NewClient(*shortenerURL, *shortenerKey)
	}

	manager := syncer.NewManager(syncer.ManagerConfig{
		PlatformName:  *platform,
		CalendarColor: *color,
		LinksEnabled:  *shortenerURL != "",
	}, store, prefs, catalog, shortener, nil)

	router := utils.NewRouter()
	limiter := api.NewSyncRateLimiter(rate.Every(12*time.Second), 5)
	router.Use(limiter.Middleware)
	handlers.NewCalendarSyncHandler(engineProvider{manager: manager}).Register(router)

	log.Printf("[main] listening on %s (%d courses)", *addr, len(catalog))
	if err := http.ListenAndServe(*addr, router); err != nil {
		log.Fatalf("[main] server stopped: %v", err)
	}
}

func loadCatalog(path string) (fileCatalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("[main] no course catalog at %s, starting empty", path)
		return fileCatalog{}, nil
	}
	if err != nil {
		return nil, err
	}
	var catalog fileCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}
