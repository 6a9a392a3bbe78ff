package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"coursecal/models"
	"coursecal/services/authgate"
)

// Engine is the per-course sync surface the HTTP adapter exposes.
// *syncer.Orchestrator satisfies it.
type Engine interface {
	Sync(ctx context.Context, blocks map[time.Time][]models.DateBlock) bool
	NeedsReshift(ctx context.Context, blocks map[time.Time][]models.DateBlock) bool
	Remove(completion func(ok bool))
	RequestAccess(ctx context.Context) (authgate.Result, error)
	SyncOn() bool
	SetSyncOn(on bool)
	ModalPresented() bool
	SetModalPresented(presented bool)
}

// EngineProvider resolves the engine for a course. Unknown courses report
// false.
type EngineProvider interface {
	Engine(courseID string) (Engine, bool)
}

// CalendarSyncHandler serves the course calendar sync API.
type CalendarSyncHandler struct {
	Engines EngineProvider
}

// NewCalendarSyncHandler creates a new CalendarSyncHandler.
func NewCalendarSyncHandler(engines EngineProvider) *CalendarSyncHandler {
	return &CalendarSyncHandler{Engines: engines}
}

// Register attaches the handler's routes to the router.
func (h *CalendarSyncHandler) Register(r *mux.Router) {
	r.HandleFunc("/courses/{courseID}/calendar", h.GetState).Methods(http.MethodGet)
	r.HandleFunc("/courses/{courseID}/calendar", h.RemoveCalendar).Methods(http.MethodDelete)
	r.HandleFunc("/courses/{courseID}/calendar/sync", h.SyncCalendar).Methods(http.MethodPost)
	r.HandleFunc("/courses/{courseID}/calendar/reshift", h.CheckReshift).Methods(http.MethodPost)
	r.HandleFunc("/courses/{courseID}/calendar/access", h.RequestAccess).Methods(http.MethodPost)
	r.HandleFunc("/courses/{courseID}/calendar/toggle", h.Toggle).Methods(http.MethodPut)
	r.HandleFunc("/courses/{courseID}/calendar/modal", h.Modal).Methods(http.MethodPut)
}

type stateResponse struct {
	SyncOn         bool `json:"syncOn"`
	ModalPresented bool `json:"modalPresented"`
}

// GetState returns the course's persisted sync state.
func (h *CalendarSyncHandler) GetState(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{
		SyncOn:         engine.SyncOn(),
		ModalPresented: engine.ModalPresented(),
	})
}

type syncRequest struct {
	Blocks []models.DateBlock `json:"blocks"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// SyncCalendar runs a full sync of the posted date blocks.
func (h *CalendarSyncHandler) SyncCalendar(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}
	blocks, ok := decodeBlocks(w, r)
	if !ok {
		return
	}

	if engine.Sync(r.Context(), blocks) {
		writeJSON(w, http.StatusOK, okResponse{OK: true})
		return
	}
	writeJSON(w, http.StatusBadGateway, okResponse{OK: false})
}

type reshiftResponse struct {
	Needed bool `json:"needed"`
}

// CheckReshift reports whether the posted blocks have drifted from what the
// external calendar holds.
func (h *CalendarSyncHandler) CheckReshift(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}
	blocks, ok := decodeBlocks(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, reshiftResponse{Needed: engine.NeedsReshift(r.Context(), blocks)})
}

type removeResponse struct {
	OK      bool `json:"ok"`
	Removed bool `json:"removed"`
}

// RemoveCalendar deletes the course calendar. Removing a course that has no
// calendar succeeds without removing anything.
func (h *CalendarSyncHandler) RemoveCalendar(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}

	// The engine's completion is only invoked when a calendar resolved.
	invoked := false
	result := false
	engine.Remove(func(ok bool) {
		invoked = true
		result = ok
	})

	if !invoked {
		writeJSON(w, http.StatusOK, removeResponse{OK: true, Removed: false})
		return
	}
	if !result {
		writeJSON(w, http.StatusBadGateway, removeResponse{OK: false, Removed: false})
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{OK: true, Removed: true})
}

type accessResponse struct {
	Granted  bool   `json:"granted"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// RequestAccess runs the authorization gate.
func (h *CalendarSyncHandler) RequestAccess(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}
	result, err := engine.RequestAccess(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "access request failed"})
		return
	}
	writeJSON(w, http.StatusOK, accessResponse{
		Granted:  result.Granted,
		Previous: result.Previous.String(),
		Current:  result.Current.String(),
	})
}

type toggleRequest struct {
	On bool `json:"on"`
}

// Toggle flips the persisted sync switch.
func (h *CalendarSyncHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}
	var body toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	engine.SetSyncOn(body.On)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

type modalRequest struct {
	Presented bool `json:"presented"`
}

// Modal records whether the onboarding modal has been shown.
func (h *CalendarSyncHandler) Modal(w http.ResponseWriter, r *http.Request) {
	engine, ok := h.requireEngine(w, r)
	if !ok {
		return
	}
	var body modalRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	engine.SetModalPresented(body.Presented)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *CalendarSyncHandler) requireEngine(w http.ResponseWriter, r *http.Request) (Engine, bool) {
	courseID := strings.TrimSpace(mux.Vars(r)["courseID"])
	if courseID == "" {
		http.Error(w, "course id is required", http.StatusBadRequest)
		return nil, false
	}
	engine, ok := h.Engines.Engine(courseID)
	if !ok {
		http.Error(w, "course not found", http.StatusNotFound)
		return nil, false
	}
	return engine, true
}

// decodeBlocks reads the posted date blocks and buckets them by calendar
// day, the shape the synthesizer consumes.
func decodeBlocks(w http.ResponseWriter, r *http.Request) (map[time.Time][]models.DateBlock, bool) {
	var body syncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}

	blocks := make(map[time.Time][]models.DateBlock, len(body.Blocks))
	for _, block := range body.Blocks {
		day := models.DayOf(block.BlockDate)
		blocks[day] = append(blocks[day], block)
	}
	return blocks, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
