package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"coursecal/handlers"
	"coursecal/models"
	"coursecal/services/authgate"
)

type fakeEngine struct {
	syncOK      bool
	syncBlocks  map[time.Time][]models.DateBlock
	reshift     bool
	hasCalendar bool
	removeOK    bool
	on          bool
	modal       bool
	access      authgate.Result
}

func (f *fakeEngine) Sync(_ context.Context, blocks map[time.Time][]models.DateBlock) bool {
	f.syncBlocks = blocks
	return f.syncOK
}

func (f *fakeEngine) NeedsReshift(_ context.Context, _ map[time.Time][]models.DateBlock) bool {
	return f.reshift
}

func (f *fakeEngine) Remove(completion func(ok bool)) {
	if !f.hasCalendar {
		return
	}
	completion(f.removeOK)
}

func (f *fakeEngine) RequestAccess(_ context.Context) (authgate.Result, error) {
	return f.access, nil
}

func (f *fakeEngine) SyncOn() bool             { return f.on }
func (f *fakeEngine) SetSyncOn(on bool)        { f.on = on }
func (f *fakeEngine) ModalPresented() bool     { return f.modal }
func (f *fakeEngine) SetModalPresented(p bool) { f.modal = p }

type fakeProvider map[string]*fakeEngine

func (p fakeProvider) Engine(courseID string) (handlers.Engine, bool) {
	engine, ok := p[courseID]
	if !ok {
		return nil, false
	}
	return engine, true
}

func newServer(engines fakeProvider) *mux.Router {
	router := mux.NewRouter()
	handlers.NewCalendarSyncHandler(engines).Register(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetStateReturnsFlags(t *testing.T) {
	engine := &fakeEngine{on: true, modal: true}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodGet, "/courses/course-1/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var state map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.True(t, state["syncOn"])
	require.True(t, state["modalPresented"])
}

func TestUnknownCourseIs404(t *testing.T) {
	router := newServer(fakeProvider{})
	rec := doJSON(t, router, http.MethodGet, "/courses/missing/calendar", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncBucketsBlocksByDay(t *testing.T) {
	engine := &fakeEngine{syncOK: true}
	router := newServer(fakeProvider{"course-1": engine})

	day := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	body := map[string]any{
		"blocks": []models.DateBlock{
			{Title: "Quiz A", BlockDate: day.Add(9 * time.Hour)},
			{Title: "Quiz B", BlockDate: day.Add(9 * time.Hour)},
			{Title: "Unit 1 due", BlockDate: day.Add(48 * time.Hour)},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/courses/course-1/calendar/sync", body)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, engine.syncBlocks, 2)
	require.Len(t, engine.syncBlocks[day], 2)
}

func TestSyncFailureIs502(t *testing.T) {
	engine := &fakeEngine{syncOK: false}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodPost, "/courses/course-1/calendar/sync", map[string]any{"blocks": []models.DateBlock{}})
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSyncRejectsBadBody(t *testing.T) {
	router := newServer(fakeProvider{"course-1": {}})
	req := httptest.NewRequest(http.MethodPost, "/courses/course-1/calendar/sync", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemoveWithoutCalendar(t *testing.T) {
	engine := &fakeEngine{hasCalendar: false}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodDelete, "/courses/course-1/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp["ok"])
	require.False(t, resp["removed"])
}

func TestRemoveSuccess(t *testing.T) {
	engine := &fakeEngine{hasCalendar: true, removeOK: true}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodDelete, "/courses/course-1/calendar", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp["removed"])
}

func TestRemoveFailureIs502(t *testing.T) {
	engine := &fakeEngine{hasCalendar: true, removeOK: false}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodDelete, "/courses/course-1/calendar", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestReshift(t *testing.T) {
	engine := &fakeEngine{reshift: true}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodPost, "/courses/course-1/calendar/reshift", map[string]any{"blocks": []models.DateBlock{}})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp["needed"])
}

func TestToggle(t *testing.T) {
	engine := &fakeEngine{on: true}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodPut, "/courses/course-1/calendar/toggle", map[string]bool{"on": false})
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, engine.on)
}

func TestModal(t *testing.T) {
	engine := &fakeEngine{}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodPut, "/courses/course-1/calendar/modal", map[string]bool{"presented": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, engine.modal)
}

func TestRequestAccess(t *testing.T) {
	engine := &fakeEngine{access: authgate.Result{
		Granted:  true,
		Previous: models.AuthNotDetermined,
		Current:  models.AuthAuthorized,
	}}
	router := newServer(fakeProvider{"course-1": engine})

	rec := doJSON(t, router, http.MethodPost, "/courses/course-1/calendar/access", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, true, resp["granted"])
	require.Equal(t, "notDetermined", resp["previous"])
	require.Equal(t, "authorized", resp["current"])
}
