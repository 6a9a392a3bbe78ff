package models

import "time"

// CourseCalendarRecord is the persisted per-course sync state: which external
// calendar belongs to the course, whether sync is switched on, and whether
// the onboarding modal has been shown. Records are looked up by Title
// (platform name + " - " + course name); CourseID is stored alongside but is
// not the lookup key.
type CourseCalendarRecord struct {
	Identifier     string `json:"identifier"` // external calendar id
	CourseID       string `json:"courseId"`
	Title          string `json:"title"`
	SyncOn         bool   `json:"isOn"`
	ModalPresented bool   `json:"modalPresented"`
}

// DateBlock is a single dated schedule item for a course, as supplied by the
// course content query.
type DateBlock struct {
	Title                 string    `json:"title"`
	BlockDate             time.Time `json:"blockDate"`
	FirstComponentBlockID string    `json:"firstComponentBlockId,omitempty"`
}

// EventDefinition describes one calendar event to be written to the external
// store. Alarms hold at most two absolute alarm times; alarms that would
// already be in the past at synthesis time are omitted.
type EventDefinition struct {
	Title      string      `json:"title"`
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Alarms     []time.Time `json:"alarms,omitempty"`
	Notes      string      `json:"notes,omitempty"`
	CalendarID string      `json:"calendarId,omitempty"`
}

// DayOf truncates t to its calendar day in t's location. Date blocks are
// bucketed by this value before synthesis.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
