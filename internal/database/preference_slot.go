package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"coursecal/models"
)

// CalendarEntriesSlot is the slot name the sync engine stores course
// calendar records under.
const CalendarEntriesSlot = "CalendarEntries"

// PreferenceSlot persists the whole course-calendar record list as one blob
// in a single row. The contract is get-whole/set-whole, matching the
// preferences.Slot interface; there is no per-record API.
type PreferenceSlot struct {
	conn *sql.DB
	name string
}

// NewPreferenceSlot creates the repository bound to the default slot name.
func NewPreferenceSlot(conn *sql.DB) *PreferenceSlot {
	return &PreferenceSlot{conn: conn, name: CalendarEntriesSlot}
}

// Load reads the persisted record list. A missing row is an empty list.
func (p *PreferenceSlot) Load() ([]models.CourseCalendarRecord, error) {
	var payload []byte
	err := p.conn.QueryRow(
		`SELECT payload FROM preference_blob WHERE slot = ?`, p.name,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load preference blob: %w", err)
	}

	var records []models.CourseCalendarRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("decode preference blob: %w", err)
	}
	return records, nil
}

// Store replaces the persisted record list.
func (p *PreferenceSlot) Store(records []models.CourseCalendarRecord) error {
	if records == nil {
		records = []models.CourseCalendarRecord{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode preference blob: %w", err)
	}

	_, err = p.conn.Exec(
		`INSERT INTO preference_blob (slot, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		p.name, payload,
	)
	if err != nil {
		return fmt.Errorf("store preference blob: %w", err)
	}
	return nil
}
