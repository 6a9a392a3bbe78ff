package models

// SourceType classifies where a calendar store source lives.
type SourceType string

const (
	SourceCalDAV SourceType = "caldav"
	SourceLocal  SourceType = "local"
	SourceOther  SourceType = "other"
)

// Source is a calendar store source (an account or backing location that
// calendars belong to).
type Source struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Type  SourceType `json:"type"`
}

// Calendar is the engine's handle onto an externally owned calendar. The
// store owns the calendar itself; we keep only the identifier and title for
// correlation. The identifier can go stale if the user deletes the calendar
// outside the app, which callers must treat as "calendar absent".
type Calendar struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Color    string `json:"color,omitempty"`
	SourceID string `json:"sourceId,omitempty"`
}

// AuthorizationStatus mirrors the external store's permission state for
// calendar access. Transitions happen only through the authorization gate.
type AuthorizationStatus int

const (
	AuthNotDetermined AuthorizationStatus = iota
	AuthRestricted
	AuthDenied
	AuthAuthorized
	AuthLimited
)

// String returns the lowercase wire name for the status.
func (s AuthorizationStatus) String() string {
	switch s {
	case AuthNotDetermined:
		return "notDetermined"
	case AuthRestricted:
		return "restricted"
	case AuthDenied:
		return "denied"
	case AuthAuthorized:
		return "authorized"
	case AuthLimited:
		return "limited"
	default:
		return "unknown"
	}
}
