// Package deeplink shortens deep-navigation targets (course + content
// block) into URLs suitable for embedding in calendar event notes.
package deeplink

import "context"

// ScreenCourseComponent is the screen tag encoded into course component
// deep links.
const ScreenCourseComponent = "course_component"

// Request identifies the deep-navigation target to shorten.
type Request struct {
	ComponentBlockID string `json:"componentId"`
	CourseID         string `json:"courseId"`
	ScreenName       string `json:"screenName"`
	// CanonicalURL is the block's web URL, used as the desktop fallback.
	CanonicalURL string `json:"desktopUrl,omitempty"`
}

// Shortener produces a short URL for a deep-navigation target. Failures are
// reported as absence, never as an error: a note without a link is always an
// acceptable outcome.
type Shortener interface {
	ShortURL(ctx context.Context, req Request) (string, bool)
}

// Resolver answers the course content query at its boundary: the canonical
// web URL for a content block, if one exists.
type Resolver interface {
	ResolveBlockURL(blockID string) (string, bool)
}
