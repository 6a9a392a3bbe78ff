// Package synthesizer converts day-bucketed course date blocks into
// calendar event definitions.
package synthesizer

import (
	"context"
	"strings"
	"time"

	"coursecal/models"
	"coursecal/services/deeplink"
)

const (
	// Events span the hour leading up to the block's due time; the span
	// start doubles as the first alarm time.
	eventLead = time.Hour
	// The second alarm fires a day before the span start.
	secondAlarmLead = 24 * time.Hour
)

// Config identifies the course events are synthesized for.
type Config struct {
	CourseID   string
	CourseName string
	// LinksEnabled gates deep-link generation globally (feature flag).
	LinksEnabled bool
}

// Synthesizer builds event definitions for one course.
type Synthesizer struct {
	cfg       Config
	shortener deeplink.Shortener
	resolver  deeplink.Resolver
	now       func() time.Time
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithShortener supplies the deep-link shortening service.
func WithShortener(s deeplink.Shortener) Option {
	return func(syn *Synthesizer) { syn.shortener = s }
}

// WithResolver supplies the course content query used to enrich deep links
// with a canonical web URL.
func WithResolver(r deeplink.Resolver) Option {
	return func(syn *Synthesizer) { syn.resolver = r }
}

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(syn *Synthesizer) { syn.now = now }
}

// New creates a Synthesizer.
func New(cfg Config, opts ...Option) *Synthesizer {
	syn := &Synthesizer{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(syn)
	}
	return syn
}

// Generate produces one event definition per day bucket that yields a valid
// event. Buckets whose (first) block has an empty title are skipped. The
// result order is unspecified.
func (s *Synthesizer) Generate(ctx context.Context, blocks map[time.Time][]models.DateBlock, withDeepLinks bool) []models.EventDefinition {
	var events []models.EventDefinition
	for _, bucket := range blocks {
		if len(bucket) == 0 {
			continue
		}
		var (
			event models.EventDefinition
			ok    bool
		)
		if len(bucket) == 1 {
			event, ok = s.singleBlockEvent(ctx, bucket[0], withDeepLinks)
		} else {
			event, ok = s.multiBlockEvent(ctx, bucket, withDeepLinks)
		}
		if ok {
			events = append(events, event)
		}
	}
	return events
}

func (s *Synthesizer) singleBlockEvent(ctx context.Context, block models.DateBlock, withDeepLinks bool) (models.EventDefinition, bool) {
	if block.Title == "" {
		return models.EventDefinition{}, false
	}

	notes := s.cfg.CourseName + "\n\n" + block.Title
	if link, ok := s.link(ctx, block, withDeepLinks); ok {
		notes += "\n" + link
	}

	return s.event(block, notes), true
}

func (s *Synthesizer) multiBlockEvent(ctx context.Context, blocks []models.DateBlock, withDeepLinks bool) (models.EventDefinition, bool) {
	// The first block carries the day: its title and due time name and
	// place the combined event.
	first := blocks[0]
	if first.Title == "" {
		return models.EventDefinition{}, false
	}

	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if link, ok := s.link(ctx, block, withDeepLinks); ok {
			lines = append(lines, block.Title+"\n"+link)
		} else {
			lines = append(lines, block.Title)
		}
	}
	notes := s.cfg.CourseName + "\n\n" + strings.Join(lines, "\n\n")

	return s.event(first, notes), true
}

func (s *Synthesizer) event(block models.DateBlock, notes string) models.EventDefinition {
	start := block.BlockDate.Add(-eventLead)
	secondAlarm := start.Add(-secondAlarmLead)
	now := s.now()

	event := models.EventDefinition{
		Title: block.Title + ": " + s.cfg.CourseName,
		Start: start,
		End:   block.BlockDate,
		Notes: notes,
	}
	// Alarms only make sense ahead of time; attaching past ones would fire
	// them immediately on save.
	if start.After(now) {
		event.Alarms = append(event.Alarms, start)
	}
	if secondAlarm.After(now) {
		event.Alarms = append(event.Alarms, secondAlarm)
	}
	return event
}

// link produces the block's deep link, or absence when links are off, the
// block has no component id, or the shortener fails.
func (s *Synthesizer) link(ctx context.Context, block models.DateBlock, withDeepLinks bool) (string, bool) {
	if !withDeepLinks || !s.cfg.LinksEnabled || s.shortener == nil {
		return "", false
	}
	if block.FirstComponentBlockID == "" {
		return "", false
	}

	req := deeplink.Request{
		ComponentBlockID: block.FirstComponentBlockID,
		CourseID:         s.cfg.CourseID,
		ScreenName:       deeplink.ScreenCourseComponent,
	}
	if s.resolver != nil {
		if webURL, ok := s.resolver.ResolveBlockURL(block.FirstComponentBlockID); ok {
			req.CanonicalURL = webURL
		}
	}
	return s.shortener.ShortURL(ctx, req)
}
