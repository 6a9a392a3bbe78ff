package synthesizer_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"coursecal/models"
	"coursecal/services/deeplink"
	"coursecal/services/synthesizer"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newSynth(opts ...synthesizer.Option) *synthesizer.Synthesizer {
	cfg := synthesizer.Config{CourseID: "course-1", CourseName: "Demo Course"}
	opts = append(opts, synthesizer.WithClock(func() time.Time { return now }))
	return synthesizer.New(cfg, opts...)
}

func day(t time.Time) time.Time { return models.DayOf(t) }

func TestGenerateSingleBlock(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	blocks := map[time.Time][]models.DateBlock{
		day(due): {{Title: "Unit 1 due", BlockDate: due}},
	}

	events := newSynth().Generate(context.Background(), blocks, false)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Title != "Unit 1 due: Demo Course" {
		t.Errorf("unexpected title %q", event.Title)
	}
	if !event.Start.Equal(due.Add(-time.Hour)) {
		t.Errorf("expected start 1h before due, got %v", event.Start)
	}
	if !event.End.Equal(due) {
		t.Errorf("expected end at due time, got %v", event.End)
	}
	if event.Notes != "Demo Course\n\nUnit 1 due" {
		t.Errorf("unexpected notes %q", event.Notes)
	}
}

func TestGenerateGroupsMultiBlockDay(t *testing.T) {
	day1 := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	blocks := map[time.Time][]models.DateBlock{
		day(day1): {{Title: "Unit 1 due", BlockDate: day1}},
		day(day2): {
			{Title: "Quiz A", BlockDate: day2},
			{Title: "Quiz B", BlockDate: day2},
		},
	}

	events := newSynth().Generate(context.Background(), blocks, false)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	var grouped models.EventDefinition
	for _, event := range events {
		if strings.HasPrefix(event.Title, "Quiz A") {
			grouped = event
		}
	}
	if grouped.Title != "Quiz A: Demo Course" {
		t.Fatalf("expected first block to name the grouped event, got %q", grouped.Title)
	}
	if !strings.Contains(grouped.Notes, "Quiz A") || !strings.Contains(grouped.Notes, "Quiz B") {
		t.Errorf("expected notes to mention both quizzes, got %q", grouped.Notes)
	}
	if !grouped.Start.Equal(day2.Add(-time.Hour)) {
		t.Errorf("expected times derived from the first block, got %v", grouped.Start)
	}
}

func TestGenerateSkipsEmptyTitles(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	blocks := map[time.Time][]models.DateBlock{
		day(due): {{Title: "", BlockDate: due}},
	}
	if events := newSynth().Generate(context.Background(), blocks, false); len(events) != 0 {
		t.Fatalf("expected empty-title block skipped, got %d events", len(events))
	}

	// A multi-block day whose first block has no title is skipped wholesale.
	blocks = map[time.Time][]models.DateBlock{
		day(due): {
			{Title: "", BlockDate: due},
			{Title: "Quiz B", BlockDate: due},
		},
	}
	if events := newSynth().Generate(context.Background(), blocks, false); len(events) != 0 {
		t.Fatalf("expected day with untitled first block skipped, got %d events", len(events))
	}
}

func TestGenerateAlarmsOnlyForFutureEvents(t *testing.T) {
	past := now.Add(-48 * time.Hour)
	future := now.Add(72 * time.Hour)
	blocks := map[time.Time][]models.DateBlock{
		day(past):   {{Title: "Old homework", BlockDate: past}},
		day(future): {{Title: "New homework", BlockDate: future}},
	}

	events := newSynth().Generate(context.Background(), blocks, false)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	for _, event := range events {
		switch {
		case strings.HasPrefix(event.Title, "Old"):
			if len(event.Alarms) != 0 {
				t.Errorf("expected no alarms on past event, got %d", len(event.Alarms))
			}
		case strings.HasPrefix(event.Title, "New"):
			if len(event.Alarms) != 2 {
				t.Errorf("expected both alarms on future event, got %d", len(event.Alarms))
			}
		}
	}
}

func TestGenerateAlarmTimes(t *testing.T) {
	due := now.Add(10 * 24 * time.Hour)
	blocks := map[time.Time][]models.DateBlock{
		day(due): {{Title: "Exam", BlockDate: due}},
	}

	events := newSynth().Generate(context.Background(), blocks, false)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	alarms := events[0].Alarms
	if len(alarms) != 2 {
		t.Fatalf("expected 2 alarms, got %d", len(alarms))
	}
	if !alarms[0].Equal(due.Add(-time.Hour)) {
		t.Errorf("expected first alarm at event start, got %v", alarms[0])
	}
	if !alarms[1].Equal(due.Add(-25 * time.Hour)) {
		t.Errorf("expected second alarm a day before start, got %v", alarms[1])
	}
}

type fakeShortener struct {
	urls  map[string]string
	calls []deeplink.Request
}

func (f *fakeShortener) ShortURL(_ context.Context, req deeplink.Request) (string, bool) {
	f.calls = append(f.calls, req)
	url, ok := f.urls[req.ComponentBlockID]
	return url, ok
}

type fakeResolver map[string]string

func (f fakeResolver) ResolveBlockURL(blockID string) (string, bool) {
	url, ok := f[blockID]
	return url, ok
}

func TestGenerateAppendsDeepLink(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	shortener := &fakeShortener{urls: map[string]string{"block-1": "https://l.ink/abc"}}
	resolver := fakeResolver{"block-1": "https://example.org/course/block-1"}

	synth := synthesizer.New(
		synthesizer.Config{CourseID: "course-1", CourseName: "Demo Course", LinksEnabled: true},
		synthesizer.WithClock(func() time.Time { return now }),
		synthesizer.WithShortener(shortener),
		synthesizer.WithResolver(resolver),
	)

	blocks := map[time.Time][]models.DateBlock{
		day(due): {{Title: "Unit 1 due", BlockDate: due, FirstComponentBlockID: "block-1"}},
	}
	events := synth.Generate(context.Background(), blocks, true)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if !strings.HasSuffix(events[0].Notes, "\nhttps://l.ink/abc") {
		t.Errorf("expected deep link on its own line, got %q", events[0].Notes)
	}

	if len(shortener.calls) != 1 {
		t.Fatalf("expected 1 shortener call, got %d", len(shortener.calls))
	}
	call := shortener.calls[0]
	if call.CourseID != "course-1" || call.ScreenName != deeplink.ScreenCourseComponent {
		t.Errorf("unexpected shortener request %+v", call)
	}
	if call.CanonicalURL != "https://example.org/course/block-1" {
		t.Errorf("expected resolver-enriched canonical URL, got %q", call.CanonicalURL)
	}
}

func TestGenerateDegradesWithoutLink(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	shortener := &fakeShortener{urls: map[string]string{}} // always fails

	synth := synthesizer.New(
		synthesizer.Config{CourseID: "course-1", CourseName: "Demo Course", LinksEnabled: true},
		synthesizer.WithClock(func() time.Time { return now }),
		synthesizer.WithShortener(shortener),
	)

	blocks := map[time.Time][]models.DateBlock{
		day(due): {{Title: "Unit 1 due", BlockDate: due, FirstComponentBlockID: "block-1"}},
	}
	events := synth.Generate(context.Background(), blocks, true)
	if len(events) != 1 {
		t.Fatalf("expected 1 event despite shortener failure, got %d", len(events))
	}
	if events[0].Notes != "Demo Course\n\nUnit 1 due" {
		t.Errorf("expected plain notes, got %q", events[0].Notes)
	}
}

func TestGenerateNoLinksWhenDisabled(t *testing.T) {
	due := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	shortener := &fakeShortener{urls: map[string]string{"block-1": "https://l.ink/abc"}}

	// Feature flag off: the shortener must not even be consulted.
	synth := synthesizer.New(
		synthesizer.Config{CourseID: "course-1", CourseName: "Demo Course", LinksEnabled: false},
		synthesizer.WithClock(func() time.Time { return now }),
		synthesizer.WithShortener(shortener),
	)

	blocks := map[time.Time][]models.DateBlock{
		day(due): {{Title: "Unit 1 due", BlockDate: due, FirstComponentBlockID: "block-1"}},
	}
	synth.Generate(context.Background(), blocks, true)
	if len(shortener.calls) != 0 {
		t.Fatalf("expected no shortener calls, got %d", len(shortener.calls))
	}
}

func TestGenerateMultiBlockPerBlockLinks(t *testing.T) {
	due := time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
	shortener := &fakeShortener{urls: map[string]string{
		"block-a": "https://l.ink/a",
		"block-b": "https://l.ink/b",
	}}

	synth := synthesizer.New(
		synthesizer.Config{CourseID: "course-1", CourseName: "Demo Course", LinksEnabled: true},
		synthesizer.WithClock(func() time.Time { return now }),
		synthesizer.WithShortener(shortener),
	)

	blocks := map[time.Time][]models.DateBlock{
		day(due): {
			{Title: "Quiz A", BlockDate: due, FirstComponentBlockID: "block-a"},
			{Title: "Quiz B", BlockDate: due, FirstComponentBlockID: "block-b"},
		},
	}
	events := synth.Generate(context.Background(), blocks, true)
	if len(events) != 1 {
		t.Fatalf("expected 1 grouped event, got %d", len(events))
	}
	notes := events[0].Notes
	if !strings.Contains(notes, "Quiz A\nhttps://l.ink/a") {
		t.Errorf("expected per-block link for Quiz A, got %q", notes)
	}
	if !strings.Contains(notes, "Quiz B\nhttps://l.ink/b") {
		t.Errorf("expected per-block link for Quiz B, got %q", notes)
	}
}
