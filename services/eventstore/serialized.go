package eventstore

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"coursecal/models"
)

// SerializedStore funnels every mutating call through a single worker
// goroutine. The underlying store handle is not safe for concurrent
// mutation; confining writes to one goroutine makes that contract explicit
// instead of relying on callers to coordinate. State reads pass through on
// the calling goroutine.
type SerializedStore struct {
	inner Store
	ops   chan func()
	wg    conc.WaitGroup
	done  chan struct{}
}

// NewSerializedStore wraps inner and starts the worker. Call Close when the
// store is no longer needed.
func NewSerializedStore(inner Store) *SerializedStore {
	s := &SerializedStore{
		inner: inner,
		ops:   make(chan func()),
		done:  make(chan struct{}),
	}
	s.wg.Go(s.run)
	return s
}

func (s *SerializedStore) run() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.done:
			return
		}
	}
}

// Close stops the worker. Pending calls finish first; calls issued after
// Close block forever, so close only at teardown.
func (s *SerializedStore) Close() {
	close(s.done)
	s.wg.Wait()
}

// do runs op on the worker and waits for it to finish.
func (s *SerializedStore) do(op func()) {
	ran := make(chan struct{})
	s.ops <- func() {
		op()
		close(ran)
	}
	<-ran
}

func (s *SerializedStore) Calendars() []models.Calendar { return s.inner.Calendars() }

func (s *SerializedStore) Sources() []models.Source { return s.inner.Sources() }

func (s *SerializedStore) DefaultSource() (models.Source, bool) { return s.inner.DefaultSource() }

func (s *SerializedStore) AuthorizationStatus() models.AuthorizationStatus {
	return s.inner.AuthorizationStatus()
}

func (s *SerializedStore) RequestAccess(ctx context.Context) (bool, error) {
	var (
		granted bool
		err     error
	)
	s.do(func() { granted, err = s.inner.RequestAccess(ctx) })
	return granted, err
}

func (s *SerializedStore) Refresh() {
	s.do(func() { s.inner.Refresh() })
}

func (s *SerializedStore) CreateCalendar(cal models.Calendar) (models.Calendar, error) {
	var (
		created models.Calendar
		err     error
	)
	s.do(func() { created, err = s.inner.CreateCalendar(cal) })
	return created, err
}

func (s *SerializedStore) RemoveCalendar(id string) error {
	var err error
	s.do(func() { err = s.inner.RemoveCalendar(id) })
	return err
}

func (s *SerializedStore) StageEvent(event models.EventDefinition) error {
	var err error
	s.do(func() { err = s.inner.StageEvent(event) })
	return err
}

func (s *SerializedStore) EventsInRange(calendarID string, start, end time.Time) []models.EventDefinition {
	return s.inner.EventsInRange(calendarID, start, end)
}

func (s *SerializedStore) Commit() error {
	var err error
	s.do(func() { err = s.inner.Commit() })
	return err
}

func (s *SerializedStore) ResetStaged() {
	s.do(func() { s.inner.ResetStaged() })
}
