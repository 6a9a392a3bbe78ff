package syncer

import (
	"context"
	"sync/atomic"
	"time"

	"coursecal/models"
	"coursecal/services/authgate"
)

// Operation is a handle on an in-flight background operation. Cancel does
// not stop the work, since store operations are not cancellable once
// started; it only suppresses the completion callback, for callers whose
// observer went away mid-operation.
type Operation struct {
	cancelled atomic.Bool
}

// Cancel makes the pending completion a no-op. The operation itself runs to
// completion in the background.
func (op *Operation) Cancel() {
	op.cancelled.Store(true)
}

// deliver runs fn through the dispatch queue unless the operation was
// cancelled.
func (o *Orchestrator) deliver(op *Operation, fn func()) {
	if op.cancelled.Load() {
		return
	}
	o.dispatch(func() {
		if op.cancelled.Load() {
			return
		}
		fn()
	})
}

// SyncAsync runs Sync on a background goroutine and delivers the result
// through the dispatch queue.
func (o *Orchestrator) SyncAsync(blocks map[time.Time][]models.DateBlock, completion func(ok bool)) *Operation {
	op := &Operation{}
	go func() {
		ok := o.Sync(context.Background(), blocks)
		o.deliver(op, func() { completion(ok) })
	}()
	return op
}

// RemoveAsync runs Remove on a background goroutine. As with Remove, the
// completion is not invoked when no calendar resolves.
func (o *Orchestrator) RemoveAsync(completion func(ok bool)) *Operation {
	op := &Operation{}
	go func() {
		o.Remove(func(ok bool) {
			o.deliver(op, func() { completion(ok) })
		})
	}()
	return op
}

// RequestAccessAsync runs the authorization gate on a background goroutine.
func (o *Orchestrator) RequestAccessAsync(completion func(authgate.Result)) *Operation {
	op := &Operation{}
	go func() {
		result, _ := o.gate.RequestAccess(context.Background())
		o.deliver(op, func() { completion(result) })
	}()
	return op
}
