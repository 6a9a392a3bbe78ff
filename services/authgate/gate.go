// Package authgate wraps the external store's permission model, reporting
// the authorization state around each access request.
package authgate

import (
	"context"
	"log"

	"coursecal/models"
	"coursecal/services/eventstore"
)

// Result is the outcome of one access request: whether access was granted
// and the permission state observed before and after the request.
type Result struct {
	Granted  bool                       `json:"granted"`
	Previous models.AuthorizationStatus `json:"-"`
	Current  models.AuthorizationStatus `json:"-"`
}

// Gate requests calendar access through the store.
type Gate struct {
	store eventstore.Store
}

// New creates a Gate over the store.
func New(store eventstore.Store) *Gate {
	return &Gate{store: store}
}

// RequestAccess asks for calendar access and reports the state transition.
// The store may serve cached permission state, so the cache is refreshed
// between the request and the second read. Repeated calls when already
// authorized keep yielding granted with previous == current == authorized.
func (g *Gate) RequestAccess(ctx context.Context) (Result, error) {
	previous := g.store.AuthorizationStatus()

	granted, err := g.store.RequestAccess(ctx)
	if err != nil {
		log.Printf("[authgate] access request failed: %v", err)
		return Result{Previous: previous, Current: previous}, err
	}

	g.store.Refresh()
	current := g.store.AuthorizationStatus()

	return Result{Granted: granted, Previous: previous, Current: current}, nil
}

// Status reports the store's current (possibly cached) permission state.
func (g *Gate) Status() models.AuthorizationStatus {
	return g.store.AuthorizationStatus()
}
