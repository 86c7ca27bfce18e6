package store

import (
	"context"
	"errors"
	"time"

	"routeopt/internal/model"
)

// Store is the persistence surface the optimization engine depends on. The
// engine only reads demand/fleet/depot state and atomically replaces the
// route plan for a date; everything else about the catalog lives elsewhere.
type Store interface {
	// PendingOrders returns up to limit pending orders, most recent first.
	PendingOrders(ctx context.Context, limit int) ([]model.Order, error)

	// EligibleVehicles returns in-service vehicles with an active driver.
	// When date falls inside a defined scheduling period, only vehicles
	// whose driver is assigned to that period are returned.
	EligibleVehicles(ctx context.Context, date time.Time) ([]model.Vehicle, error)

	// DefaultDepot returns the configured default warehouse, or ErrNotFound.
	DefaultDepot(ctx context.Context) (model.Depot, error)

	// ReplaceRoutesForDate atomically swaps the committed plan for a date:
	// orders previously assigned on that date revert to pending, old routes
	// and stops are deleted, the new ones inserted, and every order visited
	// by a new stop is marked assigned. All or nothing.
	ReplaceRoutesForDate(ctx context.Context, date time.Time, routes []model.Route) error

	// RoutesForDate returns the committed routes with stops in sequence order.
	RoutesForDate(ctx context.Context, date time.Time) ([]model.Route, error)
}

var ErrNotFound = errors.New("not found")
