package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeopt/internal/model"
)

// Integration test; set TEST_DATABASE_URL to a disposable database to run.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	pg, err := NewPostgres(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Close() })
	require.NoError(t, pg.MigrateDir("../../db/migrations"))
	return pg
}

func TestPostgresRoundTrip(t *testing.T) {
	pg := newTestPostgres(t)
	ctx := context.Background()

	_, err := pg.db.ExecContext(ctx, `TRUNCATE route_stops, routes, orders, driver_period_assignments, periods, drivers, vehicles, warehouse CASCADE`)
	require.NoError(t, err)

	_, err = pg.db.ExecContext(ctx, `INSERT INTO warehouse (name, lat, lng, is_default) VALUES ('HQ', 1.2897, 103.8501, TRUE)`)
	require.NoError(t, err)
	depot, err := pg.DefaultDepot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HQ", depot.Name)

	var vehicleID, driverID string
	require.NoError(t, pg.db.QueryRowContext(ctx,
		`INSERT INTO vehicles (plate, capacity_weight, capacity_volume) VALUES ('T-1', 100, 10) RETURNING id::text`).Scan(&vehicleID))
	require.NoError(t, pg.db.QueryRowContext(ctx,
		`INSERT INTO drivers (full_name, assigned_vehicle_id) VALUES ('Test Driver', $1) RETURNING id::text`, vehicleID).Scan(&driverID))

	vehicles, err := pg.EligibleVehicles(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	assert.Equal(t, vehicleID, vehicles[0].ID)
	assert.Equal(t, driverID, vehicles[0].DriverID)

	var orderID string
	require.NoError(t, pg.db.QueryRowContext(ctx,
		`INSERT INTO orders (lat, lng, weight, volume) VALUES (1.30, 103.84, 20, 1) RETURNING id::text`).Scan(&orderID))

	orders, err := pg.PendingOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, orderID, orders[0].ID)

	date := time.Now()
	routes := []model.Route{{
		DriverID:    driverID,
		VehicleID:   vehicleID,
		PlannedDate: date,
		Status:      model.RoutePlanned,
		Stops: []model.Stop{{
			OrderID:          orderID,
			SequenceNumber:   0,
			EstimatedArrival: time.Now().Add(time.Hour),
			Status:           model.StopAssigned,
		}},
	}}
	require.NoError(t, pg.ReplaceRoutesForDate(ctx, date, routes))

	// The order left the pending pool.
	orders, err = pg.PendingOrders(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)

	got, err := pg.RoutesForDate(ctx, date)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Stops, 1)
	assert.Equal(t, orderID, got[0].Stops[0].OrderID)
	assert.Equal(t, 0, got[0].Stops[0].SequenceNumber)

	// Replacing with an empty plan reverts the order.
	require.NoError(t, pg.ReplaceRoutesForDate(ctx, date, nil))
	orders, err = pg.PendingOrders(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	got, err = pg.RoutesForDate(ctx, date)
	require.NoError(t, err)
	assert.Empty(t, got)
}
