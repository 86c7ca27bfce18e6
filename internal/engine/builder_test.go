package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routeopt/internal/config"
	"routeopt/internal/model"
	"routeopt/internal/store"
)

func testDate() time.Time {
	return time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
}

func newTestBuilder(st store.Store) *Builder {
	return NewBuilder(st, config.Default().Engine, zerolog.Nop())
}

func TestBuildEmptyDemand(t *testing.T) {
	st := store.NewMemory()
	st.AddVehicle(model.Vehicle{DriverID: "d1", CapacityWeight: 100, CapacityVolume: 10})
	_, err := newTestBuilder(st).Build(context.Background(), testDate())
	require.ErrorIs(t, err, ErrEmptyDemand)
}

func TestBuildNoCapacity(t *testing.T) {
	st := store.NewMemory()
	st.AddOrder(model.Order{Location: model.GeoPoint{Lat: 1.3, Lng: 103.85}, Weight: 10, Volume: 1})
	_, err := newTestBuilder(st).Build(context.Background(), testDate())
	require.ErrorIs(t, err, ErrNoCapacity)

	// A vehicle without usable capacity does not count.
	st.AddVehicle(model.Vehicle{DriverID: "d1", CapacityWeight: 0, CapacityVolume: 10})
	_, err = newTestBuilder(st).Build(context.Background(), testDate())
	require.ErrorIs(t, err, ErrNoCapacity)
}

func TestBuildDepotFallback(t *testing.T) {
	st := store.NewMemory()
	st.AddOrder(model.Order{Location: model.GeoPoint{Lat: 1.3, Lng: 103.85}, Weight: 10, Volume: 1})
	st.AddVehicle(model.Vehicle{DriverID: "d1", CapacityWeight: 100, CapacityVolume: 10})

	p, err := newTestBuilder(st).Build(context.Background(), testDate())
	require.NoError(t, err)
	cfg := config.Default().Engine
	assert.Equal(t, cfg.DepotLat, p.Nodes[0].Point.Lat)
	assert.Equal(t, cfg.DepotLng, p.Nodes[0].Point.Lng)
}

func TestBuildNodeLayout(t *testing.T) {
	st := store.NewMemory()
	st.SetDepot(model.Depot{Name: "HQ", Location: model.GeoPoint{Lat: 1.29, Lng: 103.85}})
	ws := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	we := ws.Add(3 * time.Hour)
	id := st.AddOrder(model.Order{
		Location:    model.GeoPoint{Lat: 1.31, Lng: 103.86},
		Weight:      25,
		Volume:      2,
		WindowStart: &ws,
		WindowEnd:   &we,
	})
	st.AddVehicle(model.Vehicle{ID: "v1", DriverID: "d1", CapacityWeight: 100, CapacityVolume: 10, MaxJobs: 5})

	p, err := newTestBuilder(st).Build(context.Background(), testDate())
	require.NoError(t, err)
	require.Len(t, p.Nodes, 2)

	// Depot: index 0, no demand, horizon-wide window.
	assert.Empty(t, p.Nodes[0].OrderID)
	assert.Zero(t, p.Nodes[0].Weight)
	assert.Equal(t, TimeWindow{0, 1440}, p.Nodes[0].Window)

	// Order node: window relative to the 08:00 horizon start.
	assert.Equal(t, id, p.Nodes[1].OrderID)
	assert.Equal(t, TimeWindow{60, 240}, p.Nodes[1].Window)

	require.Len(t, p.Vehicles, 1)
	assert.Equal(t, "v1", p.Vehicles[0].ID)
	assert.Equal(t, 5, p.Vehicles[0].MaxJobs)
	assert.Nil(t, p.Matrix)
}

func TestBuildPeriodRestrictsVehicles(t *testing.T) {
	st := store.NewMemory()
	st.AddOrder(model.Order{Location: model.GeoPoint{Lat: 1.3, Lng: 103.85}, Weight: 10, Volume: 1})
	st.AddVehicle(model.Vehicle{ID: "v1", DriverID: "d1", CapacityWeight: 100, CapacityVolume: 10})
	st.AddVehicle(model.Vehicle{ID: "v2", DriverID: "d2", CapacityWeight: 100, CapacityVolume: 10})
	st.AddPeriod(store.Period{
		StartDate: testDate().AddDate(0, 0, -1),
		EndDate:   testDate().AddDate(0, 0, 1),
	}, "d2")

	p, err := newTestBuilder(st).Build(context.Background(), testDate())
	require.NoError(t, err)
	require.Len(t, p.Vehicles, 1)
	assert.Equal(t, "v2", p.Vehicles[0].ID)
}
