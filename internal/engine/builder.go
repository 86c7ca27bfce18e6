package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"routeopt/internal/config"
	"routeopt/internal/model"
	"routeopt/internal/store"
)

// Business outcomes of problem building. These are expected states of the
// world, not faults; the orchestrator maps them onto the result.
var (
	ErrEmptyDemand = errors.New("no pending orders")
	ErrNoCapacity  = errors.New("no eligible vehicles")
)

// Builder assembles a RoutingProblem snapshot from current demand and fleet
// state for a planned date.
type Builder struct {
	store store.Store
	cfg   config.EngineConfig
	log   zerolog.Logger
}

func NewBuilder(st store.Store, cfg config.EngineConfig, log zerolog.Logger) *Builder {
	return &Builder{store: st, cfg: cfg, log: log.With().Str("component", "builder").Logger()}
}

// HorizonStart is the minute-zero timestamp all windows and arrivals are
// relative to: the configured hour (default 08:00) on the planned date.
func (b *Builder) HorizonStart(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), b.cfg.HorizonStartHour, 0, 0, 0, date.Location())
}

// Build produces the problem for a date, without its travel matrix; the
// orchestrator attaches that next. Returns ErrEmptyDemand or ErrNoCapacity
// when there is nothing to solve.
func (b *Builder) Build(ctx context.Context, date time.Time) (*Problem, error) {
	orders, err := b.store.PendingOrders(ctx, b.cfg.MaxPendingOrders)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if len(orders) == 0 {
		return nil, ErrEmptyDemand
	}

	vehicles, err := b.store.EligibleVehicles(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	specs := make([]VehicleSpec, 0, len(vehicles))
	for _, v := range vehicles {
		if v.CapacityWeight <= 0 || v.CapacityVolume <= 0 {
			b.log.Warn().Str("vehicle", v.ID).Msg("dropping vehicle with unusable capacity")
			continue
		}
		specs = append(specs, VehicleSpec{
			ID:        v.ID,
			DriverID:  v.DriverID,
			CapWeight: v.CapacityWeight,
			CapVolume: v.CapacityVolume,
			MaxJobs:   v.MaxJobs,
		})
	}
	if len(specs) == 0 {
		return nil, ErrNoCapacity
	}

	depot, err := b.store.DefaultDepot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		depot = model.Depot{Name: "Default Depot", Location: model.GeoPoint{Lat: b.cfg.DepotLat, Lng: b.cfg.DepotLng}}
		b.log.Warn().Msg("no default warehouse configured, using fallback depot location")
	} else if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	horizonStart := b.HorizonStart(date)
	nodes := make([]Node, 0, len(orders)+1)
	nodes = append(nodes, Node{
		Point:  depot.Location,
		Window: TimeWindow{0, b.cfg.HorizonMin},
	})
	for _, o := range orders {
		nodes = append(nodes, Node{
			OrderID: o.ID,
			Point:   o.Location,
			Weight:  o.Weight,
			Volume:  o.Volume,
			Window:  normalizeWindow(o, horizonStart, b.cfg.DefaultWindowEndMin),
		})
	}

	b.log.Info().
		Int("orders", len(orders)).
		Int("vehicles", len(specs)).
		Str("depot", depot.Name).
		Str("date", model.DateOnly(date)).
		Msg("problem built")

	return &Problem{
		Nodes:            nodes,
		Vehicles:         specs,
		ServiceTime:      b.cfg.ServiceTimeMin,
		SkipPenalty:      b.cfg.SkipPenalty,
		WaitingAllowance: b.cfg.WaitingAllowanceMin,
		Horizon:          b.cfg.HorizonMin,
	}, nil
}
