package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"routeopt/internal/model"
)

// Memory is the in-memory store used when no DATABASE_URL is set, and by
// the engine and handler tests.
type Memory struct {
	mu       sync.Mutex
	orders   map[string]model.Order
	vehicles []model.Vehicle
	depot    *model.Depot
	periods  []Period
	// period id -> driver ids assigned to it
	periodDrivers map[string]map[string]bool
	routes        map[string]model.Route // route id -> route (stops inline)
}

// Period is a managed scheduling window restricting driver eligibility.
type Period struct {
	ID        string
	StartDate time.Time
	EndDate   time.Time
}

func NewMemory() *Memory {
	return &Memory{
		orders:        map[string]model.Order{},
		periodDrivers: map[string]map[string]bool{},
		routes:        map[string]model.Route{},
	}
}

// AddOrder inserts a pending order, generating an ID when absent.
func (m *Memory) AddOrder(o model.Order) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now()
	}
	m.orders[o.ID] = o
	return o.ID
}

func (m *Memory) AddVehicle(v model.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	m.vehicles = append(m.vehicles, v)
}

func (m *Memory) SetDepot(d model.Depot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depot = &d
}

// AddPeriod registers a scheduling period and the drivers assigned to it.
func (m *Memory) AddPeriod(p Period, driverIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	m.periods = append(m.periods, p)
	set := map[string]bool{}
	for _, id := range driverIDs {
		set[id] = true
	}
	m.periodDrivers[p.ID] = set
}

func (m *Memory) OrderStatus(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id].Status
}

func (m *Memory) PendingOrders(_ context.Context, limit int) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if o.Status == model.OrderPending {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) EligibleVehicles(_ context.Context, date time.Time) ([]model.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var allowed map[string]bool
	day := date.Truncate(24 * time.Hour)
	for _, p := range m.periods {
		if !day.Before(p.StartDate) && !day.After(p.EndDate) {
			allowed = m.periodDrivers[p.ID]
			break
		}
	}
	out := []model.Vehicle{}
	for _, v := range m.vehicles {
		if allowed != nil && !allowed[v.DriverID] {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *Memory) DefaultDepot(_ context.Context) (model.Depot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depot == nil {
		return model.Depot{}, ErrNotFound
	}
	return *m.depot, nil
}

func (m *Memory) ReplaceRoutesForDate(_ context.Context, date time.Time, routes []model.Route) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := model.DateOnly(date)

	// Revert previously assigned orders, drop the old plan.
	for id, rt := range m.routes {
		if model.DateOnly(rt.PlannedDate) != day {
			continue
		}
		for _, s := range rt.Stops {
			if o, ok := m.orders[s.OrderID]; ok && o.Status == model.OrderAssigned {
				o.Status = model.OrderPending
				m.orders[s.OrderID] = o
			}
		}
		delete(m.routes, id)
	}

	for _, rt := range routes {
		if rt.ID == "" {
			rt.ID = uuid.New().String()
		}
		for i := range rt.Stops {
			if rt.Stops[i].ID == "" {
				rt.Stops[i].ID = uuid.New().String()
			}
			rt.Stops[i].RouteID = rt.ID
			if o, ok := m.orders[rt.Stops[i].OrderID]; ok {
				o.Status = model.OrderAssigned
				m.orders[rt.Stops[i].OrderID] = o
			}
		}
		m.routes[rt.ID] = rt
	}
	return nil
}

func (m *Memory) RoutesForDate(_ context.Context, date time.Time) ([]model.Route, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := model.DateOnly(date)
	out := []model.Route{}
	for _, rt := range m.routes {
		if model.DateOnly(rt.PlannedDate) == day {
			stops := append([]model.Stop(nil), rt.Stops...)
			sort.Slice(stops, func(i, j int) bool { return stops[i].SequenceNumber < stops[j].SequenceNumber })
			rt.Stops = stops
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
