package engine

import (
	"time"

	"routeopt/internal/model"
)

// routesForCommit maps the solver output onto persistable routes. Vehicles
// with an empty sequence produce no route; stops are numbered from zero and
// their ETA is the horizon start plus the solver's arrival offset.
func routesForCommit(p *Problem, sol Solution, date, horizonStart time.Time) []model.Route {
	routes := make([]model.Route, 0, len(sol.Routes))
	for _, vr := range sol.Routes {
		if len(vr.Visits) == 0 {
			continue
		}
		v := p.Vehicles[vr.Vehicle]
		rt := model.Route{
			DriverID:    v.DriverID,
			VehicleID:   v.ID,
			PlannedDate: date,
			Status:      model.RoutePlanned,
			Stops:       make([]model.Stop, len(vr.Visits)),
		}
		for i, visit := range vr.Visits {
			rt.Stops[i] = model.Stop{
				OrderID:          p.Nodes[visit.Node].OrderID,
				SequenceNumber:   i,
				EstimatedArrival: horizonStart.Add(time.Duration(visit.Arrival) * time.Minute),
				Status:           model.StopAssigned,
			}
		}
		routes = append(routes, rt)
	}
	return routes
}
