// Package engine builds routing problems from demand/fleet state, solves
// them under a time budget, and commits the resulting plan.
package engine

import (
	"time"

	"routeopt/internal/model"
)

// TimeWindow is an arrival window in minutes from the planning horizon start.
type TimeWindow struct {
	Earliest int
	Latest   int
}

// Node is one location in the problem. Index 0 is the depot: zero demand,
// window spanning the whole horizon.
type Node struct {
	OrderID string
	Point   model.GeoPoint
	Weight  float64
	Volume  float64
	Window  TimeWindow
}

// VehicleSpec is a unit of capacity in the problem. MaxJobs <= 0 means
// unlimited stops per route.
type VehicleSpec struct {
	ID        string
	DriverID  string
	CapWeight float64
	CapVolume float64
	MaxJobs   int
}

// Problem is an immutable snapshot handed to the solver. Matrix[i][j] is the
// travel time in minutes from node i to node j.
type Problem struct {
	Nodes            []Node
	Vehicles         []VehicleSpec
	Matrix           [][]int
	ServiceTime      int // minutes spent at each non-depot node
	SkipPenalty      int // cost of leaving a node unvisited
	WaitingAllowance int // max idle minutes waiting for a window to open
	Horizon          int // max cumulative minutes per vehicle route
}

// Points returns node locations in index order, for the matrix provider.
func (p *Problem) Points() []model.GeoPoint {
	pts := make([]model.GeoPoint, len(p.Nodes))
	for i, n := range p.Nodes {
		pts[i] = n.Point
	}
	return pts
}

// normalizeWindow resolves an order's stored window against the horizon
// start. Absent or inverted windows widen to [0, defaultEnd]; otherwise the
// start clamps to the horizon and the end is kept at least 30 minutes after
// the start.
func normalizeWindow(o model.Order, horizonStart time.Time, defaultEnd int) TimeWindow {
	if o.WindowStart == nil || o.WindowEnd == nil {
		return TimeWindow{0, defaultEnd}
	}
	start := int(o.WindowStart.Sub(horizonStart).Minutes())
	end := int(o.WindowEnd.Sub(horizonStart).Minutes())
	if start > end {
		return TimeWindow{0, defaultEnd}
	}
	if start < 0 {
		start = 0
	}
	if end < start+30 {
		end = start + 30
	}
	return TimeWindow{start, end}
}
