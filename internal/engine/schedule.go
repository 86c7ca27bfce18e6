package engine

const capEps = 1e-9

// scheduleRoute propagates the time and capacity dimensions along a visit
// order for one vehicle. It returns the arrival minute at each node, or
// ok=false when any constraint breaks: a window missed by more than the
// waiting allowance, a capacity prefix exceeded, the job cap, or the horizon
// (including the return leg to the depot).
func (p *Problem) scheduleRoute(v VehicleSpec, order []int) (arrivals []int, ok bool) {
	if len(order) == 0 {
		return nil, true
	}
	if v.MaxJobs > 0 && len(order) > v.MaxJobs {
		return nil, false
	}
	arrivals = make([]int, len(order))
	var weight, volume float64
	cum := 0
	prev := 0
	for i, idx := range order {
		n := p.Nodes[idx]
		weight += n.Weight
		volume += n.Volume
		if weight > v.CapWeight+capEps || volume > v.CapVolume+capEps {
			return nil, false
		}
		depart := cum
		if prev != 0 {
			// Service duration is spent when leaving a non-depot node.
			depart += p.ServiceTime
		}
		arr := depart + p.Matrix[prev][idx]
		if arr < n.Window.Earliest {
			if n.Window.Earliest-arr > p.WaitingAllowance {
				return nil, false
			}
			arr = n.Window.Earliest
		}
		if arr > n.Window.Latest || arr > p.Horizon {
			return nil, false
		}
		arrivals[i] = arr
		cum = arr
		prev = idx
	}
	if cum+p.ServiceTime+p.Matrix[prev][0] > p.Horizon {
		return nil, false
	}
	return arrivals, true
}

// routeCost is the travel time over the depot-to-depot tour plus the service
// time of every visited node.
func (p *Problem) routeCost(order []int) int {
	if len(order) == 0 {
		return 0
	}
	cost := 0
	prev := 0
	for _, idx := range order {
		cost += p.Matrix[prev][idx] + p.ServiceTime
		prev = idx
	}
	return cost + p.Matrix[prev][0]
}

// routeArcs lists the directed arcs of a tour including the depot legs.
func routeArcs(order []int) [][2]int {
	if len(order) == 0 {
		return nil
	}
	arcs := make([][2]int, 0, len(order)+1)
	prev := 0
	for _, idx := range order {
		arcs = append(arcs, [2]int{prev, idx})
		prev = idx
	}
	return append(arcs, [2]int{prev, 0})
}
