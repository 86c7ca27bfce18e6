package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// ErrInfeasible means no vehicle could serve anything (e.g. the fleet was
// empty after filtering). Excess demand is NOT infeasible: nodes that fit
// nowhere are skipped at a penalty instead.
var ErrInfeasible = errors.New("solver: no usable vehicle")

type Visit struct {
	Node    int // index into Problem.Nodes
	Arrival int // minutes from horizon start
}

type VehicleRoute struct {
	Vehicle int // index into Problem.Vehicles
	Visits  []Visit
}

// NodeOutcome tags each node's fate so the solution stays total: either a
// placement on a vehicle or an explicit skip, never a sentinel.
type NodeOutcome struct {
	Visited  bool
	Vehicle  int
	Position int
	Arrival  int
}

// Solution holds the best assignment found. Routes contains only vehicles
// that serve at least one node. Outcomes is indexed by node; entry 0 (the
// depot) is always zero.
type Solution struct {
	Routes   []VehicleRoute
	Outcomes []NodeOutcome
	Cost     int
}

// Skipped lists the nodes absent from every route.
func (s Solution) Skipped() []int {
	out := []int{}
	for i := 1; i < len(s.Outcomes); i++ {
		if !s.Outcomes[i].Visited {
			out = append(out, i)
		}
	}
	return out
}

type Params struct {
	Budget time.Duration
	// Seed fixes the RNG for reproducible runs; 0 seeds from the clock.
	Seed int64
	// PenaltyFactor scales the guided-local-search lambda. Zero means 0.2.
	PenaltyFactor float64
}

type Stats struct {
	Iterations       int
	Moves            int
	Penalizations    int
	ConstructionCost int
	BestCost         int
	Elapsed          time.Duration
}

// Solve builds an initial assignment with cheapest-arc construction and then
// improves it with guided local search (relocate, exchange, 2-opt, skipped
// reinsertion) until the wall-clock budget runs out. The best true-cost
// solution seen is always kept, so the result is never worse than the
// construction.
func Solve(ctx context.Context, p *Problem, params Params) (Solution, Stats, error) {
	var stats Stats
	if len(p.Vehicles) == 0 {
		return Solution{}, stats, ErrInfeasible
	}
	start := time.Now()
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	alpha := params.PenaltyFactor
	if alpha <= 0 {
		alpha = 0.2
	}

	s := &search{
		p:         p,
		routes:    make([][]int, len(p.Vehicles)),
		skipped:   map[int]bool{},
		penalties: map[[2]int]int{},
		alpha:     alpha,
		rng:       rand.New(rand.NewSource(seed)),
	}
	s.construct()
	stats.ConstructionCost = s.trueCost()

	bestRoutes := s.cloneRoutes()
	bestCost := stats.ConstructionCost

	deadline := start.Add(params.Budget)
	for len(p.Nodes) > 1 && time.Now().Before(deadline) && ctx.Err() == nil {
		stats.Iterations++
		if s.improveOnce() {
			stats.Moves++
			if c := s.trueCost(); c < bestCost {
				bestCost = c
				bestRoutes = s.cloneRoutes()
			}
			continue
		}
		// Local optimum of the augmented objective: penalize the worst arcs
		// to push the search elsewhere.
		n := s.penalize()
		if n == 0 {
			break
		}
		stats.Penalizations += n
	}

	stats.BestCost = bestCost
	stats.Elapsed = time.Since(start)
	return p.buildSolution(bestRoutes, bestCost), stats, nil
}

// buildSolution materializes arrivals and per-node outcomes for a route set.
func (p *Problem) buildSolution(routes [][]int, cost int) Solution {
	sol := Solution{Outcomes: make([]NodeOutcome, len(p.Nodes)), Cost: cost}
	for vi, order := range routes {
		if len(order) == 0 {
			continue
		}
		arrivals, ok := p.scheduleRoute(p.Vehicles[vi], order)
		if !ok {
			// Every mutation was feasibility-checked, so this is a bug guard.
			continue
		}
		vr := VehicleRoute{Vehicle: vi, Visits: make([]Visit, len(order))}
		for i, idx := range order {
			vr.Visits[i] = Visit{Node: idx, Arrival: arrivals[i]}
			sol.Outcomes[idx] = NodeOutcome{Visited: true, Vehicle: vi, Position: i, Arrival: arrivals[i]}
		}
		sol.Routes = append(sol.Routes, vr)
	}
	return sol
}

// search is the mutable solver state: one visit order per vehicle plus the
// set of skipped nodes and the GLS arc penalties.
type search struct {
	p         *Problem
	routes    [][]int
	skipped   map[int]bool
	penalties map[[2]int]int
	lambda    float64
	alpha     float64
	rng       *rand.Rand
}

// construct seeds the routes by cheapest-arc extension: round-robin over
// vehicles, each appending the unassigned node with the lowest next-edge
// cost that keeps the route feasible. Whatever cannot be placed anywhere is
// skipped at the penalty.
func (s *search) construct() {
	p := s.p
	used := make([]bool, len(p.Nodes))
	assigned := 0
	total := len(p.Nodes) - 1
	for assigned < total {
		progress := false
		for vi := range p.Vehicles {
			last := 0
			if n := len(s.routes[vi]); n > 0 {
				last = s.routes[vi][n-1]
			}
			bestNode, bestArc := -1, 0
			for idx := 1; idx < len(p.Nodes); idx++ {
				if used[idx] {
					continue
				}
				arc := p.Matrix[last][idx]
				if bestNode >= 0 && arc >= bestArc {
					continue
				}
				cand := append(append([]int{}, s.routes[vi]...), idx)
				if _, ok := p.scheduleRoute(p.Vehicles[vi], cand); !ok {
					continue
				}
				bestNode, bestArc = idx, arc
			}
			if bestNode >= 0 {
				s.routes[vi] = append(s.routes[vi], bestNode)
				used[bestNode] = true
				assigned++
				progress = true
				if assigned == total {
					break
				}
			}
		}
		if !progress {
			break
		}
	}
	for idx := 1; idx < len(p.Nodes); idx++ {
		if !used[idx] {
			s.skipped[idx] = true
		}
	}
}

func (s *search) trueCost() int {
	cost := 0
	for _, order := range s.routes {
		cost += s.p.routeCost(order)
	}
	return cost + s.p.SkipPenalty*len(s.skipped)
}

// augRoute is the guided objective for one route: real cost plus lambda
// times the accumulated penalty count of its arcs.
func (s *search) augRoute(order []int) float64 {
	aug := float64(s.p.routeCost(order))
	if s.lambda > 0 {
		for _, arc := range routeArcs(order) {
			aug += s.lambda * float64(s.penalties[arc])
		}
	}
	return aug
}

func (s *search) cloneRoutes() [][]int {
	out := make([][]int, len(s.routes))
	for i, r := range s.routes {
		out[i] = append([]int(nil), r...)
	}
	return out
}

const improveEps = 1e-6

// improveOnce applies the first augmented-cost-improving move found across
// the neighborhoods, in order: reinsert a skipped node, relocate, exchange,
// intra-route 2-opt. Returns false at a local optimum.
func (s *search) improveOnce() bool {
	if s.insertSkipped() {
		return true
	}
	if s.relocate() {
		return true
	}
	if s.exchange() {
		return true
	}
	return s.twoOpt()
}

// insertSkipped tries to bring a skipped node back onto a route; paying the
// insertion arcs is nearly always cheaper than the skip penalty.
func (s *search) insertSkipped() bool {
	p := s.p
	for idx := range s.skipped {
		for vi, order := range s.routes {
			base := s.augRoute(order)
			for pos := 0; pos <= len(order); pos++ {
				cand := insertAt(order, pos, idx)
				if _, ok := p.scheduleRoute(p.Vehicles[vi], cand); !ok {
					continue
				}
				delta := s.augRoute(cand) - base - float64(p.SkipPenalty)
				if delta < -improveEps {
					s.routes[vi] = cand
					delete(s.skipped, idx)
					return true
				}
			}
		}
	}
	return false
}

// relocate moves one node to a different position, possibly on another route.
func (s *search) relocate() bool {
	p := s.p
	nv := len(s.routes)
	off := 0
	if nv > 0 {
		off = s.rng.Intn(nv)
	}
	for a := 0; a < nv; a++ {
		vi := (a + off) % nv
		src := s.routes[vi]
		for i := 0; i < len(src); i++ {
			node := src[i]
			srcWithout := removeAt(src, i)
			srcBase := s.augRoute(src)
			for vj := 0; vj < nv; vj++ {
				dst := s.routes[vj]
				if vj == vi {
					dst = srcWithout
				}
				dstBase := s.augRoute(s.routes[vj])
				for pos := 0; pos <= len(dst); pos++ {
					if vj == vi && (pos == i) {
						continue
					}
					cand := insertAt(dst, pos, node)
					if _, ok := p.scheduleRoute(p.Vehicles[vj], cand); !ok {
						continue
					}
					var delta float64
					if vj == vi {
						delta = s.augRoute(cand) - srcBase
					} else {
						if _, ok := p.scheduleRoute(p.Vehicles[vi], srcWithout); !ok {
							continue
						}
						delta = s.augRoute(srcWithout) - srcBase + s.augRoute(cand) - dstBase
					}
					if delta < -improveEps {
						if vj == vi {
							s.routes[vi] = cand
						} else {
							s.routes[vi] = srcWithout
							s.routes[vj] = cand
						}
						return true
					}
				}
			}
		}
	}
	return false
}

// exchange swaps one node between two different routes.
func (s *search) exchange() bool {
	p := s.p
	nv := len(s.routes)
	for a := 0; a < nv; a++ {
		for b := a + 1; b < nv; b++ {
			ra, rb := s.routes[a], s.routes[b]
			baseA, baseB := s.augRoute(ra), s.augRoute(rb)
			for i := 0; i < len(ra); i++ {
				for j := 0; j < len(rb); j++ {
					ca := append([]int(nil), ra...)
					cb := append([]int(nil), rb...)
					ca[i], cb[j] = rb[j], ra[i]
					if _, ok := p.scheduleRoute(p.Vehicles[a], ca); !ok {
						continue
					}
					if _, ok := p.scheduleRoute(p.Vehicles[b], cb); !ok {
						continue
					}
					delta := s.augRoute(ca) - baseA + s.augRoute(cb) - baseB
					if delta < -improveEps {
						s.routes[a] = ca
						s.routes[b] = cb
						return true
					}
				}
			}
		}
	}
	return false
}

// twoOpt reverses a segment within a route.
func (s *search) twoOpt() bool {
	p := s.p
	for vi, order := range s.routes {
		n := len(order)
		if n < 3 {
			continue
		}
		base := s.augRoute(order)
		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				cand := append([]int(nil), order...)
				for x, y := i, k; x < y; x, y = x+1, y-1 {
					cand[x], cand[y] = cand[y], cand[x]
				}
				if _, ok := p.scheduleRoute(p.Vehicles[vi], cand); !ok {
					continue
				}
				if s.augRoute(cand)-base < -improveEps {
					s.routes[vi] = cand
					return true
				}
			}
		}
	}
	return false
}

// penalize increments the penalty of the currently used arcs with maximal
// utility cost/(1+penalty), raising the augmented cost of the present local
// optimum. Lambda is set on the first penalization, scaled to the average
// arc cost.
func (s *search) penalize() int {
	type arcRef struct {
		arc  [2]int
		util float64
	}
	arcs := []arcRef{}
	arcCount := 0
	for _, order := range s.routes {
		for _, arc := range routeArcs(order) {
			arcCount++
			u := float64(s.p.Matrix[arc[0]][arc[1]]) / float64(1+s.penalties[arc])
			arcs = append(arcs, arcRef{arc, u})
		}
	}
	if arcCount == 0 {
		return 0
	}
	if s.lambda == 0 {
		s.lambda = s.alpha * float64(s.trueCost()) / float64(arcCount)
		if s.lambda <= 0 {
			s.lambda = 1
		}
	}
	maxU := 0.0
	for _, a := range arcs {
		if a.util > maxU {
			maxU = a.util
		}
	}
	if maxU <= 0 {
		return 0
	}
	n := 0
	for _, a := range arcs {
		if a.util >= maxU-improveEps {
			s.penalties[a.arc]++
			n++
		}
	}
	return n
}

func insertAt(order []int, pos, node int) []int {
	out := make([]int, 0, len(order)+1)
	out = append(out, order[:pos]...)
	out = append(out, node)
	return append(out, order[pos:]...)
}

func removeAt(order []int, pos int) []int {
	out := make([]int, 0, len(order)-1)
	out = append(out, order[:pos]...)
	return append(out, order[pos+1:]...)
}
