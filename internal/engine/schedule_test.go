package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleRouteServiceTime(t *testing.T) {
	// depot -> n1 -> n2: service time is spent only when leaving n1.
	nodes := []Node{
		depotNode(),
		{Weight: 1, Volume: 1, Window: TimeWindow{0, 720}},
		{Weight: 1, Volume: 1, Window: TimeWindow{0, 720}},
	}
	p := testProblem(nodes, nil, uniformMatrix(3, 20))
	v := VehicleSpec{CapWeight: 10, CapVolume: 10}

	arrivals, ok := p.scheduleRoute(v, []int{1, 2})
	require.True(t, ok)
	assert.Equal(t, 20, arrivals[0])
	assert.Equal(t, 20+10+20, arrivals[1])
}

func TestScheduleRouteWaitsWithinAllowance(t *testing.T) {
	nodes := []Node{
		depotNode(),
		{Weight: 1, Volume: 1, Window: TimeWindow{40, 720}},
	}
	p := testProblem(nodes, nil, uniformMatrix(2, 20))
	v := VehicleSpec{CapWeight: 10, CapVolume: 10}

	// Arrives at 20, window opens at 40: 20 minutes of waiting is allowed.
	arrivals, ok := p.scheduleRoute(v, []int{1})
	require.True(t, ok)
	assert.Equal(t, 40, arrivals[0])
}

func TestScheduleRouteRejectsExcessWait(t *testing.T) {
	nodes := []Node{
		depotNode(),
		{Weight: 1, Volume: 1, Window: TimeWindow{60, 720}},
	}
	p := testProblem(nodes, nil, uniformMatrix(2, 20))
	v := VehicleSpec{CapWeight: 10, CapVolume: 10}

	// Arrives at 20, window opens at 60: 40 > the 30-minute allowance.
	_, ok := p.scheduleRoute(v, []int{1})
	assert.False(t, ok)
}

func TestScheduleRouteRejectsLateArrival(t *testing.T) {
	nodes := []Node{
		depotNode(),
		{Weight: 1, Volume: 1, Window: TimeWindow{0, 15}},
	}
	p := testProblem(nodes, nil, uniformMatrix(2, 20))
	v := VehicleSpec{CapWeight: 10, CapVolume: 10}

	_, ok := p.scheduleRoute(v, []int{1})
	assert.False(t, ok)
}

func TestScheduleRouteRejectsCapacityPrefix(t *testing.T) {
	nodes := []Node{
		depotNode(),
		{Weight: 60, Volume: 1, Window: TimeWindow{0, 720}},
		{Weight: 60, Volume: 1, Window: TimeWindow{0, 720}},
	}
	p := testProblem(nodes, nil, uniformMatrix(3, 5))
	v := VehicleSpec{CapWeight: 100, CapVolume: 10}

	_, ok := p.scheduleRoute(v, []int{1, 2})
	assert.False(t, ok)
	_, ok = p.scheduleRoute(v, []int{1})
	assert.True(t, ok)
}

func TestScheduleRouteHorizonIncludesReturnLeg(t *testing.T) {
	nodes := []Node{
		depotNode(),
		{Weight: 1, Volume: 1, Window: TimeWindow{0, 1440}},
	}
	p := testProblem(nodes, nil, uniformMatrix(2, 100))
	p.Horizon = 205
	v := VehicleSpec{CapWeight: 10, CapVolume: 10}

	// Out 100, service 10, back 100 = 210 > 205.
	_, ok := p.scheduleRoute(v, []int{1})
	assert.False(t, ok)

	p.Horizon = 210
	_, ok = p.scheduleRoute(v, []int{1})
	assert.True(t, ok)
}

func TestRouteCost(t *testing.T) {
	nodes := []Node{
		depotNode(),
		{Window: TimeWindow{0, 720}},
		{Window: TimeWindow{0, 720}},
	}
	p := testProblem(nodes, nil, uniformMatrix(3, 7))

	assert.Equal(t, 0, p.routeCost(nil))
	// depot->1 (7) + service (10) + 1->2 (7) + service (10) + 2->depot (7)
	assert.Equal(t, 41, p.routeCost([]int{1, 2}))
}
