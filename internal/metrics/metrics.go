package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// OptimizeRuns counts engine runs by terminal outcome
	// (success, empty_demand, no_capacity, infeasible, matrix_unavailable, persistence_error, canceled).
	OptimizeRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "optimize_runs_total", Help: "Optimization runs by outcome."},
		[]string{"outcome"},
	)
	// SolverDuration records solver wall-clock time in seconds.
	SolverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_duration_seconds", Help: "Solver run duration in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30}},
	)
	// SolutionCost records the best solution cost found per run.
	SolutionCost = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solver_solution_cost", Help: "Best solution cost per run.", Buckets: prometheus.ExponentialBuckets(10, 4, 10)},
	)
	// StopsAssigned / OrdersSkipped track the latest run's commit counts.
	StopsAssigned = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "optimize_stops_assigned", Help: "Stops assigned by the latest successful run."},
	)
	OrdersSkipped = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "optimize_orders_skipped", Help: "Orders left unassigned by the latest successful run."},
	)

	// MatrixRequests counts travel-matrix computations by source (osrm, fallback).
	MatrixRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "travel_matrix_requests_total", Help: "Travel matrix computations by source."},
		[]string{"source"},
	)
	// MatrixDuration records OSRM table request durations in seconds.
	MatrixDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "travel_matrix_request_duration_seconds", Help: "OSRM table request duration in seconds.", Buckets: prometheus.DefBuckets},
	)

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(OptimizeRuns)
		Registry.MustRegister(SolverDuration)
		Registry.MustRegister(SolutionCost)
		Registry.MustRegister(StopsAssigned)
		Registry.MustRegister(OrdersSkipped)
		Registry.MustRegister(MatrixRequests)
		Registry.MustRegister(MatrixDuration)
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
