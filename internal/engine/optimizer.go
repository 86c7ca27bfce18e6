package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"routeopt/internal/config"
	"routeopt/internal/events"
	"routeopt/internal/lock"
	"routeopt/internal/matrix"
	"routeopt/internal/metrics"
	"routeopt/internal/model"
	"routeopt/internal/store"
)

// Optimizer runs the whole pipeline for one planning date: build the
// problem, fetch the travel matrix, solve, commit. A per-date lock keeps
// concurrent runs for the same date from interleaving; different dates run
// independently.
type Optimizer struct {
	store   store.Store
	matrix  matrix.Provider
	locker  lock.Locker
	broker  events.Broker
	builder *Builder
	cfg     config.EngineConfig
	log     zerolog.Logger
}

func NewOptimizer(st store.Store, mp matrix.Provider, lk lock.Locker, br events.Broker, cfg config.EngineConfig, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		store:   st,
		matrix:  mp,
		locker:  lk,
		broker:  br,
		builder: NewBuilder(st, cfg, log),
		cfg:     cfg,
		log:     log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize executes one batch pass for the date and reports the outcome.
// Nothing is persisted unless the run reaches a committable solution; a
// canceled context abandons the run without touching stored state.
func (o *Optimizer) Optimize(ctx context.Context, date time.Time) model.OptimizationResult {
	day := model.DateOnly(date)
	started := time.Now()
	log := o.log.With().Str("date", day).Logger()

	release, err := o.locker.Acquire(ctx, "optimize:"+day, 5*time.Minute)
	if err != nil {
		return o.fail(log, day, started, model.FailurePersistence, "acquire run lock: "+err.Error())
	}
	defer release()

	o.broker.Publish(day, events.Event{Type: events.TypeRunStarted, Date: day})

	problem, err := o.builder.Build(ctx, date)
	switch {
	case errors.Is(err, ErrEmptyDemand):
		metrics.OptimizeRuns.WithLabelValues("empty_demand").Inc()
		log.Info().Msg("no pending orders, nothing to optimize")
		return o.failure(day, started, model.FailureEmptyDemand, "no pending orders")
	case errors.Is(err, ErrNoCapacity):
		metrics.OptimizeRuns.WithLabelValues("no_capacity").Inc()
		log.Info().Msg("no eligible vehicles")
		return o.failure(day, started, model.FailureNoCapacity, "no eligible vehicles")
	case err != nil:
		return o.fail(log, day, started, model.FailurePersistence, err.Error())
	}

	problem.Matrix, err = o.matrix.TravelTimes(ctx, problem.Points())
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues("matrix_unavailable").Inc()
		log.Error().Err(err).Msg("travel matrix unavailable")
		return o.failure(day, started, model.FailureMatrixUnavailable, err.Error())
	}

	sol, stats, err := Solve(ctx, problem, Params{
		Budget: o.cfg.SolverBudget.Std(),
		Seed:   o.cfg.SolverSeed,
	})
	if err != nil {
		metrics.OptimizeRuns.WithLabelValues("infeasible").Inc()
		log.Warn().Err(err).Msg("solver infeasible")
		return o.failure(day, started, model.FailureSolverInfeasible, err.Error())
	}
	metrics.SolverDuration.Observe(stats.Elapsed.Seconds())
	metrics.SolutionCost.Observe(float64(sol.Cost))
	log.Info().
		Int("cost", sol.Cost).
		Int("constructionCost", stats.ConstructionCost).
		Int("iterations", stats.Iterations).
		Int("moves", stats.Moves).
		Int("skipped", len(sol.Skipped())).
		Dur("elapsed", stats.Elapsed).
		Msg("solver finished")
	o.broker.Publish(day, events.Event{Type: events.TypeRunSolved, Date: day, Data: map[string]any{
		"cost":    sol.Cost,
		"skipped": len(sol.Skipped()),
	}})

	// The caller may have walked away during the search; commit nothing.
	if ctx.Err() != nil {
		metrics.OptimizeRuns.WithLabelValues("canceled").Inc()
		log.Warn().Msg("run canceled before commit")
		return o.failure(day, started, "", "canceled")
	}

	routes := routesForCommit(problem, sol, date, o.builder.HorizonStart(date))
	if err := o.store.ReplaceRoutesForDate(ctx, date, routes); err != nil {
		return o.fail(log, day, started, model.FailurePersistence, err.Error())
	}

	stopsAssigned := 0
	for _, rt := range routes {
		stopsAssigned += len(rt.Stops)
	}
	metrics.OptimizeRuns.WithLabelValues("success").Inc()
	metrics.StopsAssigned.Set(float64(stopsAssigned))
	metrics.OrdersSkipped.Set(float64(len(sol.Skipped())))

	result := model.OptimizationResult{
		Success:         true,
		PlannedDate:     day,
		RoutesGenerated: len(routes),
		StopsAssigned:   stopsAssigned,
		OrdersSkipped:   len(sol.Skipped()),
		ElapsedMs:       time.Since(started).Milliseconds(),
	}
	log.Info().
		Int("routes", result.RoutesGenerated).
		Int("stops", result.StopsAssigned).
		Int("skipped", result.OrdersSkipped).
		Msg("plan committed")
	o.broker.Publish(day, events.Event{Type: events.TypeRunCommitted, Date: day, Data: map[string]any{
		"routesGenerated": result.RoutesGenerated,
		"stopsAssigned":   result.StopsAssigned,
		"ordersSkipped":   result.OrdersSkipped,
	}})
	return result
}

func (o *Optimizer) failure(day string, started time.Time, reason model.FailureReason, detail string) model.OptimizationResult {
	res := model.OptimizationResult{
		PlannedDate: day,
		Reason:      reason,
		Detail:      detail,
		ElapsedMs:   time.Since(started).Milliseconds(),
	}
	o.broker.Publish(day, events.Event{Type: events.TypeRunFailed, Date: day, Data: map[string]any{
		"reason": string(reason),
		"detail": detail,
	}})
	return res
}

// fail is failure plus error-level logging and the persistence_error counter.
func (o *Optimizer) fail(log zerolog.Logger, day string, started time.Time, reason model.FailureReason, detail string) model.OptimizationResult {
	metrics.OptimizeRuns.WithLabelValues("persistence_error").Inc()
	log.Error().Str("detail", detail).Msg("optimization run failed")
	return o.failure(day, started, reason, detail)
}
