package api

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"routeopt/internal/config"
	"routeopt/internal/engine"
	"routeopt/internal/events"
	"routeopt/internal/lock"
	"routeopt/internal/matrix"
	"routeopt/internal/store"
)

// Server wires the engine and its collaborators behind the HTTP surface.
type Server struct {
	Store     store.Store
	Optimizer *engine.Optimizer
	Broker    events.Broker
	Log       zerolog.Logger
}

// NewServer builds the dependency graph from config: Postgres or in-memory
// store, Redis or in-process lock/broker, OSRM matrix with haversine
// fallback.
func NewServer(cfg *config.Config, log zerolog.Logger) (*Server, error) {
	var st store.Store
	if cfg.Database.URL == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory store")
		st = store.NewMemory()
	} else {
		pg, err := store.NewPostgres(cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		st = pg
	}

	var locker lock.Locker
	var broker events.Broker
	if cfg.Redis.URL != "" {
		rl, err := lock.NewRedis(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		rb, err := events.NewRedis(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("redis broker: %w", err)
		}
		locker, broker = rl, rb
	} else {
		locker, broker = lock.NewMemory(), events.NewMemory()
	}

	provider := &matrix.Chained{
		Primary:  matrix.NewOSRMClient(cfg.OSRM.BaseURL, cfg.OSRM.Timeout.Std(), cfg.OSRM.RequestsPerSecond),
		Fallback: matrix.NewHaversineEstimator(cfg.Engine.FallbackSpeedKmh),
		Log:      log.With().Str("component", "matrix").Logger(),
	}

	return &Server{
		Store:     st,
		Optimizer: engine.NewOptimizer(st, provider, locker, broker, cfg.Engine, log),
		Broker:    broker,
		Log:       log,
	}, nil
}

// Close releases the backing store's connection pool.
func (s *Server) Close() {
	if c, ok := s.Store.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// Ready reports whether the backing store is reachable.
func (s *Server) Ready(ctx context.Context) error {
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		return pg.Ping(ctx)
	}
	return nil
}
