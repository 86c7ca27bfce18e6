package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"routeopt/internal/api"
	"routeopt/internal/config"
	"routeopt/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("ROUTEOPT_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := newLogger(cfg)
	metrics.RegisterDefault()

	srv, err := api.NewServer(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init server")
	}

	mux := http.NewServeMux()

	// Optimization
	mux.HandleFunc("/v1/optimize", srv.OptimizeHandler)
	mux.HandleFunc("/v1/optimize/events", srv.EventsHandler)
	mux.HandleFunc("/v1/optimize/ws", srv.WSHandler)

	// Routes
	mux.HandleFunc("/v1/routes", srv.RoutesHandler)

	// Health
	mux.HandleFunc("/healthz", srv.HealthHandler)
	mux.HandleFunc("/readyz", srv.ReadyHandler)

	// Metrics
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           api.LogMiddleware(log, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.App.Env).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	srv.Close()
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if cfg.App.LogFormat == "json" {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", cfg.App.Name).Logger()
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", cfg.App.Name).Logger()
}
