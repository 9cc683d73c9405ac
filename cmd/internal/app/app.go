// Package app wires the crewdeck server runtime: config, logging, the points
// engine with its rules, HTTP routes, the live feed gateway, and the
// scheduled jobs.
//
// It is intentionally small and deterministic to keep CI gates strict and behavior predictable.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crewdeck/cmd/internal/audit"
	"crewdeck/cmd/internal/discipline"
	"crewdeck/cmd/internal/feed"
	"crewdeck/cmd/internal/roster"
	"crewdeck/cmd/internal/schedule"
	"crewdeck/cmd/internal/staffapi"
	"crewdeck/cmd/points"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

// App is the crewdeck server runtime: it owns the HTTP server wiring, the
// discipline service, the live feed gateway, and the job scheduler.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	rules   points.Rules
	metrics *Metrics

	api    *staffapi.Handler
	ws     *feed.WSGateway
	runner *schedule.Runner
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel)
	}

	rules, err := loadRules(cfg, log)
	if err != nil {
		return nil, err
	}

	st, dbPool, dbEnabled, members, requests, sink, err := newStore(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()

	hub := feed.NewHub(log)
	ws := feed.NewWSGateway(log, hub,
		feed.WithOriginPatterns(cfg.WSOrigins),
		feed.WithWriteTimeout(cfg.WSWriteTimeout),
		feed.WithSendQueueSize(cfg.FeedQueueSize),
	)

	engine := points.NewEngine(rules.Table)
	workflow := discipline.NewWorkflow(engine, rules.Catalog)

	svc, err := discipline.NewService(log, workflow, members, requests, sink,
		discipline.WithObserver(metrics),
		discipline.WithPublisher(hub),
	)
	if err != nil {
		return nil, err
	}

	resolver := staffapi.NewRankAuthorityResolver(members, cfg.ManagePointsIDs)
	api := staffapi.NewHandler(log, members, svc, sink, resolver, rules)

	jobs, err := schedule.NewJobs(log, engine, members, sink, schedule.WithObserver(metrics))
	if err != nil {
		return nil, err
	}
	runner, err := schedule.NewRunner(log, jobs, schedule.WithInterval(cfg.ScheduleInterval))
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     st,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		rules:     rules,
		metrics:   metrics,
		api:       api,
		ws:        ws,
		runner:    runner,
	}, nil
}

// loadRules reads the rules file when configured and falls back to the
// built-in rank table and violation catalog otherwise.
func loadRules(cfg Config, log Logger) (points.Rules, error) {
	if cfg.RulesFile == "" {
		return points.DefaultRules(), nil
	}
	rules, err := points.LoadRules(cfg.RulesFile)
	if err != nil {
		return points.Rules{}, err
	}
	log.Info("rules.loaded", "path", cfg.RulesFile)
	return rules, nil
}

// Run starts the HTTP server and the job scheduler, and blocks until context
// cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.api, a.ws, a.metrics)

	handler := WithSecurityHeaders(mux)
	handler = WithCORS(handler, a.cfg, a.log)
	handler = WithRequestLogging(handler, a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", a.cfg.HTTPAddr,
		"db_enabled", a.dbEnabled,
		"schedule_enabled", a.cfg.ScheduleEnabled,
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.cfg.ScheduleEnabled {
		go func() {
			if err := a.runner.Run(runCtx); err != nil {
				a.log.Error("schedule.fail", "err", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	// Close store resources (pool etc).
	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newStore decides between Postgres-backed persistence and in-memory dev stores.
func newStore(ctx context.Context, cfg Config, log Logger) (Store, *pgxpool.Pool, bool, roster.Store, discipline.Store, audit.Sink, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nopStore{}, nil, false, roster.NewInMemoryStore(), discipline.NewInMemoryStore(), audit.NewInMemorySink(), nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, false, nil, nil, nil, err
	}

	log.Info("db.enabled.postgres_store")

	// Ownership model: the app owns the pool lifecycle; the stores share it.
	members, err := roster.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, nil, err
	}
	requests, err := discipline.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, nil, err
	}
	sink, err := audit.NewPostgresSink(pool)
	if err != nil {
		pool.Close()
		return nil, nil, false, nil, nil, nil, err
	}

	return dbStore{pool: pool}, pool, true, members, requests, sink, nil
}

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
