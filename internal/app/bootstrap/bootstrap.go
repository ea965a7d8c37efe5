package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	incidentservice "maestro/contexts/internal-ops/incident-service"
	incidentpostgres "maestro/contexts/internal-ops/incident-service/adapters/postgres"
	orderengine "maestro/contexts/order-fulfillment/order-engine"
	ordermemory "maestro/contexts/order-fulfillment/order-engine/adapters/memory"
	orderpostgres "maestro/contexts/order-fulfillment/order-engine/adapters/postgres"
	"maestro/contexts/order-fulfillment/order-engine/adapters/storage"
	"maestro/internal/platform/config"
	"maestro/internal/platform/db"
	"maestro/internal/platform/httpserver"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

// leaseReaper is the slice of the claim repository the poll loop needs to
// requeue orders whose lease ran out.
type leaseReaper interface {
	ExpireLeases(ctx context.Context, now time.Time) (int, error)
}

type WorkerApp struct {
	postgres     *db.Postgres
	worker       orderengine.Module
	claims       leaseReaper
	reapLeases   bool
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	orders := buildOrderEngine(cfg, pg, logger)

	incidentRepo := incidentpostgres.NewRepository(pg.DB, logger)
	incidents := incidentservice.NewModule(incidentservice.Dependencies{
		Repo:        incidentRepo,
		Clock:       orderpostgres.SystemClock{},
		IDGenerator: orderpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	server := httpserver.New(orders, incidents, cfg.InternalKey, cfg.EnableIncidentFeed, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	return &WorkerApp{
		postgres:     pg,
		worker:       buildOrderEngine(cfg, pg, logger),
		claims:       orderpostgres.NewRepository(pg.DB, logger),
		reapLeases:   cfg.EnableLeaseReaper,
		pollInterval: time.Duration(cfg.PollSeconds) * time.Second,
		logger:       logger,
	}, nil
}

// buildOrderEngine wires the engine onto postgres repositories and the stub
// external collaborators. The external platforms stay fakes behind ports;
// real clients are out of scope for this service.
func buildOrderEngine(cfg config.Config, pg *db.Postgres, logger *slog.Logger) orderengine.Module {
	repo := orderpostgres.NewRepository(pg.DB, logger)
	return orderengine.NewModule(orderengine.Dependencies{
		Orders:       repo,
		Events:       repo,
		Claims:       repo,
		Deliverables: repo,
		Approvals:    repo,
		Publications: repo,
		Assets:       repo,
		Heartbeats:   repo,
		Blobs:        storage.NewBlobPaths(cfg.BlobPrefix),
		Plans:        ordermemory.NewStubBillingPlans(),
		AdsPlatform:  ordermemory.NewStubAdsPlatform(),
		SiteBuilder:  ordermemory.NewStubSiteBuilder(),
		VideoEditor:  ordermemory.NewStubVideoEditor(),
		Clock:        orderpostgres.SystemClock{},
		IDGenerator:  orderpostgres.UUIDGenerator{},
		WorkerID:     cfg.WorkerID,
		LeaseSeconds: cfg.LeaseSeconds,
		RetryDelay:   time.Duration(cfg.RetrySeconds) * time.Second,
		Logger:       logger,
	})
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"worker_id", w.worker.Worker.WorkerID,
		"poll_interval", w.pollInterval.String(),
	)

	// Poll errors are transient by assumption: log, let the heartbeat carry
	// the last error, and keep polling. Only cancellation stops the loop.
	for {
		if w.reapLeases {
			if _, err := w.claims.ExpireLeases(ctx, time.Now().UTC()); err != nil {
				w.logger.Error("lease reaping failed",
					"event", "lease_reaping_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}
		if err := w.worker.Worker.RunOnce(ctx); err != nil {
			w.logger.Error("worker poll failed",
				"event", "worker_poll_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"worker_id", w.worker.Worker.WorkerID,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
