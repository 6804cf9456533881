// Package control wires the application together: transports, session
// registry, rate limiter, invoker, classifier, fitness tracker, health
// monitoring, and the escalation path for terminal failures.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/quantforge/forge/internal/build/classifier"
	"github.com/quantforge/forge/internal/build/fitness"
	"github.com/quantforge/forge/internal/build/health"
	"github.com/quantforge/forge/internal/build/metrics"
	"github.com/quantforge/forge/internal/core/config"
	"github.com/quantforge/forge/internal/core/domain"
	"github.com/quantforge/forge/internal/infra/mcp"
	"github.com/quantforge/forge/internal/infra/mcp/provider"
	"github.com/quantforge/forge/internal/infra/mcp/session"
	"github.com/quantforge/forge/internal/infra/notify"
	"github.com/quantforge/forge/internal/infra/ratelimit"
	redisclient "github.com/quantforge/forge/internal/infra/redis"
	"github.com/quantforge/forge/internal/infra/storage"
	"github.com/quantforge/forge/internal/infra/storage/memory"
	"github.com/quantforge/forge/internal/infra/storage/postgres"
)

// Config holds the application configuration.
type Config struct {
	Port     int
	Services []config.ServiceConfig
	Limiter  config.LimiterConfig
	Retry    mcp.RetryConfig
	Session  session.Config
	Notify   config.NotifyConfig
	Redis    redisclient.Config
	Database postgres.Config
}

// Builder is the main application struct that manages the build loop
// infrastructure lifecycle.
type Builder struct {
	cfg          Config
	registry     *session.Registry
	invoker      *mcp.Invoker
	limiter      *ratelimit.Limiter
	classifier   *classifier.Classifier
	tracker      *fitness.Tracker
	healthMon    *health.Monitor
	healthServer *health.Server
	notifier     *notify.Notifier
	buildRepo    storage.BuildRepository
	healthRepo   storage.HealthSampleRepository
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// NewBuilder creates a new Builder instance with all dependencies initialized.
func NewBuilder(cfg Config) (*Builder, error) {

	// 1. Initialize Storage
	var buildRepo storage.BuildRepository
	var healthRepo storage.HealthSampleRepository
	var db *postgres.DB

	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}

		// Goose needs the raw *sql.DB that sqlx wraps
		if err := goose.SetDialect("postgres"); err != nil {
			return nil, err
		}
		if err := goose.Up(db.DB.DB, "migrations"); err != nil {
			return nil, fmt.Errorf("failed to migrate db: %w", err)
		}

		buildRepo = postgres.NewBuildRepo(db)
		healthRepo = postgres.NewHealthRepo(db)
		slog.Info("Using PostgreSQL storage")
	} else {
		store := memory.NewMemoryStorage()
		buildRepo = memory.NewBuildRepo(store)
		healthRepo = memory.NewHealthRepo(store)
		slog.Info("Using Memory storage")
	}

	// 2. Initialize Rate Limiter (shared across rate-limited services)
	var limiter *ratelimit.Limiter
	for _, svc := range cfg.Services {
		if svc.RateLimited {
			limiter = ratelimit.New(cfg.Limiter.Capacity, cfg.Limiter.RefillRate)
			break
		}
	}

	// 3. Initialize Session Registry and Transports
	registry := session.NewRegistry(cfg.Session)
	invoker := mcp.NewInvoker(registry, limiter, cfg.Retry)
	providers := make([]provider.Provider, 0, len(cfg.Services))

	for _, svc := range cfg.Services {
		var p provider.Provider
		switch svc.Transport {
		case "grpc":
			grpcProvider, err := provider.NewGRPCProvider(context.Background(), svc.Name, svc.URL)
			if err != nil {
				return nil, fmt.Errorf("failed to create grpc provider for %s: %w", svc.Name, err)
			}
			p = grpcProvider
		default:
			p = provider.NewHTTPProvider(svc.Name, svc.URL, cfg.Retry.AttemptTimeout)
		}

		registry.Register(p, svc.Class)
		invoker.AddProvider(p, svc.RateLimited)
		providers = append(providers, p)
		slog.Info("Registered service",
			"service", svc.Name, "transport", svc.Transport,
			"class", svc.Class, "rate_limited", svc.RateLimited)
	}

	// 4. Initialize Escalation Queue (optional)
	var redisClient *redisclient.Client
	if cfg.Redis.URL != "" {
		var err error
		redisClient, err = redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to Redis, escalation queue disabled", "error", err)
		}
	}

	// 5. Initialize Health Monitor
	healthMon := health.NewMonitor(providers, healthRepo)
	healthServer := health.NewServer(healthMon, cfg.Port)

	return &Builder{
		cfg:          cfg,
		registry:     registry,
		invoker:      invoker,
		limiter:      limiter,
		classifier:   classifier.New(),
		tracker:      fitness.NewTracker(),
		healthMon:    healthMon,
		healthServer: healthServer,
		notifier:     notify.NewNotifier(cfg.Notify.WebhookURL),
		buildRepo:    buildRepo,
		healthRepo:   healthRepo,
		db:           db,
		redisClient:  redisClient,
		log:          slog.Default(),
	}, nil
}

// Start starts the builder and all its components.
func (b *Builder) Start(ctx context.Context) error {
	go func() {
		if err := b.healthServer.Start(); err != nil {
			b.log.Error("Health server failed", "error", err)
		}
	}()

	if b.db != nil {
		b.db.StartMetricsCollector(ctx)
	}

	// Pre-establish sessions so the first iteration does not pay
	// handshake latency.
	b.registry.Warm(ctx)

	return nil
}

// Stop stops the builder.
func (b *Builder) Stop(ctx context.Context) error {
	b.log.Info("Stopping Builder...")

	if err := b.invoker.Close(); err != nil {
		b.log.Warn("Failed to close transports", "error", err)
	}

	if b.redisClient != nil {
		if err := b.redisClient.Close(); err != nil {
			b.log.Warn("Failed to close Redis", "error", err)
		}
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			b.log.Warn("Failed to close database", "error", err)
		}
	}

	return b.healthServer.Stop(ctx)
}

// Invoke calls a service method through the retrying invoker. Terminal
// failures are classified and escalated before the error is returned.
func (b *Builder) Invoke(
	ctx context.Context,
	service domain.ServiceID,
	method string,
	params any,
) (any, error) {
	result, err := b.invoker.Invoke(ctx, service, method, params, 0)
	if err == nil {
		return result, nil
	}

	var terminal *mcp.TerminalError
	if errors.As(err, &terminal) {
		b.escalate(ctx, terminal)
	}
	return nil, err
}

// escalate labels a terminal failure, parks it for triage, and pings
// the operator channel.
func (b *Builder) escalate(ctx context.Context, terminal *mcp.TerminalError) {
	message := terminal.Error()
	if terminal.Err != nil {
		message = terminal.Err.Error()
	}

	category := b.classifier.Classify(message)
	b.classifier.RecordExample(message, category)
	metrics.RPCErrorsTotal.WithLabelValues(string(terminal.Service), string(category)).Inc()

	b.log.Error("Terminal failure",
		"service", terminal.Service, "method", terminal.Method,
		"attempts", terminal.Attempts, "category", category, "error", terminal.Err)

	if b.redisClient != nil {
		esc := &redisclient.Escalation{
			ID:       uuid.NewString(),
			Service:  string(terminal.Service),
			Method:   terminal.Method,
			Category: category,
			Message:  message,
			Attempts: terminal.Attempts,
			RaisedAt: time.Now().UTC(),
		}
		if err := b.redisClient.PushEscalation(ctx, esc); err != nil {
			b.log.Warn("Failed to queue escalation", "error", err)
		}
	}

	b.notifier.NotifyEscalation(ctx,
		string(terminal.Service), terminal.Method, string(category), message)
}

// ReportIteration records the outcome of one build iteration and
// returns whether the caller should roll back to the best known
// version.
func (b *Builder) ReportIteration(
	ctx context.Context,
	record *domain.BuildRecord,
) (rollback bool, best domain.FitnessSample) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	if err := b.buildRepo.Record(ctx, record); err != nil {
		b.log.Warn("Failed to persist build record", "error", err)
	}

	if record.Status != domain.BuildStatusSuccess {
		return false, best
	}

	b.tracker.Record(record.ID, record.Fitness, record.Iterations)

	if b.tracker.ShouldRollback() {
		best, _ = b.tracker.Best()
		metrics.Rollbacks.WithLabelValues(record.Strategy).Inc()
		b.log.Warn("Fitness declining, advising rollback",
			"strategy", record.Strategy, "best_version", best.Version,
			"best_metric", best.Metric)
		b.notifier.Notify(ctx, fmt.Sprintf(
			"Fitness declining for %s, rolling back to %s (%.4f)",
			record.Strategy, best.Version, best.Metric,
		))
		return true, best
	}
	return false, best
}

// CheckHealth returns the current per-service health report.
func (b *Builder) CheckHealth(ctx context.Context) map[string]health.ServiceHealth {
	return b.healthMon.CheckHealth(ctx)
}

// Statistics returns aggregate build statistics.
func (b *Builder) Statistics(ctx context.Context) (storage.BuildStatistics, error) {
	return b.buildRepo.Statistics(ctx)
}

// Invoker exposes the underlying invoker for callers that manage their
// own retry budget.
func (b *Builder) Invoker() *mcp.Invoker {
	return b.invoker
}
