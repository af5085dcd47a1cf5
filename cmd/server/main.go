// Command server runs the decision ledger service: hash-chained decision
// records, outcome tracking with incident escalation, and the appeal
// workflow, exposed over a versioned HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"veritas/internal/appeals"
	appealhandler "veritas/internal/appeals/handler"
	appealmetrics "veritas/internal/appeals/metrics"
	"veritas/internal/appeals/store/appeal"
	"veritas/internal/events"
	httpapi "veritas/internal/http"
	"veritas/internal/incidents"
	"veritas/internal/ledger"
	ledgerhandler "veritas/internal/ledger/handler"
	ledgermetrics "veritas/internal/ledger/metrics"
	"veritas/internal/ledger/store/record"
	"veritas/internal/outcome"
	outcomehandler "veritas/internal/outcome/handler"
	outcomemetrics "veritas/internal/outcome/metrics"
	outcomestore "veritas/internal/outcome/store/outcome"
	"veritas/internal/platform/config"
	"veritas/internal/platform/httpserver"
	"veritas/internal/platform/logger"
	"veritas/internal/platform/metrics"
	platformredis "veritas/internal/platform/redis"
	"veritas/internal/ratelimit"
	"veritas/internal/registry"
	"veritas/pkg/platform/middleware/auth"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]httpapi.HealthCheck{}

	// Stores: Postgres when a DSN is configured, in-memory otherwise.
	var (
		recordStore  ledger.Store
		outcomeStore outcome.Store
		appealStore  appeals.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		records := record.NewPostgresStore(db)
		outcomes := outcomestore.NewPostgresStore(db)
		appealsStore := appeal.NewPostgresStore(db)
		for _, ensure := range []func(context.Context) error{
			records.EnsureSchema, outcomes.EnsureSchema, appealsStore.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		recordStore, outcomeStore, appealStore = records, outcomes, appealsStore
		checks["postgres"] = db.PingContext
		log.Info("using postgres stores")
	} else {
		recordStore = record.NewInMemoryStore()
		outcomeStore = outcomestore.NewInMemoryStore()
		appealStore = appeal.NewInMemoryStore()
		log.Warn("no postgres dsn configured, using in-memory stores")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	// Model registry: external service with a Redis lookup cache, or a
	// permissive static registry for local development.
	var modelRegistry ledger.ModelRegistry
	if cfg.ModelRegistryURL != "" {
		opts := []registry.ClientOption{registry.WithLogger(log)}
		if redisClient != nil {
			opts = append(opts, registry.WithCache(redisClient.Client, cfg.Redis.RegistryTTL))
		}
		modelRegistry = registry.NewClient(cfg.ModelRegistryURL, opts...)
	} else {
		modelRegistry = registry.NewStaticRegistry("credit-scorer", "fraud-detector", "content-moderator")
		log.Warn("no model registry url configured, using static registry")
	}

	var incidentSink outcome.IncidentSink
	if cfg.IncidentSinkURL != "" {
		incidentSink = incidents.NewHTTPSink(cfg.IncidentSinkURL)
	} else {
		incidentSink = incidents.NewInMemorySink()
		log.Warn("no incident sink url configured, using in-memory sink")
	}

	var emitter events.Emitter = events.Noop{}
	if cfg.Kafka.Brokers != "" {
		publisher, err := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return err
		}
		defer publisher.Close()
		go func() {
			if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event publisher stopped", "error", err)
			}
		}()
		emitter = publisher
	}

	ledgerSvc, err := ledger.NewService(recordStore, modelRegistry,
		ledger.WithLogger(log),
		ledger.WithMetrics(ledgermetrics.New()),
		ledger.WithEmitter(emitter),
	)
	if err != nil {
		return err
	}

	outcomeSvc, err := outcome.NewService(outcomeStore, ledgerSvc, incidentSink,
		outcome.WithLogger(log),
		outcome.WithMetrics(outcomemetrics.New()),
		outcome.WithEmitter(emitter),
	)
	if err != nil {
		return err
	}

	appealSvc, err := appeals.NewService(appealStore, ledgerSvc,
		appeals.WithLogger(log),
		appeals.WithMetrics(appealmetrics.New()),
		appeals.WithEmitter(emitter),
		appeals.WithDefaultSLAWindow(cfg.AppealSLAWindow),
	)
	if err != nil {
		return err
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimitPerMinute > 0 {
		if redisClient != nil {
			limiter = ratelimit.NewRedisLimiter(redisClient.Client, cfg.RateLimitPerMinute, time.Minute)
		} else {
			limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
		}
	}

	router := httpapi.NewRouter(httpapi.Config{
		Logger:  log,
		Metrics: metrics.NewHTTP(),
		Auth: auth.Config{
			JWTSigningKey: cfg.JWTSigningKey,
			APIKeyHash:    cfg.APIKeyHash,
		},
		Limiter: limiter,
		Timeout: cfg.RequestTimeout,
		Handlers: []httpapi.Registrar{
			ledgerhandler.New(ledgerSvc, log),
			outcomehandler.New(outcomeSvc, log),
			appealhandler.New(appealSvc, log),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
