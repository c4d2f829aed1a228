package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	agendahandler "siappa/internal/agenda/handler"
	agendaservice "siappa/internal/agenda/service"
	agendastore "siappa/internal/agenda/store"
	caseshandler "siappa/internal/cases/handler"
	casesmetrics "siappa/internal/cases/metrics"
	casesservice "siappa/internal/cases/service"
	casesstore "siappa/internal/cases/store"
	cataloghandler "siappa/internal/catalog/handler"
	catalogservice "siappa/internal/catalog/service"
	catalogstore "siappa/internal/catalog/store"
	identitymetrics "siappa/internal/identity/metrics"
	"siappa/internal/identity/resolver"
	identitystore "siappa/internal/identity/store"
	"siappa/internal/identity/token"
	"siappa/internal/platform/config"
	"siappa/internal/platform/kafka"
	platformmetrics "siappa/internal/platform/metrics"
	"siappa/internal/platform/postgres"
	platformredis "siappa/internal/platform/redis"
	rlmetrics "siappa/internal/ratelimit/metrics"
	ratelimit "siappa/internal/ratelimit/middleware"
	rlmodels "siappa/internal/ratelimit/models"
	rlservice "siappa/internal/ratelimit/service"
	"siappa/internal/ratelimit/store/bucket"
	httptransport "siappa/internal/transport/http"
	"siappa/pkg/platform/audit"
	"siappa/pkg/platform/audit/publisher"
	auditmemory "siappa/pkg/platform/audit/store/memory"
	auditpostgres "siappa/pkg/platform/audit/store/postgres"
	"siappa/pkg/platform/audit/worker"
	"siappa/pkg/platform/circuit"
	"siappa/pkg/platform/middleware/metadata"
	"siappa/pkg/platform/tx"
)

// app holds everything main needs to serve and to shut down.
type app struct {
	deps       httptransport.Dependencies
	storage    string
	background []func(context.Context) error
	closers    []func() error
	log        *slog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("failed to release resource", "error", err)
		}
	}
}

// stores groups the backends chosen for this process.
type stores struct {
	catalog  catalogservice.Store
	cases    casesservice.Store
	agenda   agendaservice.Store
	profiles resolver.ProfileStore
	events   audit.Store
	runner   tx.Runner
}

func buildApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{log: log, storage: "memory"}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientIPs, err := metadata.NewIPResolver(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}

	ticketZone, err := time.LoadLocation(cfg.Server.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load SIAPPA_TIMEZONE: %w", err)
	}

	st, db, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.storage = "postgres"
		a.closers = append(a.closers, db.Close)
	}

	health := map[string]httptransport.HealthCheck{}
	if db != nil {
		health["database"] = db.PingContext
	}

	catalog := catalogservice.New(st.catalog, catalogservice.WithLogger(log))
	events := publisher.New(st.events, publisher.WithLogger(log), publisher.WithMetrics(publisher.NewMetrics()))
	caseMetrics := casesmetrics.New()
	caseService := casesservice.New(st.cases, catalog, events, st.runner,
		casesservice.WithLogger(log),
		casesservice.WithMetrics(caseMetrics),
		casesservice.WithTicketLocation(ticketZone),
	)
	tracker := casesservice.NewTracker(st.cases, catalog,
		casesservice.WithTrackerLogger(log),
		casesservice.WithTrackerMetrics(caseMetrics),
	)
	agendaService := agendaservice.New(st.agenda, catalog, agendaservice.WithLogger(log))

	limiter, bg, err := buildRateLimiter(ctx, cfg, log, a, health)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.background = append(a.background, bg...)

	if len(cfg.Kafka.Brokers) > 0 {
		if db == nil {
			log.Warn("kafka brokers configured without a database; case event relay disabled")
		} else {
			relay, err := buildRelay(ctx, cfg.Kafka, db, log)
			if err != nil {
				a.Close()
				return nil, err
			}
			a.closers = append(a.closers, func() error { relay.producer.Close(); return nil })
			a.background = append(a.background, relay.worker.Run)
			health["kafka"] = relay.producer.Ping
		}
	}

	a.deps = httptransport.Dependencies{
		Logger:         log,
		RequestTimeout: cfg.Server.RequestTimeout,
		Catalog:        cataloghandler.New(catalog, log),
		Cases:          caseshandler.New(caseService, tracker, log),
		Agenda:         agendahandler.New(agendaService, log),
		Tokens:         token.NewValidator(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer),
		Resolver:       resolver.New(st.profiles, resolver.WithLogger(log), resolver.WithMetrics(identitymetrics.New())),
		RateLimit:      limiter,
		ClientIPs:      clientIPs,
		Metrics:        platformmetrics.New(),
		Health:         health,
	}
	return a, nil
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*stores, *sql.DB, error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set; using in-memory stores with no principals, admin routes will deny every caller")
		return &stores{
			catalog:  catalogstore.NewSeededInMemory(),
			cases:    casesstore.NewInMemory(),
			agenda:   agendastore.NewInMemory(),
			profiles: identitystore.NewInMemory(),
			events:   auditmemory.NewInMemoryStore(),
			runner:   tx.NewMemoryRunner(),
		}, nil, nil
	}

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := migrateUp(ctx, cfg, log); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return &stores{
		catalog:  catalogstore.NewPostgres(db),
		cases:    casesstore.NewPostgres(db),
		agenda:   agendastore.NewPostgres(db),
		profiles: identitystore.NewPostgres(db),
		events:   auditpostgres.New(db),
		runner:   tx.NewSQLRunner(db),
	}, db, nil
}

// migrateUp runs on its own connection because the migrator closes it.
func migrateUp(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) error {
	mdb, err := postgres.Open(ctx, cfg)
	if err != nil {
		return err
	}
	mg, err := postgres.NewMigrator(mdb, log)
	if err != nil {
		_ = mdb.Close()
		return err
	}
	defer mg.Close()
	return mg.Up()
}

func buildRateLimiter(ctx context.Context, cfg config.Config, log *slog.Logger, a *app, health map[string]httptransport.HealthCheck) (*ratelimit.Middleware, []func(context.Context) error, error) {
	limits := map[rlmodels.EndpointClass]rlmodels.Limit{
		rlmodels.ClassReport: {RequestsPerWindow: cfg.RateLimit.ReportPerWindow, Window: cfg.RateLimit.Window},
		rlmodels.ClassTrack:  {RequestsPerWindow: cfg.RateLimit.TrackPerWindow, Window: cfg.RateLimit.Window},
	}
	m := rlmetrics.New()
	memory := bucket.NewInMemory()
	background := []func(context.Context) error{pruneEvery(cfg.RateLimit.Window, memory.Prune, log)}
	opts := []rlservice.Option{rlservice.WithLogger(log), rlservice.WithMetrics(m)}

	var primary rlservice.BucketStore = memory
	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		health["redis"] = rc.Health
		primary = bucket.NewRedis(rc.Client)
		opts = append(opts, rlservice.WithFallback(memory, circuit.New("ratelimit-redis")))
	}

	svc, err := rlservice.New(primary, limits, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("configure rate limits: %w", err)
	}
	return ratelimit.New(svc, log, ratelimit.WithDisabled(cfg.RateLimit.Disabled)), background, nil
}

type relay struct {
	producer *kafka.Producer
	worker   *worker.Worker
}

func buildRelay(ctx context.Context, cfg config.KafkaConfig, db *sql.DB, log *slog.Logger) (*relay, error) {
	producer, err := kafka.NewProducer(cfg.Brokers, "siappa")
	if err != nil {
		return nil, err
	}
	if err := producer.EnsureTopic(ctx, cfg.Topic, 3, 1); err != nil {
		producer.Close()
		return nil, err
	}
	w := worker.NewWorker(db, producer, cfg.Topic,
		worker.WithLogger(log),
		worker.WithInterval(cfg.PollInterval),
		worker.WithBatchSize(cfg.BatchSize),
	)
	return &relay{producer: producer, worker: w}, nil
}
