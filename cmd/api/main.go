package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/adapters"
	"estate_crm_backend/internal/appointments"
	"estate_crm_backend/internal/appointments/calendar"
	"estate_crm_backend/internal/appointments/guard"
	apptservice "estate_crm_backend/internal/appointments/service"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/internal/contacts"
	"estate_crm_backend/internal/deals"
	dealservice "estate_crm_backend/internal/deals/service"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/events"
	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/http/router"
	"estate_crm_backend/internal/properties"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	platformevents "estate_crm_backend/platform/events"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/metrics"
	"estate_crm_backend/platform/phone"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.GetDatabaseURL())
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	eventBus := events.NewInMemoryBus(log)
	if closeNATS := initNATSForwarder(cfg, eventBus, log); closeNATS != nil {
		defer closeNATS()
	}

	directory, err := access.NewCachedDirectory(access.NewPgDirectory(pool), cfg.GetDirectoryCacheTTL(), cfg.GetDirectoryCacheMaxCost(), m)
	if err != nil {
		log.Error("failed to initialize agent directory cache", "error", err)
		panic("failed to initialize agent directory cache: " + err.Error())
	}
	defer directory.Close()

	txRunner := db.NewTxRunner(pool)
	activity := audit.New(pool)
	deps := entity.Deps{
		Resolver: access.NewResolver(directory),
		Bus:      eventBus,
		Audit:    activity,
		Log:      log,
		Metrics:  m,
	}

	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	contactsModule := contacts.NewModule(pool, txRunner, deps, phone.NewNormalizer(cfg.GetPhoneDefaultRegion()), val)
	propertiesModule := properties.NewModule(pool, txRunner, deps, val)
	dealsModule := deals.NewModule(pool, txRunner, deps, dealservice.References{
		Contacts:   contactsModule.Lookup(),
		Properties: propertiesModule.Lookup(),
	}, eventBus, val, log, m)

	schedulerClient, closeScheduler := initSchedulerClient(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	bookingGuard, closeGuard := initBookingGuard(ctx, cfg, log)
	if closeGuard != nil {
		defer closeGuard()
	}
	loc, _ := time.LoadLocation(cfg.GetCalendarTimezone())

	apptOpts := apptservice.Options{
		Guard:      bookingGuard,
		Calendar:   initCalendar(ctx, cfg, log),
		Activity:   activity,
		Location:   loc,
		Contacts:   contactsModule.Lookup(),
		Properties: propertiesModule.Lookup(),
	}
	if schedulerClient != nil {
		apptOpts.Enqueuer = schedulerClient
	}
	appointmentsModule := appointments.NewModule(pool, txRunner, deps, val, apptOpts)

	// Cross-module reactions
	adapters.NewDealScoreHandler(contactsModule.Scoring(), log).Subscribe(eventBus)

	// ========================================================================
	// HTTP
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Metrics:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		Modules: []apphttp.Module{
			contactsModule,
			dealsModule,
			appointmentsModule,
			propertiesModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initNATSForwarder mirrors every local event onto NATS when configured.
func initNATSForwarder(cfg config.NATSConfig, bus events.Bus, log *logger.Logger) func() {
	if !cfg.IsNATSEnabled() {
		return nil
	}
	nc, err := platformevents.ConnectNATS(cfg.GetNATSURL(), "estate-crm-api")
	if err != nil {
		log.Error("failed to connect to NATS; events stay in-process", "error", err)
		return nil
	}
	bus.SubscribeAll(platformevents.NewNATSForwarder(nc, cfg.GetNATSSubjectPrefix()))
	log.Info("forwarding domain events to NATS", "prefix", cfg.GetNATSSubjectPrefix())
	return func() { _ = nc.Drain() }
}

func initSchedulerClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; calendar sync runs inline")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initBookingGuard(ctx context.Context, cfg *config.Config, log *logger.Logger) (guard.Guard, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; booking guard disabled, slot updates remain conditional")
		return guard.Noop{}, nil
	}

	client, err := guard.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect booking guard to redis", "error", err)
		return guard.Noop{}, nil
	}

	return guard.NewRedisGuard(client, cfg.GetBookingLockTTL()), func() {
		_ = client.Close()
	}
}

func initCalendar(ctx context.Context, cfg config.CalendarConfig, log *logger.Logger) calendar.Client {
	if !cfg.IsCalendarEnabled() {
		log.Warn("google calendar not configured; sync attempts will be recorded as failed")
		return calendar.Disabled{}
	}

	client, err := calendar.NewGoogle(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize google calendar", "error", err)
		return calendar.Disabled{}
	}
	return client
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
