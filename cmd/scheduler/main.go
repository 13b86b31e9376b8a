package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/internal/adapters"
	"estate_crm_backend/internal/appointments"
	"estate_crm_backend/internal/appointments/calendar"
	apptrepo "estate_crm_backend/internal/appointments/repository"
	apptservice "estate_crm_backend/internal/appointments/service"
	"estate_crm_backend/internal/audit"
	"estate_crm_backend/internal/entity"
	"estate_crm_backend/internal/events"
	"estate_crm_backend/internal/scheduler"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/db"
	platformevents "estate_crm_backend/platform/events"
	"estate_crm_backend/platform/logger"
	"estate_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	if cfg.IsNATSEnabled() {
		nc, err := platformevents.ConnectNATS(cfg.GetNATSURL(), "estate-crm-scheduler")
		if err != nil {
			log.Error("failed to connect to NATS; sync results stay in-process", "error", err)
		} else {
			defer func() { _ = nc.Drain() }()
			eventBus.SubscribeAll(platformevents.NewNATSForwarder(nc, cfg.GetNATSSubjectPrefix()))
		}
	}

	directory, err := access.NewCachedDirectory(access.NewPgDirectory(pool), cfg.GetDirectoryCacheTTL(), cfg.GetDirectoryCacheMaxCost(), nil)
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
	}

	cal := calendar.Client(calendar.Disabled{})
	if cfg.IsCalendarEnabled() {
		g, err := calendar.NewGoogle(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize google calendar", "error", err)
		} else {
			cal = g
		}
	}
	loc, _ := time.LoadLocation(cfg.GetCalendarTimezone())

	// Worker-side scheduler wiring (no HTTP handlers required).
	appointmentsModule := appointments.NewModule(pool, txRunner, deps, validator.New(), apptservice.Options{
		Calendar: cal,
		Activity: activity,
		Location: loc,
	})

	worker, err := scheduler.NewWorker(cfg, adapters.NewCalendarSyncRunner(appointmentsModule.Service()), log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}
	sweeper := scheduler.NewStaleSyncSweeper(apptrepo.New(pool, txRunner, deps), log, 0, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sweeper.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	_ = g.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

	return errors.New(name + ": " + lastErr.Error())
}
