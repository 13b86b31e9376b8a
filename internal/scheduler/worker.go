package scheduler

import (
	"context"
	"fmt"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/platform/apperr"
	"estate_crm_backend/platform/config"
	"estate_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// CalendarSyncer runs one calendar sync attempt. A failed remote call is
// reported as an external_sync_failure error after it has been recorded.
type CalendarSyncer interface {
	SyncAppointment(ctx context.Context, p *access.Principal, appointmentID uuid.UUID) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	syncer CalendarSyncer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, syncer CalendarSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := newWorker(syncer, log)
	w.server = server
	return w, nil
}

func newWorker(syncer CalendarSyncer, log *logger.Logger) *Worker {
	if log == nil {
		log = logger.Discard()
	}
	w := &Worker{mux: asynq.NewServeMux(), syncer: syncer, log: log}
	w.mux.HandleFunc(TaskCalendarSync, w.handleCalendarSync)
	return w
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleCalendarSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCalendarSyncPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	p, apptID, err := payload.Decode()
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	err = w.syncer.SyncAppointment(access.WithPrincipal(ctx, p), p, apptID)
	switch {
	case err == nil:
		w.log.Info("calendar sync completed", "appointmentId", apptID)
		return nil
	case apperr.Is(err, apperr.KindExternalSyncFailure):
		w.log.Warn("calendar sync failed", "appointmentId", apptID, "error", err)
	default:
		w.log.Error("calendar sync aborted", "appointmentId", apptID, "error", err)
	}
	return err
}
