package scheduler

import (
	"context"
	"fmt"

	"inmueble_backend/internal/events"
	"inmueble_backend/platform/config"
	"inmueble_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker consumes queued tasks and republishes them as domain events on the
// in-process bus, where the notification deliverer picks them up.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskNotificationOutboxDue, w.handleNotificationOutboxDue)

	return w, nil
}

func (w *Worker) handleNotificationOutboxDue(ctx context.Context, task *asynq.Task) error {
	if w.bus == nil {
		return nil
	}

	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	return w.bus.PublishSync(ctx, events.NotificationOutboxDue{
		BaseEvent: events.NewBaseEvent(),
		OutboxID:  outboxID,
	})
}

// Run serves tasks until the context is cancelled.
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
