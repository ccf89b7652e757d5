// The worker binary runs the notification delivery pipeline: the outbox
// dispatcher sweeps due records into the queue, and the asynq worker
// republishes them on the in-process bus where the deliverer sends the
// actual messages.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inmueble_backend/internal/events"
	"inmueble_backend/internal/notification"
	"inmueble_backend/internal/notification/outbox"
	"inmueble_backend/internal/scheduler"
	"inmueble_backend/internal/whatsapp"
	"inmueble_backend/platform/config"
	"inmueble_backend/platform/db"
	"inmueble_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

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

	deliverer := notification.NewDeliverer(
		outbox.New(pool),
		whatsapp.NewClient(cfg, log),
		cfg,
		log,
	)
	deliverer.Subscribe(eventBus)

	dispatcher, err := scheduler.NewNotificationOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize queue worker", "error", err)
		panic("failed to initialize queue worker: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dispatcher.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("worker stopped", "error", err)
		return
	}
	log.Info("worker shut down cleanly")
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

	return errors.New(name + ": " + lastErr.Error())
}
