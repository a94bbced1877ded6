package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raftaar7864/rental-management-backend/internal/adapters/storage"
	"github.com/raftaar7864/rental-management-backend/internal/bills/repository"
	billsvc "github.com/raftaar7864/rental-management-backend/internal/bills/service"
	"github.com/raftaar7864/rental-management-backend/internal/email"
	"github.com/raftaar7864/rental-management-backend/internal/notification"
	"github.com/raftaar7864/rental-management-backend/internal/pdf"
	"github.com/raftaar7864/rental-management-backend/internal/scheduler"
	"github.com/raftaar7864/rental-management-backend/internal/whatsapp"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/db"
	"github.com/raftaar7864/rental-management-backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
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

	var storageSvc storage.StorageService
	if cfg.IsStorageEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		storageSvc = minioSvc
	}

	sender := email.NewSender(cfg)
	waDispatcher := whatsapp.NewDispatcher(cfg, log)
	notifier := notification.NewNotifier(cfg, cfg, cfg, sender, waDispatcher, log)

	generator := pdf.NewGenerator(cfg)
	materializer := billsvc.NewMaterializer(generator, storageSvc, cfg, cfg, log)
	billsService := billsvc.New(repository.New(pool), materializer, notifier, log)

	periodic, err := scheduler.NewPeriodic(cfg, log)
	if err != nil {
		log.Error("failed to initialize periodic jobs", "error", err)
		panic("failed to initialize periodic jobs: " + err.Error())
	}
	go func() {
		if err := periodic.Run(); err != nil {
			log.Error("periodic job scheduler stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		periodic.Shutdown()
	}()

	worker, err := scheduler.NewWorker(cfg, billsService, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
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
