package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raftaar7864/rental-management-backend/internal/adapters/storage"
	"github.com/raftaar7864/rental-management-backend/internal/auth"
	"github.com/raftaar7864/rental-management-backend/internal/bills"
	billsvc "github.com/raftaar7864/rental-management-backend/internal/bills/service"
	"github.com/raftaar7864/rental-management-backend/internal/email"
	apphttp "github.com/raftaar7864/rental-management-backend/internal/http"
	"github.com/raftaar7864/rental-management-backend/internal/http/router"
	"github.com/raftaar7864/rental-management-backend/internal/notification"
	"github.com/raftaar7864/rental-management-backend/internal/payments"
	"github.com/raftaar7864/rental-management-backend/internal/pdf"
	"github.com/raftaar7864/rental-management-backend/internal/scheduler"
	"github.com/raftaar7864/rental-management-backend/internal/security/recaptcha"
	"github.com/raftaar7864/rental-management-backend/internal/whatsapp"
	"github.com/raftaar7864/rental-management-backend/platform/config"
	"github.com/raftaar7864/rental-management-backend/platform/db"
	"github.com/raftaar7864/rental-management-backend/platform/logger"
	"github.com/raftaar7864/rental-management-backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
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
		return db.RunMigrations(ctx, cfg, "migrations")
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

	val := validator.New()

	// Object storage for bill PDFs. Optional: without it every PDF lands in
	// the local fallback directory.
	var storageSvc storage.StorageService
	if cfg.IsStorageEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := withRetry(ctx, log, "ensure bills bucket", 5, 2*time.Second, func() error {
			return minioSvc.EnsureBucketExists(ctx, cfg.GetStorageBucketBills())
		}); err != nil {
			log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetStorageBucketBills())
			panic("failed to ensure storage bucket exists: " + err.Error())
		}
		storageSvc = minioSvc
		log.Info("storage service initialized", "bucket", cfg.GetStorageBucketBills())
	} else {
		log.Warn("object storage not configured; bill PDFs use local fallback", "dir", cfg.GetPDFFallbackDir())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	sender := email.NewSender(cfg)
	waDispatcher := whatsapp.NewDispatcher(cfg, log)
	notifier := notification.NewNotifier(cfg, cfg, cfg, sender, waDispatcher, log)

	generator := pdf.NewGenerator(cfg)
	materializer := billsvc.NewMaterializer(generator, storageSvc, cfg, cfg, log)

	billsModule := bills.NewModule(pool, materializer, notifier, val, log)

	if cfg.GetRedisURL() != "" {
		jobsClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("failed to initialize scheduler client", "error", err)
			panic("failed to initialize scheduler client: " + err.Error())
		}
		defer func() { _ = jobsClient.Close() }()
		billsModule.SetJobEnqueuer(jobsClient)
		log.Info("bill jobs routed through scheduler queue")
	} else {
		log.Warn("REDIS_URL not configured; generation runs execute inline")
	}
	authModule := auth.NewModule(cfg, val, log)
	notificationModule := notification.NewModule(notifier)

	razorpayClient := payments.NewClient(cfg)
	paymentsService := payments.NewService(razorpayClient, billsModule.Service(), cfg, log)
	paymentsModule := payments.NewModule(paymentsService, recaptcha.NewClient(cfg))

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Modules: []apphttp.Module{
			authModule,
			billsModule,
			paymentsModule,
			notificationModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
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
