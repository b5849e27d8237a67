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

	"golang.org/x/sync/errgroup"

	"contacts_backend/internal/auth"
	"contacts_backend/internal/contacts"
	"contacts_backend/internal/email"
	apphttp "contacts_backend/internal/http"
	"contacts_backend/internal/http/router"
	"contacts_backend/internal/mailer"
	"contacts_backend/internal/storage"
	"contacts_backend/migrations"
	"contacts_backend/platform/cache"
	"contacts_backend/platform/config"
	"contacts_backend/platform/db"
	"contacts_backend/platform/logger"
	"contacts_backend/platform/validator"
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
	// Infrastructure
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.Migrations)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	rdb, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		panic("failed to connect to redis: " + err.Error())
	}
	defer rdb.Close()
	log.Info("redis connection established")

	val := validator.New()

	// Avatar uploads go to MinIO when configured, otherwise the endpoint
	// reports storage as unavailable.
	var uploader storage.Uploader = storage.DisabledUploader{}
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		if err := minioSvc.EnsureBucketExists(ctx); err != nil {
			log.Error("failed to ensure avatar bucket exists", "error", err)
			panic("failed to ensure avatar bucket exists: " + err.Error())
		}
		uploader = minioSvc
		log.Info("storage service initialized", "bucket", cfg.MinIOBucketAvatars)
	} else {
		log.Warn("MINIO_ENDPOINT not configured; avatar uploads disabled")
	}

	// Emails are enqueued on Redis and delivered by the in-process worker,
	// so request handlers never block on SMTP.
	mailClient, err := mailer.NewClient(cfg, log)
	if err != nil {
		log.Error("failed to initialize mail queue client", "error", err)
		panic("failed to initialize mail queue client: " + err.Error())
	}
	defer mailClient.Close()

	mailWorker, err := mailer.NewWorker(cfg, email.NewSender(cfg), log)
	if err != nil {
		log.Error("failed to initialize mail worker", "error", err)
		panic("failed to initialize mail worker: " + err.Error())
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	authModule, err := auth.NewModule(pool, rdb, cfg, mailClient, uploader, val, log)
	if err != nil {
		log.Error("failed to initialize users module", "error", err)
		panic("failed to initialize users module: " + err.Error())
	}
	contactsModule := contacts.NewModule(pool, val, log)

	app := &apphttp.App{
		Config:         cfg,
		Logger:         log,
		Health:         db.NewPoolAdapter(pool),
		AuthMiddleware: authModule.Middleware(),
		Modules: []apphttp.Module{
			authModule,
			contactsModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		mailWorker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	log.Info("server stopped")
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
