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

	"applygate/internal/adminauth"
	"applygate/internal/applicant/handler"
	"applygate/internal/applicant/metrics"
	"applygate/internal/applicant/service"
	"applygate/internal/applicant/store"
	"applygate/internal/audit"
	apphttp "applygate/internal/http"
	"applygate/internal/notify"
	"applygate/internal/platform/config"
	"applygate/internal/platform/database"
	"applygate/internal/platform/httpserver"
	"applygate/internal/platform/logger"
	platformredis "applygate/internal/platform/redis"
	"applygate/internal/ratelimit"
	"applygate/internal/upload"
	"applygate/internal/upload/s3"
	"applygate/migrations"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	objectStore, err := s3.New(ctx, s3.Options{
		Region:     cfg.AWSRegion,
		Bucket:     cfg.S3Bucket,
		Endpoint:   cfg.AWSEndpointURL,
		PublicBase: cfg.S3PublicBase,
	})
	if err != nil {
		return fmt.Errorf("build object store: %w", err)
	}

	sender, err := notify.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		return fmt.Errorf("build smtp sender: %w", err)
	}
	notifier := notify.NewService(sender, cfg.ProgramName, log)

	recorder := audit.NewRecorder(0, log)
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), recorder, log)
	go func() {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	tokens := adminauth.NewTokenService(cfg.JWTSigningKey, cfg.TokenTTL)
	adminSvc, err := adminauth.NewService(cfg.AdminEmail, cfg.AdminPassword, tokens, log, recorder)
	if err != nil {
		return fmt.Errorf("build admin auth: %w", err)
	}

	m := metrics.New()
	coordinator := upload.NewCoordinator(objectStore, cfg.UploadFolder, cfg.UploadTimeout, log, m)
	signatures := upload.NewSignatureService(objectStore, cfg.UploadFolder, cfg.PresignTTL)
	applicants := service.New(store.NewPostgres(db), coordinator, notifier, m, log, recorder)

	var loginLimiter ratelimit.Limiter
	if redisClient != nil {
		loginLimiter = ratelimit.NewRedis(redisClient.Client)
	} else {
		loginLimiter = ratelimit.NewMemory()
	}

	router := apphttp.New(apphttp.Deps{
		Logger:       log,
		Applicants:   handler.New(applicants, signatures, log),
		AdminLogin:   adminauth.NewHandler(adminSvc, log),
		Tokens:       tokens,
		LoginLimiter: loginLimiter,
		Health: func(w http.ResponseWriter, r *http.Request) {
			if err := db.PingContext(r.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		},
		RequestTimeout: cfg.RequestTimeout,
	})

	server := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	log.Info("server stopped")
	return nil
}
