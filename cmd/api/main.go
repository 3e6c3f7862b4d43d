package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/api"
	"resumeStudio/internal/auth"
	"resumeStudio/internal/config"
	"resumeStudio/internal/database"
	"resumeStudio/internal/export"
	"resumeStudio/internal/payment"
	"resumeStudio/internal/render"
	"resumeStudio/internal/storage"
)

func main() {
	// .env 可选，缺失时直接读取环境变量。
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database, logger)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}
	logger.Info("database ready",
		slog.String("host", cfg.Database.Host),
		slog.String("db", cfg.Database.Name),
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer redisClient.Close()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer asynqClient.Close()

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}

	privatePEM, publicPEM, err := cfg.Auth.ReadKeys()
	if err != nil {
		log.Fatalf("read auth keys: %v", err)
	}
	authService, err := auth.NewAuthService(privatePEM, publicPEM, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, cfg.Export.AutomationSecret)
	if err != nil {
		log.Fatalf("init auth service: %v", err)
	}

	launcher, err := export.NewLauncher(cfg.Export.Backend, export.LauncherOptions{
		Bin:       cfg.Export.BrowserBin,
		RemoteURL: cfg.Export.BrowserWSURL,
	})
	if err != nil {
		log.Fatalf("init export launcher: %v", err)
	}
	capturer := export.NewOrchestrator(launcher, export.Options{
		MarkerTimeout:     cfg.Export.MarkerTimeout,
		NavigationTimeout: cfg.Export.NavigationTimeout,
		Logger:            logger,
	})

	resumes := database.NewResumeStore(db)
	router := api.NewRouter(logger,
		api.HealthCheck{Name: "database", Check: func(ctx context.Context) error { return database.Ping(ctx, db) }},
		api.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)
	api.RegisterRoutes(router, api.Deps{
		Users:       database.NewUserStore(db),
		Redis:       redisClient,
		Logger:      logger,
		AuthService: authService,
		Resumes:     resumes,
		Payments:    database.NewPaymentStore(db),
		Objects:     storageClient,
		Renderer:    render.Default(),
		Capturer:    capturer,
		Tasks:       asynqClient,
		Scanner:     api.NewClamdScanner(cfg.Clamd.Addr),
		Verifier:    payment.NewVerifier(cfg.Payment.KeySecret),
		Auth: api.AuthOptions{
			LoginRateLimitPerHour: cfg.Auth.LoginRateLimitPerHour,
			LoginLockThreshold:    cfg.Auth.LoginLockThreshold,
			LoginLockTTL:          cfg.Auth.LoginLockTTL,
			CookieDomain:          cfg.API.CookieDomain,
			SessionCookieName:     cfg.API.SessionCookieName,
		},
		Export: api.ExportOptions{
			Mode:              cfg.Export.Mode,
			RenderBaseURL:     cfg.Export.RenderBaseURL,
			SessionCookieName: cfg.API.SessionCookieName,
			AutomationSecret:  cfg.Export.AutomationSecret,
			RequirePayment:    cfg.Payment.RequireForExport,
		},
		PreviewRedirectURL: cfg.Export.PreviewRedirectURL,
		PaymentAmountMinor: cfg.Payment.AmountMinor,
		PaymentCurrency:    cfg.Payment.Currency,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.API.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening",
			slog.String("addr", srv.Addr),
			slog.String("export_backend", launcher.Name()),
			slog.String("export_mode", cfg.Export.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start api server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown failed", slog.Any("error", err))
	}
}
