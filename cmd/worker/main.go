package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/config"
	"resumeStudio/internal/database"
	"resumeStudio/internal/export"
	"resumeStudio/internal/metrics"
	"resumeStudio/internal/render"
	"resumeStudio/internal/storage"
	"resumeStudio/internal/tasks"
	"resumeStudio/internal/worker"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database, logger)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	logger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
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

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		// 每个任务独占一个浏览器进程，并发保持较低。
		Concurrency: cfg.Worker.Concurrency,
	})

	if cfg.Worker.MetricsPort > 0 {
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Worker.MetricsPort)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("worker metrics listener stopped", slog.Any("error", err))
			}
		}()
	}

	previewHandler := worker.NewPreviewTaskHandler(
		database.NewResumeStore(db),
		storageClient,
		render.Default(),
		capturer,
		logger,
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumePreview, previewHandler)

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.String("export_backend", launcher.Name()),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
