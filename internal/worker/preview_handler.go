package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"resumeStudio/internal/database"
	"resumeStudio/internal/export"
	"resumeStudio/internal/render"
	"resumeStudio/internal/resume"
	"resumeStudio/internal/storage"
	"resumeStudio/internal/tasks"
)

type resumeStore interface {
	GetByID(ctx context.Context, id uint) (*database.ResumeRecord, error)
	SetPreviewKey(ctx context.Context, resumeID uint, key string) error
}

type objectStore interface {
	storage.DataURIReader
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
}

type renderer interface {
	Render(id resume.TemplateID, doc resume.Document, style resume.StyleConfig) (*render.Document, error)
}

// PreviewTaskHandler 负责消费简历缩略图生成任务。
type PreviewTaskHandler struct {
	store    resumeStore
	objects  objectStore
	renderer renderer
	capturer export.Capturer
	logger   *slog.Logger
}

// NewPreviewTaskHandler 创建任务处理器。
func NewPreviewTaskHandler(store resumeStore, objects objectStore, renderer renderer, capturer export.Capturer, logger *slog.Logger) *PreviewTaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreviewTaskHandler{
		store:    store,
		objects:  objects,
		renderer: renderer,
		capturer: capturer,
		logger:   logger,
	}
}

// PreviewObjectKey is where the thumbnail of a resume is stored.
func PreviewObjectKey(resumeID uint) string {
	return fmt.Sprintf("thumbnails/resume/%d/preview.png", resumeID)
}

// ProcessTask 实现 asynq.Handler。
func (h *PreviewTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	payload, err := tasks.ParseResumePreview(t)
	if err != nil {
		log.Error("bad task payload", slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)
	log.Info("Starting resume preview task...")

	rec, err := h.store.GetByID(ctx, payload.ResumeID)
	if err != nil {
		if errors.Is(err, database.ErrResumeNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	doc, err := storage.InlinePhoto(ctx, h.objects, rec.UserID, rec.Document)
	if err != nil {
		log.Warn("photo unavailable, rendering placeholder", slog.Any("error", err))
	}

	page, err := h.renderer.Render(rec.TemplateID, doc, rec.Style)
	if err != nil {
		log.Error("render resume failed", slog.Any("error", err))
		return err
	}

	png, err := h.capturer.Capture(ctx, export.Target{HTML: page.HTML}, export.FormatPNG)
	if err != nil {
		log.Error("capture preview failed", slog.Any("error", err))
		if errors.Is(err, export.ErrUnsupportedFormat) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	key := PreviewObjectKey(rec.ID)
	if _, err := h.objects.UploadFile(ctx, key, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		log.Error("upload preview to minio failed", slog.Any("error", err))
		var minioErr minio.ErrorResponse
		if errors.As(err, &minioErr) && !storage.IsTransient(err) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := h.store.SetPreviewKey(ctx, rec.ID, key); err != nil {
		if errors.Is(err, database.ErrResumeNotFound) {
			log.Warn("resume deleted while rendering preview")
			return nil
		}
		log.Error("record preview key failed", slog.Any("error", err))
		return err
	}

	log.Info("Resume preview task completed successfully.", slog.String("object_key", key), slog.Int("bytes", len(png)))
	return nil
}
