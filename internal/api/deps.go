package api

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"

	"resumeStudio/internal/database"
	"resumeStudio/internal/render"
	"resumeStudio/internal/resume"
)

// Narrow views over the concrete clients, so handlers can be tested with fakes.

type resumeStore interface {
	GetLatest(ctx context.Context, userID uint) (*database.ResumeRecord, error)
	Upsert(ctx context.Context, userID uint, rec database.ResumeRecord) (*database.ResumeRecord, error)
}

type userStore interface {
	Create(ctx context.Context, username, passwordHash string) (*database.User, error)
	FindByUsername(ctx context.Context, username string) (*database.User, error)
	FindByID(ctx context.Context, id uint) (*database.User, error)
	SetPassword(ctx context.Context, id uint, passwordHash string) error
}

type paymentStore interface {
	CreateOrder(ctx context.Context, order *database.PaymentOrder) error
	MarkPaid(ctx context.Context, userID uint, orderID, paymentID string, paidAt time.Time) error
	HasPaid(ctx context.Context, userID uint) (bool, error)
}

type objectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DataURI(ctx context.Context, objectKey string, maxBytes int64) (string, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

type renderer interface {
	Render(id resume.TemplateID, doc resume.Document, style resume.StyleConfig) (*render.Document, error)
	Has(id resume.TemplateID) bool
	Templates() []render.Info
}

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
