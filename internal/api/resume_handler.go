package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/database"
	"resumeStudio/internal/errcode"
	"resumeStudio/internal/resume"
	"resumeStudio/internal/tasks"
)

const previewURLTTL = 15 * time.Minute

type previewURLSigner interface {
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// ResumeHandler 负责向导保存与读取。
type ResumeHandler struct {
	store    resumeStore
	signer   previewURLSigner
	renderer renderer
	tasks    taskEnqueuer
}

// NewResumeHandler 构造 ResumeHandler。tasks 为 nil 时不生成预览缩略图。
func NewResumeHandler(store resumeStore, signer previewURLSigner, renderer renderer, tasks taskEnqueuer) *ResumeHandler {
	return &ResumeHandler{
		store:    store,
		signer:   signer,
		renderer: renderer,
		tasks:    tasks,
	}
}

type saveResumeRequest struct {
	TemplateID  resume.TemplateID  `json:"templateId"`
	ResumeData  resume.Document    `json:"resumeData"`
	StyleConfig resume.StyleConfig `json:"styleConfig"`
}

// GetLatestResume 返回用户最近保存的简历。
func (h *ResumeHandler) GetLatestResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.store.GetLatest(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrResumeNotFound) {
			Error(c, http.StatusNotFound, errcode.DocumentNotFound, "no saved resume")
			return
		}
		middleware.LoggerFromContext(c).Error("load latest resume failed", slog.Any("error", err))
		Internal(c, "failed to load resume")
		return
	}

	c.JSON(http.StatusOK, rec)
}

// SaveResume 校验并保存（更新最近一份或新建），随后异步生成预览缩略图。
func (h *ResumeHandler) SaveResume(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	if req.TemplateID == "" {
		req.TemplateID = resume.DefaultTemplate
	}
	if !h.renderer.Has(req.TemplateID) {
		ValidationFailed(c, "unknown template", []string{"templateId"})
		return
	}
	style := req.StyleConfig.WithDefaults()

	var fields []string
	for _, err := range []error{resume.Validate(req.ResumeData), resume.ValidateStyle(style)} {
		var vErr *resume.ValidationError
		switch {
		case err == nil:
		case errors.As(err, &vErr):
			fields = append(fields, vErr.Fields...)
		default:
			BadRequest(c, err.Error())
			return
		}
	}
	if len(fields) > 0 {
		ValidationFailed(c, "resume failed validation", fields)
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	saved, err := h.store.Upsert(ctx, userID, database.ResumeRecord{
		TemplateID: req.TemplateID,
		Document:   req.ResumeData,
		Style:      style,
	})
	if err != nil {
		log.Error("save resume failed", slog.Any("error", err))
		Internal(c, "failed to save resume")
		return
	}

	h.enqueuePreview(c, log, saved.ID)
	c.JSON(http.StatusOK, saved)
}

func (h *ResumeHandler) enqueuePreview(c *gin.Context, log *slog.Logger, resumeID uint) {
	if h.tasks == nil {
		return
	}
	task, err := tasks.NewResumePreviewTask(resumeID, middleware.GetCorrelationID(c))
	if err != nil {
		log.Warn("build preview task failed", slog.Any("error", err))
		return
	}
	// 同一份简历短时间内多次保存只保留一个待处理任务。
	if _, err := h.tasks.EnqueueContext(c.Request.Context(), task, asynq.MaxRetry(3), asynq.Unique(30*time.Second)); err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		log.Warn("enqueue preview task failed", slog.Uint64("resume_id", uint64(resumeID)), slog.Any("error", err))
	}
}

// GetPreview 返回最近简历缩略图的临时访问地址。
func (h *ResumeHandler) GetPreview(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.store.GetLatest(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrResumeNotFound) {
			Error(c, http.StatusNotFound, errcode.DocumentNotFound, "no saved resume")
			return
		}
		Internal(c, "failed to load resume")
		return
	}
	if rec.PreviewObjectKey == "" || h.signer == nil {
		NotFound(c, "preview not ready")
		return
	}

	url, err := h.signer.GeneratePresignedURL(c.Request.Context(), rec.PreviewObjectKey, previewURLTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Error("sign preview url failed", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(previewURLTTL.Seconds())})
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	if session, ok := middleware.SessionFromContext(c); ok {
		return session.UserID, true
	}
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
