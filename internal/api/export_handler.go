package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/auth"
	"resumeStudio/internal/database"
	"resumeStudio/internal/errcode"
	"resumeStudio/internal/export"
	"resumeStudio/internal/storage"
)

// Export modes.
const (
	ExportModeInline = "inline"
	ExportModeRoute  = "route"
)

// RenderRoute is the render-only page captured in route mode.
const RenderRoute = "/render/resume"

// ExportOptions 描述导出接口的部署相关参数。
type ExportOptions struct {
	Mode              string
	RenderBaseURL     string
	SessionCookieName string
	AutomationSecret  string
	RequirePayment    bool
}

// ExportHandler 处理 POST /v1/resume/export。
type ExportHandler struct {
	resumes  resumeStore
	payments paymentStore
	objects  storage.DataURIReader
	renderer renderer
	capturer export.Capturer
	opts     ExportOptions
}

func NewExportHandler(resumes resumeStore, payments paymentStore, objects storage.DataURIReader, renderer renderer, capturer export.Capturer, opts ExportOptions) *ExportHandler {
	if opts.Mode == "" {
		opts.Mode = ExportModeInline
	}
	opts.RenderBaseURL = strings.TrimRight(strings.TrimSpace(opts.RenderBaseURL), "/")
	return &ExportHandler{
		resumes:  resumes,
		payments: payments,
		objects:  objects,
		renderer: renderer,
		capturer: capturer,
		opts:     opts,
	}
}

type exportRequest struct {
	Format string `json:"format"`
}

// Export 加载用户最近的简历，渲染并捕获为 PNG/PDF，整体成功后才写出响应体。
func (h *ExportHandler) Export(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "body must be {\"format\": \"png\" | \"pdf\"}")
		return
	}

	format, err := export.ParseFormat(req.Format)
	if err != nil {
		Error(c, http.StatusBadRequest, errcode.UnsupportedFormat, exportMessage(errcode.UnsupportedFormat))
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c).With(
		slog.Uint64("user_id", uint64(session.UserID)),
		slog.String("format", string(format)),
	)

	if h.opts.RequirePayment && h.payments != nil {
		paid, err := h.payments.HasPaid(ctx, session.UserID)
		if err != nil {
			log.Error("export: payment lookup failed", slog.Any("error", err))
			Internal(c, "failed to check payment status")
			return
		}
		if !paid {
			Error(c, http.StatusPaymentRequired, errcode.PaymentRequired, "export is locked until payment is completed")
			return
		}
	}

	rec, err := h.resumes.GetLatest(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, database.ErrResumeNotFound) {
			Error(c, http.StatusNotFound, errcode.DocumentNotFound, "no saved resume")
			return
		}
		log.Error("export: load resume failed", slog.Any("error", err))
		Internal(c, "failed to load resume")
		return
	}

	target, err := h.target(c, session, rec)
	if err != nil {
		log.Error("export: render failed", slog.Any("error", err))
		Error(c, http.StatusInternalServerError, errcode.CaptureFailure, "failed to render resume")
		return
	}

	data, err := h.capturer.Capture(ctx, target, format)
	if err != nil {
		status, code := exportErrorStatus(err)
		log.Error("export: capture failed", slog.String("code", string(code)), slog.Any("error", err))
		Error(c, status, code, exportMessage(code))
		return
	}

	log.Info("export: delivered", slog.Int("bytes", len(data)))
	c.Header("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), data)
}

func (h *ExportHandler) target(c *gin.Context, session *auth.Session, rec *database.ResumeRecord) (export.Target, error) {
	if h.opts.Mode == ExportModeRoute {
		return export.Target{
			URL: h.opts.RenderBaseURL + RenderRoute,
			Cookies: []*http.Cookie{{
				Name:     h.opts.SessionCookieName,
				Value:    session.Token,
				Path:     "/",
				HttpOnly: true,
			}},
			Headers: map[string]string{auth.AutomationHeader: h.opts.AutomationSecret},
		}, nil
	}

	doc, err := storage.InlinePhoto(c.Request.Context(), h.objects, session.UserID, rec.Document)
	if err != nil {
		middleware.LoggerFromContext(c).Warn("export: photo unavailable, using placeholder", slog.Any("error", err))
	}
	page, err := h.renderer.Render(rec.TemplateID, doc, rec.Style)
	if err != nil {
		return export.Target{}, err
	}
	return export.Target{HTML: page.HTML}, nil
}
