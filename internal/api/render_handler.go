package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/database"
	"resumeStudio/internal/errcode"
	"resumeStudio/internal/storage"
)

// RenderHandler 提供仅供截图使用的渲染页面。
type RenderHandler struct {
	resumes     resumeStore
	objects     storage.DataURIReader
	renderer    renderer
	redirectURL string
}

func NewRenderHandler(resumes resumeStore, objects storage.DataURIReader, renderer renderer, redirectURL string) *RenderHandler {
	return &RenderHandler{
		resumes:     resumes,
		objects:     objects,
		renderer:    renderer,
		redirectURL: redirectURL,
	}
}

// RenderResume 渲染当前用户最近的简历。人工访问在配置了预览地址时被重定向过去。
func (h *RenderHandler) RenderResume(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	if !session.Automated && h.redirectURL != "" {
		c.Redirect(http.StatusFound, h.redirectURL)
		return
	}

	log := middleware.LoggerFromContext(c).With(
		slog.Uint64("user_id", uint64(session.UserID)),
		slog.Bool("automated", session.Automated),
	)

	rec, err := h.resumes.GetLatest(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, database.ErrResumeNotFound) {
			Error(c, http.StatusNotFound, errcode.DocumentNotFound, "no saved resume")
			return
		}
		log.Error("render: load resume failed", slog.Any("error", err))
		Internal(c, "failed to load resume")
		return
	}

	doc, err := storage.InlinePhoto(c.Request.Context(), h.objects, session.UserID, rec.Document)
	if err != nil {
		log.Warn("render: photo unavailable, using placeholder", slog.Any("error", err))
	}

	page, err := h.renderer.Render(rec.TemplateID, doc, rec.Style)
	if err != nil {
		log.Error("render: template failed", slog.Any("error", err))
		Internal(c, "failed to render resume")
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "text/html; charset=utf-8", page.HTML)
}
