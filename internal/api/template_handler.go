package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/resume"
)

// TemplateHandler 列出可选的简历模板。
type TemplateHandler struct {
	renderer renderer
}

func NewTemplateHandler(renderer renderer) *TemplateHandler {
	return &TemplateHandler{renderer: renderer}
}

// ListTemplates GET /v1/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":   resume.DefaultTemplate,
		"templates": h.renderer.Templates(),
	})
}
