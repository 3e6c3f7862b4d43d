package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/render"
)

func TestListTemplates(t *testing.T) {
	r := gin.New()
	r.GET("/v1/templates", NewTemplateHandler(render.Default()).ListTemplates)

	w := doJSON(t, r, http.MethodGet, "/v1/templates", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Default   string        `json:"default"`
		Templates []render.Info `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "modern-minimal", body.Default)
	require.Len(t, body.Templates, 5)

	ids := make([]string, 0, len(body.Templates))
	for _, tpl := range body.Templates {
		ids = append(ids, string(tpl.ID))
	}
	assert.ElementsMatch(t, []string{
		"creative-photo", "executive-pro", "modern-minimal", "modern-minimal-photo", "tech-focused",
	}, ids)
}
