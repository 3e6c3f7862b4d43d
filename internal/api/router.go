package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/metrics"
)

// HealthCheck 是 /health 使用的依赖探测。
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter 构建 Gin 路由引擎，挂载公共中间件、健康检查与指标端点。
func NewRouter(logger *slog.Logger, checks ...HealthCheck) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
		gin.Recovery(),
	)

	router.GET("/health", healthHandler(checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

func healthHandler(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for _, hc := range checks {
			if err := hc.Check(ctx); err != nil {
				middleware.LoggerFromContext(c).Warn("health check failed", slog.String("check", hc.Name), slog.Any("error", err))
				results[hc.Name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			results[hc.Name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "checks": results})
	}
}
