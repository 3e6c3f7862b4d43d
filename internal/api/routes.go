package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/auth"
	"resumeStudio/internal/export"
	"resumeStudio/internal/payment"
)

// Deps 汇总路由需要的依赖。
type Deps struct {
	Users       userStore
	Redis       redis.UniversalClient
	Logger      *slog.Logger
	AuthService *auth.AuthService
	Resumes     resumeStore
	Payments    paymentStore
	Objects     objectStore
	Renderer    renderer
	Capturer    export.Capturer
	Tasks       taskEnqueuer
	Scanner     Scanner
	Verifier    *payment.Verifier

	Auth               AuthOptions
	Export             ExportOptions
	PreviewRedirectURL string
	PaymentAmountMinor int64
	PaymentCurrency    string
}

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	authMiddleware := middleware.AuthMiddleware(deps.AuthService, deps.Export.SessionCookieName)

	authHandler := NewAuthHandler(deps.Users, deps.AuthService, deps.Redis, deps.Logger, deps.Auth)
	resumeHandler := NewResumeHandler(deps.Resumes, deps.Objects, deps.Renderer, deps.Tasks)
	exportHandler := NewExportHandler(deps.Resumes, deps.Payments, deps.Objects, deps.Renderer, deps.Capturer, deps.Export)
	renderHandler := NewRenderHandler(deps.Resumes, deps.Objects, deps.Renderer, deps.PreviewRedirectURL)
	templateHandler := NewTemplateHandler(deps.Renderer)
	paymentHandler := NewPaymentHandler(deps.Payments, deps.Verifier, deps.PaymentAmountMinor, deps.PaymentCurrency)
	assetHandler := NewAssetHandler(deps.Objects, deps.Scanner, deps.Logger)

	// 仅供无头浏览器截图使用的渲染页面。
	router.GET(RenderRoute, authMiddleware, renderHandler.RenderResume)

	v1 := router.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.POST("/password", authMiddleware, authHandler.ChangePassword)
		}

		v1.GET("/templates", templateHandler.ListTemplates)

		resumeGroup := v1.Group("/resume")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.GET("/latest", resumeHandler.GetLatestResume)
			resumeGroup.PUT("", resumeHandler.SaveResume)
			resumeGroup.GET("/preview", resumeHandler.GetPreview)
			resumeGroup.POST("/export", exportHandler.Export)
		}

		paymentGroup := v1.Group("/payments")
		paymentGroup.Use(authMiddleware)
		{
			paymentGroup.POST("/order", paymentHandler.CreateOrder)
			paymentGroup.POST("/verify", paymentHandler.VerifyPayment)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/photo", assetHandler.UploadPhoto)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("", assetHandler.DeletePhoto)
		}
	}
}
