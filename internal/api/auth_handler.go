package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/api/middleware"
	"resumeStudio/internal/auth"
	"resumeStudio/internal/database"
)

// AuthOptions 描述登录限流与 Cookie 设置。
type AuthOptions struct {
	LoginRateLimitPerHour int
	LoginLockThreshold    int
	LoginLockTTL          time.Duration
	CookieDomain          string
	SessionCookieName     string
}

// AuthHandler 处理注册、登录、刷新与退出。
type AuthHandler struct {
	users   userStore
	tokens  *auth.AuthService
	limiter *loginLimiter
	revoked *refreshRevocations
	cookies cookieJar
	logger  *slog.Logger
}

// NewAuthHandler wires the handler. redisClient may be nil, which disables
// login throttling and refresh-token revocation.
func NewAuthHandler(users userStore, tokens *auth.AuthService, redisClient redis.UniversalClient, logger *slog.Logger, opts AuthOptions) *AuthHandler {
	if opts.SessionCookieName == "" {
		opts.SessionCookieName = "session"
	}
	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		limiter: newLoginLimiter(redisClient, opts),
		revoked: &refreshRevocations{redis: redisClient, fallbackTTL: tokens.RefreshTokenTTL()},
		cookies: cookieJar{session: opts.SessionCookieName, domain: strings.TrimSpace(opts.CookieDomain)},
		logger:  logger,
	}
}

type credentials struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Register 创建新账号。
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	log := h.log(c).With(slog.String("username", req.Username))

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Error("hash password", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.Username, hashed)
	switch {
	case errors.Is(err, database.ErrUsernameTaken):
		Conflict(c, "username already taken")
		return
	case err != nil:
		log.Error("register", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	log.Info("account created", slog.Uint64("user_id", uint64(user.ID)))
	c.Status(http.StatusCreated)
}

// Login 校验口令，设置会话 Cookie 并返回 access token。
// 自动化截图请求永远拿不到令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	if h.rejectAutomation(c) {
		return
	}
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	log := h.log(c).With(slog.String("username", req.Username))

	switch h.limiter.Check(ctx, c.ClientIP(), req.Username) {
	case limitRate:
		TooManyRequests(c, "rate limit exceeded")
		return
	case limitLocked:
		TooManyRequests(c, "account temporarily locked")
		return
	}

	user, err := h.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		log.Error("login lookup", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		log.Info("login rejected")
		h.limiter.Fail(ctx, req.Username)
		Unauthorized(c)
		return
	}
	h.limiter.Succeed(ctx, req.Username)

	log.Info("login", slog.Uint64("user_id", uint64(user.ID)))
	h.issue(c, user.ID)
}

// Refresh 用刷新令牌换一对新令牌，旧的刷新令牌随即作废。
func (h *AuthHandler) Refresh(c *gin.Context) {
	if h.rejectAutomation(c) {
		return
	}
	ctx := c.Request.Context()
	log := h.log(c)

	claims, ok := h.refreshClaims(c)
	if !ok {
		Unauthorized(c)
		return
	}
	revoked, err := h.revoked.Contains(ctx, claims.ID)
	if err != nil {
		log.Error("revocation lookup", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if revoked {
		log.Info("refresh token reused", slog.String("jti", claims.ID))
		Unauthorized(c)
		return
	}

	user, err := h.users.FindByID(ctx, claims.UserID)
	if err != nil {
		log.Info("refresh for unknown user", slog.Any("error", err))
		Unauthorized(c)
		return
	}
	if err := h.revoked.Add(ctx, claims); err != nil {
		log.Error("revoke rotated refresh token", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.issue(c, user.ID)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ChangePassword 校验当前密码后更新密码，并作废当前的刷新令牌。
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	switch {
	case req.NewPassword != req.ConfirmPassword:
		BadRequest(c, "password confirmation does not match")
		return
	case req.NewPassword == req.CurrentPassword:
		BadRequest(c, "new password must be different from current password")
		return
	}

	ctx := c.Request.Context()
	log := h.log(c).With(slog.Uint64("user_id", uint64(userID)))

	user, err := h.users.FindByID(ctx, userID)
	if err != nil || !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		Unauthorized(c)
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err == nil {
		err = h.users.SetPassword(ctx, user.ID, hashed)
	}
	if err != nil {
		log.Error("change password", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if claims, ok := h.refreshClaims(c); ok {
		if err := h.revoked.Add(ctx, claims); err != nil {
			log.Error("revoke refresh token", slog.Any("error", err))
			Internal(c, "internal error")
			return
		}
	}
	log.Info("password changed")
	h.issue(c, user.ID)
}

// Logout 作废刷新令牌并清除两个 Cookie。
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, ok := h.refreshClaims(c)
	if !ok {
		Unauthorized(c)
		return
	}
	if err := h.revoked.Add(c.Request.Context(), claims); err != nil {
		h.log(c).Error("logout", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.cookies.clear(c)
	c.Status(http.StatusOK)
}

func (h *AuthHandler) issue(c *gin.Context, userID uint) {
	pair, err := h.tokens.GenerateTokenPair(userID)
	if err != nil {
		h.log(c).Error("generate token pair", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	h.cookies.set(c, pair, h.tokens.AccessTokenTTL(), h.tokens.RefreshTokenTTL())
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokens.AccessTokenTTL().Seconds()),
	})
}

// refreshClaims 从 Cookie 或请求体取出刷新令牌并校验；必须是带 jti 的 refresh 类型。
func (h *AuthHandler) refreshClaims(c *gin.Context) (*auth.TokenClaims, bool) {
	raw, err := c.Cookie(refreshTokenCookieName)
	if err != nil || raw == "" {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if c.ShouldBindJSON(&body) == nil {
			raw = body.RefreshToken
		}
	}
	if raw == "" {
		return nil, false
	}
	claims, err := h.tokens.ValidateToken(raw)
	if err != nil || claims.TokenType != auth.TokenTypeRefresh || claims.ID == "" {
		return nil, false
	}
	return claims, true
}

func (h *AuthHandler) rejectAutomation(c *gin.Context) bool {
	if c.GetHeader(auth.AutomationHeader) == "" {
		return false
	}
	h.log(c).Warn("token issuance refused for automated request")
	Forbidden(c, "automated requests cannot obtain sessions")
	return true
}

func (h *AuthHandler) log(c *gin.Context) *slog.Logger {
	if l := middleware.LoggerFromContext(c); l != nil {
		return l
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
