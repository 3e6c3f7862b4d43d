package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumeStudio/internal/auth"
	"resumeStudio/internal/errcode"
)

const sessionKey = "session"

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errcode.Unauthorized, "message": "unauthorized"})
}

// AuthMiddleware 从会话 Cookie（或 Bearer 头）校验访问令牌，并把 *auth.Session 注入上下文。
// 携带自动化标记头的请求在会话上标记为 Automated。
func AuthMiddleware(authService *auth.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken := tokenFromRequest(c, cookieName)
		if rawToken == "" {
			abortUnauthorized(c)
			return
		}

		session, err := authService.Authenticate(rawToken, c.GetHeader(auth.AutomationHeader))
		if err != nil {
			LoggerFromContext(c).Debug("reject session", slog.Any("error", err))
			abortUnauthorized(c)
			return
		}

		c.Set(sessionKey, session)
		c.Set("userID", session.UserID)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if cookieName != "" {
		if token, err := c.Cookie(cookieName); err == nil && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}

	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// SetSession 把会话写入上下文，测试中替代 AuthMiddleware。
func SetSession(c *gin.Context, session *auth.Session) {
	c.Set(sessionKey, session)
	c.Set("userID", session.UserID)
}

// SessionFromContext 返回 AuthMiddleware 注入的会话。
func SessionFromContext(c *gin.Context) (*auth.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*auth.Session)
	return session, ok && session != nil
}
