package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumeStudio/internal/auth"
)

const refreshTokenCookieName = "refresh_token"

// cookieJar writes the session (access token) and refresh cookies.
type cookieJar struct {
	session string
	domain  string
}

func (j cookieJar) set(c *gin.Context, pair auth.TokenPair, accessTTL, refreshTTL time.Duration) {
	j.write(c, j.session, pair.AccessToken, accessTTL)
	j.write(c, refreshTokenCookieName, pair.RefreshToken, refreshTTL)
}

func (j cookieJar) clear(c *gin.Context) {
	for _, name := range []string{refreshTokenCookieName, j.session} {
		j.write(c, name, "", -1)
	}
}

// write 以 HttpOnly + SameSite=Lax 写入 Cookie；ttl < 0 表示删除。
func (j cookieJar) write(c *gin.Context, name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   j.domain,
		Secure:   requestIsHTTPS(c.Request),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	switch {
	case ttl < 0:
		cookie.MaxAge = -1
	case ttl == 0:
		ttl = time.Hour
		fallthrough
	default:
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = time.Now().Add(ttl)
	}
	http.SetCookie(c.Writer, cookie)
}

func requestIsHTTPS(r *http.Request) bool {
	if r == nil {
		return false
	}
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// refreshRevocations 是 redis 中的刷新令牌黑名单，按 jti 记录，过期时间与令牌一致。
// redis 为 nil 时不记录也不拦截。
type refreshRevocations struct {
	redis       redis.UniversalClient
	fallbackTTL time.Duration
}

func revocationKey(jti string) string { return "auth:refresh:blacklist:" + jti }

func (r *refreshRevocations) Contains(ctx context.Context, jti string) (bool, error) {
	if r.redis == nil {
		return false, nil
	}
	err := r.redis.Get(ctx, revocationKey(jti)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return err == nil, err
}

func (r *refreshRevocations) Add(ctx context.Context, claims *auth.TokenClaims) error {
	if r.redis == nil {
		return nil
	}
	ttl := r.fallbackTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return r.redis.Set(ctx, revocationKey(claims.ID), "revoked", ttl).Err()
}
