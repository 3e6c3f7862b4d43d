package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumeStudio/internal/auth"
)

func newAuthService(t *testing.T) *auth.AuthService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privatePEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := auth.NewAuthService(privatePEM, publicPEM, time.Hour, time.Hour, "capture-secret")
	require.NoError(t, err)
	return svc
}

func newSessionRouter(svc *auth.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(svc, "session"), func(c *gin.Context) {
		session, ok := SessionFromContext(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": session.UserID, "automated": session.Automated})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	svc := newAuthService(t)
	pair, err := svc.GenerateTokenPair(11)
	require.NoError(t, err)
	router := newSessionRouter(svc)

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "no credentials",
			prepare:  func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
			wantBody: `{"error":"UNAUTHORIZED","message":"unauthorized"}`,
		},
		{
			name: "session cookie",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "session", Value: pair.AccessToken})
			},
			wantCode: http.StatusOK,
			wantBody: `{"user":11,"automated":false}`,
		},
		{
			name: "bearer header",
			prepare: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer "+pair.AccessToken)
			},
			wantCode: http.StatusOK,
			wantBody: `{"user":11,"automated":false}`,
		},
		{
			name: "automation marker",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "session", Value: pair.AccessToken})
				r.Header.Set(auth.AutomationHeader, "capture-secret")
			},
			wantCode: http.StatusOK,
			wantBody: `{"user":11,"automated":true}`,
		},
		{
			name: "marker without session",
			prepare: func(r *http.Request) {
				r.Header.Set(auth.AutomationHeader, "capture-secret")
			},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "refresh token is not a session",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "session", Value: pair.RefreshToken})
			},
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}
