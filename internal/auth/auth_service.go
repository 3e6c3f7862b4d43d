package auth

import (
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AutomationHeader 由导出流程的无头浏览器携带，值为配置的自动化密钥。
const AutomationHeader = "X-Resume-Capture"

// Token types carried in TokenClaims.TokenType.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// AuthService 负责 JWT 生成与校验，并识别自动化截图会话。
type AuthService struct {
	privateKey       *rsa.PrivateKey
	publicKey        *rsa.PublicKey
	accessTokenTTL   time.Duration
	refreshTokenTTL  time.Duration
	automationSecret []byte
	parser           *jwt.Parser
}

// TokenPair 封装访问令牌与刷新令牌。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenClaims 表示 JWT 中的业务字段，便于中间件读取用户信息。
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller as seen by handlers.
type Session struct {
	UserID uint
	// Automated is true for headless capture traversal carrying the automation marker.
	Automated bool
	// Token is the raw access token, forwarded as the session cookie during capture.
	Token     string
	ExpiresAt time.Time
}

// NewAuthService 解析 PEM 密钥并构造服务实例。publicKeyPEM 可为空。
func NewAuthService(privateKeyPEM, publicKeyPEM []byte, accessTTL, refreshTTL time.Duration, automationSecret string) (*AuthService, error) {
	privateKey, publicKey, err := loadKeys(privateKeyPEM, publicKeyPEM)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		privateKey:       privateKey,
		publicKey:        publicKey,
		accessTokenTTL:   accessTTL,
		refreshTokenTTL:  refreshTTL,
		automationSecret: []byte(strings.TrimSpace(automationSecret)),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// GenerateTokenPair 签发一对令牌，两者 jti 不同。
func (s *AuthService) GenerateTokenPair(userID uint) (TokenPair, error) {
	now := time.Now()
	access, err := s.sign(userID, TokenTypeAccess, now, s.accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, TokenTypeRefresh, now, s.refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sign(userID uint, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := TokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateToken 校验签名（仅 RS256）与有效期，返回令牌中的声明。
func (s *AuthService) ValidateToken(tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, errors.New("empty token")
	}
	var claims TokenClaims
	if _, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.publicKey, nil
	}); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return &claims, nil
}

// Authenticate 校验访问令牌并构造会话；marker 为请求中的自动化标记头。
func (s *AuthService) Authenticate(accessToken, marker string) (*Session, error) {
	claims, err := s.ValidateToken(accessToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("token type %q is not an access token", claims.TokenType)
	}

	session := &Session{
		UserID:    claims.UserID,
		Automated: s.IsAutomated(marker),
		Token:     accessToken,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, nil
}

// IsAutomated compares the marker against the automation secret in constant time.
// An unset secret never matches.
func (s *AuthService) IsAutomated(marker string) bool {
	if len(s.automationSecret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(marker)), s.automationSecret) == 1
}

// AutomationSecret returns the marker value headless capture must send.
func (s *AuthService) AutomationSecret() string {
	return string(s.automationSecret)
}

// AccessTokenTTL 暴露访问令牌有效期。
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

// RefreshTokenTTL 暴露刷新令牌有效期。
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.refreshTokenTTL
}
