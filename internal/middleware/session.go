package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	SessionCookie = "sessionid"
	claimsKey     = "session_claims"
)

var ErrSessionRevoked = errors.New("session revoked")

type SessionConfig struct {
	Secret      string
	TTL         time.Duration
	RememberTTL time.Duration
	Secure      bool
}

// SessionManager issues signed session tokens and keeps a Redis denylist of
// logged-out token ids. Without Redis, logout only clears the cookie.
type SessionManager struct {
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
	secure      bool
	redisClient *redis.Client
}

func NewSessionManager(cfg SessionConfig, redisClient *redis.Client) *SessionManager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RememberTTL <= 0 {
		cfg.RememberTTL = 30 * 24 * time.Hour
	}
	return &SessionManager{
		secret:      []byte(cfg.Secret),
		ttl:         cfg.TTL,
		rememberTTL: cfg.RememberTTL,
		secure:      cfg.Secure,
		redisClient: redisClient,
	}
}

// Issue signs a token for userID and stores it in the session cookie.
func (m *SessionManager) Issue(c *gin.Context, userID uuid.UUID, remember bool) (string, error) {
	ttl := m.ttl
	if remember {
		ttl = m.rememberTTL
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}

	m.setCookie(c, signed, int(ttl.Seconds()))
	return signed, nil
}

// Parse validates the token signature, expiry and revocation.
func (m *SessionManager) Parse(ctx context.Context, tokenString string) (*jwt.RegisteredClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if m.redisClient != nil && claims.ID != "" {
		revoked, err := m.redisClient.Exists(ctx, revokedKey(claims.ID)).Result()
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked > 0 {
			return nil, ErrSessionRevoked
		}
	}

	return claims, nil
}

// Revoke denylists the current session until it would have expired and clears the cookie.
func (m *SessionManager) Revoke(c *gin.Context) error {
	defer m.setCookie(c, "", -1)

	v, ok := c.Get(claimsKey)
	if !ok || m.redisClient == nil {
		return nil
	}
	claims, ok := v.(*jwt.RegisteredClaims)
	if !ok || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return m.redisClient.Set(c.Request.Context(), revokedKey(claims.ID), "1", ttl).Err()
}

func (m *SessionManager) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, value, maxAge, "/", "", m.secure, true)
}

func revokedKey(id string) string {
	return fmt.Sprintf("session:revoked:%s", id)
}
