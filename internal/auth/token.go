// Package auth issues and verifies the JWTs handed to API clients.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/gau-id-api/internal/models"
)

// Token kinds carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrInvalidToken covers malformed, expired and wrongly typed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload used for both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
	Type string `json:"typ"`
}

// AccountID returns the numeric subject.
func (c Claims) AccountID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// TokenConfig controls signing and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// TokenManager signs and parses HS256 tokens.
type TokenManager struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenManager applies lifetime defaults of 24 hours for access tokens
// and 30 days for refresh tokens.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 24 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	return &TokenManager{cfg: cfg, now: time.Now}
}

// AccessTTL reports the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.cfg.AccessTTL
}

// IssueAccess signs an access token for account.
func (m *TokenManager) IssueAccess(account models.Account) (string, Claims, error) {
	return m.issue(account, TokenAccess, m.cfg.AccessTTL, m.cfg.AccessSecret)
}

// IssueRefresh signs a refresh token for account.
func (m *TokenManager) IssueRefresh(account models.Account) (string, Claims, error) {
	return m.issue(account, TokenRefresh, m.cfg.RefreshTTL, m.cfg.RefreshSecret)
}

func (m *TokenManager) issue(account models.Account, kind string, ttl time.Duration, secret string) (string, Claims, error) {
	now := m.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(account.ID), 10),
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(account.Role),
		Type: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", Claims{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, claims, nil
}

// ParseAccess validates an access token.
func (m *TokenManager) ParseAccess(token string) (Claims, error) {
	return m.parse(token, TokenAccess, m.cfg.AccessSecret)
}

// ParseRefresh validates a refresh token.
func (m *TokenManager) ParseRefresh(token string) (Claims, error) {
	return m.parse(token, TokenRefresh, m.cfg.RefreshSecret)
}

func (m *TokenManager) parse(token, kind, secret string) (Claims, error) {
	claims := Claims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Type != kind {
		return Claims{}, ErrInvalidToken
	}
	if _, err := claims.AccountID(); err != nil {
		return Claims{}, err
	}
	return claims, nil
}
