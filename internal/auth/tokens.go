// Package auth implements spec.md §4.11: password-hashed users, an
// ACL rule grammar, session tracking with IP binding and per-user
// eviction, and signed access/refresh token pairs.
package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/emberkv/emberkv/kverrors"
)

// TokenClaims is the payload signed into every access/refresh token.
// Permissions is a comma-joined ACL rule list, matching the original
// implementation's wire shape for this field.
type TokenClaims struct {
	JTI         string `json:"jti"`
	Subject     string `json:"sub"`
	Permissions string `json:"permissions"`
	IssuedAt    int64  `json:"iat"`
	ExpiresAt   int64  `json:"exp"`
	TokenType   string `json:"token_type"`
}

// Valid implements jwt.Claims; golang-jwt calls this after signature
// verification succeeds.
func (c TokenClaims) Valid() error {
	if time.Now().Unix() > c.ExpiresAt {
		return kverrors.AuthError(kverrors.KindAuthSessionExpired, "auth: token expired")
	}
	return nil
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// TokenConfig controls token lifetimes and the HMAC signing secret.
type TokenConfig struct {
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	SecretKey    []byte
	CleanupEvery time.Duration
}

// DefaultTokenConfig mirrors the original's defaults: 15 minute access
// tokens, 7 day refresh tokens, hourly revocation-list cleanup.
func DefaultTokenConfig(secret []byte) TokenConfig {
	return TokenConfig{
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   7 * 24 * time.Hour,
		SecretKey:    secret,
		CleanupEvery: time.Hour,
	}
}

// TokenPair is the access/refresh pair returned on login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64 // seconds
}

// TokenManager issues, verifies, and revokes HMAC-SHA256 signed
// tokens. Revocation is tracked by JTI until the token's own
// expiry, after which CleanupExpired reclaims the entry.
type TokenManager struct {
	cfg TokenConfig

	mu      sync.RWMutex
	revoked map[string]int64 // jti -> exp (unix seconds)
}

// NewTokenManager builds a manager from cfg.
func NewTokenManager(cfg TokenConfig) *TokenManager {
	return &TokenManager{cfg: cfg, revoked: make(map[string]int64)}
}

// GenerateTokenPair issues a fresh access/refresh pair for username
// carrying the given ACL permission rules.
func (m *TokenManager) GenerateTokenPair(username string, permissions []string) (TokenPair, error) {
	now := time.Now().Unix()
	perms := joinRules(permissions)

	access := TokenClaims{
		JTI:         uuid.NewString(),
		Subject:     username,
		Permissions: perms,
		IssuedAt:    now,
		ExpiresAt:   now + int64(m.cfg.AccessTTL.Seconds()),
		TokenType:   tokenTypeAccess,
	}
	refresh := TokenClaims{
		JTI:         uuid.NewString(),
		Subject:     username,
		Permissions: perms,
		IssuedAt:    now,
		ExpiresAt:   now + int64(m.cfg.RefreshTTL.Seconds()),
		TokenType:   tokenTypeRefresh,
	}

	accessTok, err := m.sign(access)
	if err != nil {
		return TokenPair{}, err
	}
	refreshTok, err := m.sign(refresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  accessTok,
		RefreshToken: refreshTok,
		ExpiresIn:    int64(m.cfg.AccessTTL.Seconds()),
	}, nil
}

func (m *TokenManager) sign(claims TokenClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(m.cfg.SecretKey)
	if err != nil {
		return "", kverrors.AuthError(kverrors.KindInternal, "auth: sign token failed")
	}
	return signed, nil
}

// VerifyToken checks the signature, expiry, and revocation status of
// a token string and returns its claims.
func (m *TokenManager) VerifyToken(tokenString string) (TokenClaims, error) {
	var claims TokenClaims
	tok, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.cfg.SecretKey, nil
	})
	if err != nil || !tok.Valid {
		return TokenClaims{}, kverrors.AuthError(kverrors.KindAuthInvalidCreds, "auth: invalid token")
	}
	if m.IsRevoked(claims.JTI) {
		return TokenClaims{}, kverrors.AuthError(kverrors.KindAuthRevokedToken, "auth: token revoked")
	}
	return claims, nil
}

// RefreshAccessToken verifies a refresh token and issues a new pair.
func (m *TokenManager) RefreshAccessToken(refreshToken string) (TokenPair, error) {
	claims, err := m.VerifyToken(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return TokenPair{}, kverrors.AuthError(kverrors.KindAuthInvalidCreds, "auth: not a refresh token")
	}
	return m.GenerateTokenPair(claims.Subject, splitRules(claims.Permissions))
}

// RevokeToken adds jti to the revocation list until exp.
func (m *TokenManager) RevokeToken(jti string, exp int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[jti] = exp
}

// RevokeTokenString verifies token and revokes its JTI.
func (m *TokenManager) RevokeTokenString(tokenString string) error {
	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		return err
	}
	m.RevokeToken(claims.JTI, claims.ExpiresAt)
	return nil
}

// IsRevoked reports whether jti is on the revocation list.
func (m *TokenManager) IsRevoked(jti string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.revoked[jti]
	return ok
}

// RevokedCount returns the current revocation-list size.
func (m *TokenManager) RevokedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.revoked)
}

// CleanupExpired drops revocation entries whose token has already
// naturally expired, and returns how many were removed.
func (m *TokenManager) CleanupExpired() int {
	now := time.Now().Unix()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for jti, exp := range m.revoked {
		if exp <= now {
			delete(m.revoked, jti)
			removed++
		}
	}
	return removed
}

func joinRules(rules []string) string {
	out := ""
	for i, r := range rules {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out
}

func splitRules(joined string) []string {
	if joined == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(joined); i++ {
		if i == len(joined) || joined[i] == ',' {
			out = append(out, joined[start:i])
			start = i + 1
		}
	}
	return out
}
