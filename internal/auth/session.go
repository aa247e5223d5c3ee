package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emberkv/emberkv/kverrors"
)

// SessionID identifies a single login session.
type SessionID string

// NewSessionID mints a fresh random session ID.
func NewSessionID() SessionID { return SessionID(uuid.NewString()) }

// SessionData tracks one user's session lifetime and originating IP.
type SessionData struct {
	Username     string
	IPAddress    string // empty means unrecorded
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

func newSessionData(username, ip string, ttl time.Duration) SessionData {
	now := time.Now()
	return SessionData{
		Username:     username,
		IPAddress:    ip,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(ttl),
	}
}

// IsExpired reports whether the session has passed its expiry.
func (s SessionData) IsExpired() bool { return !time.Now().Before(s.ExpiresAt) }

// UpdateActivity bumps LastActivity and slides ExpiresAt forward by ttl.
func (s *SessionData) UpdateActivity(ttl time.Duration) {
	s.LastActivity = time.Now()
	s.ExpiresAt = s.LastActivity.Add(ttl)
}

// ValidateIP reports whether requestIP is consistent with the
// session's recorded IP. An unrecorded session IP, or an unrecorded
// request IP, always passes — IP binding is opportunistic, not a hard
// requirement, per the original's semantics.
func (s SessionData) ValidateIP(requestIP string) bool {
	if s.IPAddress == "" || requestIP == "" {
		return true
	}
	return s.IPAddress == requestIP
}

// TimeUntilExpiry returns how long remains before expiry, or zero if
// already expired.
func (s SessionData) TimeUntilExpiry() time.Duration {
	d := time.Until(s.ExpiresAt)
	if d < 0 {
		return 0
	}
	return d
}

// SessionConfig controls session lifetime, IP enforcement, and the
// per-user session cap.
type SessionConfig struct {
	TTL                time.Duration
	MaxSessionsPerUser int // 0 means unlimited
	ValidateIP         bool
	CleanupInterval    time.Duration
}

// DefaultSessionConfig mirrors the original's defaults: 1 hour TTL,
// 5 sessions per user, IP validation on, 5 minute cleanup sweeps.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:                time.Hour,
		MaxSessionsPerUser: 5,
		ValidateIP:         true,
		CleanupInterval:    5 * time.Minute,
	}
}

// SessionManager tracks live sessions, enforcing a per-user cap via
// LRU eviction of the least-recently-active session once the cap is
// exceeded.
type SessionManager struct {
	cfg SessionConfig

	mu       sync.Mutex
	sessions map[SessionID]*SessionData
	byUser   map[string]*lru.Cache[SessionID, struct{}]
}

// NewSessionManager builds a manager from cfg.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		sessions: make(map[SessionID]*SessionData),
		byUser:   make(map[string]*lru.Cache[SessionID, struct{}]),
	}
}

// Create starts a new session for username, evicting the user's
// least-recently-active session first if MaxSessionsPerUser would
// otherwise be exceeded.
func (m *SessionManager) Create(username, ip string) (SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := NewSessionID()
	data := newSessionData(username, ip, m.cfg.TTL)
	m.sessions[id] = &data

	if m.cfg.MaxSessionsPerUser <= 0 {
		return id, nil
	}

	cache, ok := m.byUser[username]
	if !ok {
		var err error
		cache, err = lru.NewWithEvict[SessionID, struct{}](m.cfg.MaxSessionsPerUser, func(evictedID SessionID, _ struct{}) {
			delete(m.sessions, evictedID)
		})
		if err != nil {
			return "", kverrors.Internal("auth: failed to build session LRU")
		}
		m.byUser[username] = cache
	}
	cache.Add(id, struct{}{})
	return id, nil
}

// Get returns the session for id if it exists and is not expired,
// optionally validating requestIP against it and sliding its TTL
// forward.
func (m *SessionManager) Get(id SessionID, requestIP string) (SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.sessions[id]
	if !ok {
		return SessionData{}, kverrors.AuthError(kverrors.KindAuthSessionExpired, "auth: session not found")
	}
	if data.IsExpired() {
		delete(m.sessions, id)
		return SessionData{}, kverrors.AuthError(kverrors.KindAuthSessionExpired, "auth: session expired")
	}
	if m.cfg.ValidateIP && !data.ValidateIP(requestIP) {
		return SessionData{}, kverrors.AuthError(kverrors.KindAuthInvalidCreds, "auth: session IP mismatch")
	}
	data.UpdateActivity(m.cfg.TTL)
	if cache, ok := m.byUser[data.Username]; ok {
		cache.Get(id) // mark as most recently active for per-user eviction
	}
	return *data, nil
}

// Destroy removes a session immediately (logout).
func (m *SessionManager) Destroy(id SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// CleanupExpired removes every session past its expiry, returning the
// count removed. Intended to be driven by a ticking goroutine at
// cfg.CleanupInterval.
func (m *SessionManager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, data := range m.sessions {
		if data.IsExpired() {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Count returns the number of currently tracked sessions (including
// any not yet swept past expiry).
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
