package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/emberkv/emberkv/kverrors"
)

// LoginLimiter throttles repeated failed login attempts per username,
// backing the "too many attempts" lockout named in spec.md §4.11.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	r        rate.Limit
	burst    int
}

// NewLoginLimiter allows burst attempts immediately, then one more
// every 1/r seconds, per username.
func NewLoginLimiter(r rate.Limit, burst int) *LoginLimiter {
	return &LoginLimiter{limiters: make(map[string]*rate.Limiter), r: r, burst: burst}
}

// Allow reports whether username may attempt a login right now,
// consuming one token if so.
func (l *LoginLimiter) Allow(username string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[username]
	if !ok {
		lim = rate.NewLimiter(l.r, l.burst)
		l.limiters[username] = lim
	}
	return lim.Allow()
}

// CheckAllow returns an auth error of kind
// kverrors.KindAuthTooManyAttempts when username has exceeded its
// attempt budget, nil otherwise.
func (l *LoginLimiter) CheckAllow(username string) error {
	if l.Allow(username) {
		return nil
	}
	return kverrors.AuthError(kverrors.KindAuthTooManyAttempts, "auth: too many login attempts for "+username)
}

// Reset clears username's limiter state, e.g. after a successful login.
func (l *LoginLimiter) Reset(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, username)
}

// DefaultLoginLimiter allows 5 attempts immediately, then one every
// 10 seconds thereafter.
func DefaultLoginLimiter() *LoginLimiter {
	return NewLoginLimiter(rate.Every(10*time.Second), 5)
}
