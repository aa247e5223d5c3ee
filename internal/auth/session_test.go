package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionCreateAndGet(t *testing.T) {
	m := NewSessionManager(DefaultSessionConfig())
	id, err := m.Create("anton", "127.0.0.1")
	require.NoError(t, err)

	data, err := m.Get(id, "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, "anton", data.Username)
}

func TestSessionIPMismatchRejected(t *testing.T) {
	m := NewSessionManager(DefaultSessionConfig())
	id, err := m.Create("anton", "127.0.0.1")
	require.NoError(t, err)

	_, err = m.Get(id, "10.0.0.1")
	require.Error(t, err)
}

func TestSessionIPValidationDisabled(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.ValidateIP = false
	m := NewSessionManager(cfg)
	id, err := m.Create("anton", "127.0.0.1")
	require.NoError(t, err)

	_, err = m.Get(id, "10.0.0.1")
	require.NoError(t, err)
}

func TestSessionExpiry(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.TTL = time.Millisecond
	m := NewSessionManager(cfg)
	id, err := m.Create("anton", "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = m.Get(id, "")
	require.Error(t, err)
}

func TestSessionMaxPerUserEvictsOldest(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.MaxSessionsPerUser = 2
	m := NewSessionManager(cfg)

	first, err := m.Create("anton", "")
	require.NoError(t, err)
	_, err = m.Create("anton", "")
	require.NoError(t, err)
	_, err = m.Create("anton", "")
	require.NoError(t, err)

	_, err = m.Get(first, "")
	require.Error(t, err, "oldest session should have been evicted once the cap was exceeded")
	require.Equal(t, 2, m.Count())
}

func TestSessionDestroy(t *testing.T) {
	m := NewSessionManager(DefaultSessionConfig())
	id, err := m.Create("anton", "")
	require.NoError(t, err)
	m.Destroy(id)

	_, err = m.Get(id, "")
	require.Error(t, err)
}

func TestCleanupExpiredSessions(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.TTL = time.Millisecond
	m := NewSessionManager(cfg)
	_, err := m.Create("anton", "")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, 1, m.CleanupExpired())
	require.Equal(t, 0, m.Count())
}
