package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestLoginLimiterAllowsUpToBurst(t *testing.T) {
	l := NewLoginLimiter(rate.Every(time.Minute), 3)
	require.NoError(t, l.CheckAllow("anton"))
	require.NoError(t, l.CheckAllow("anton"))
	require.NoError(t, l.CheckAllow("anton"))
	require.Error(t, l.CheckAllow("anton"))
}

func TestLoginLimiterIsPerUsername(t *testing.T) {
	l := NewLoginLimiter(rate.Every(time.Minute), 1)
	require.NoError(t, l.CheckAllow("anton"))
	require.NoError(t, l.CheckAllow("stepan"))
}

func TestLoginLimiterReset(t *testing.T) {
	l := NewLoginLimiter(rate.Every(time.Minute), 1)
	require.NoError(t, l.CheckAllow("anton"))
	require.Error(t, l.CheckAllow("anton"))
	l.Reset("anton")
	require.NoError(t, l.CheckAllow("anton"))
}
