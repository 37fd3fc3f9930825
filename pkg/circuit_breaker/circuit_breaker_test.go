package circuit_breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_circuitBreaker_Call(t *testing.T) {
	t.Parallel()
	var (
		ok      = func() error { return nil }
		failing = func() error { return errors.New("broker down") }
		now     = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	)
	cb := New(Config{RecordLength: 4, Timeout: time.Second, Percentile: 0.5, RecoveryRequests: 2}).(*circuitBreaker)
	cb.now = func() time.Time { return now }

	for i := 0; i < 4; i++ {
		require.NoError(t, cb.Call(ok))
	}
	require.Equal(t, Closed, cb.State())

	require.Error(t, cb.Call(failing))
	require.Equal(t, Closed, cb.State())
	require.Error(t, cb.Call(failing))
	require.Equal(t, Open, cb.State())

	// open: the service is not called at all
	called := false
	err := cb.Call(func() error { called = true; return nil })
	require.ErrorIs(t, err, ErrOpenCB)
	require.False(t, called)

	// after the timeout a failed probe opens it again
	now = now.Add(2 * time.Second)
	require.Error(t, cb.Call(failing))
	require.Equal(t, Open, cb.State())

	now = now.Add(2 * time.Second)
	require.NoError(t, cb.Call(ok))
	require.Equal(t, HalfOpen, cb.State())
	require.NoError(t, cb.Call(ok))
	require.Equal(t, Closed, cb.State())
}
