package rate

import (
	"context"
	"os"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := NewMemoryLimiter()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }
	rule := Rule{Limit: 3, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "login:1.2.3.4", rule)
		require.NoError(t, err)
		require.True(t, res.Allowed)
		require.EqualValues(t, 2-i, res.Remaining)
	}
	res, err := l.Allow(ctx, "login:1.2.3.4", rule)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, time.Minute, res.RetryAfter)

	// otra key no comparte ventana
	res, err = l.Allow(ctx, "login:5.6.7.8", rule)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	// ventana siguiente
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	res, err = l.Allow(ctx, "login:1.2.3.4", rule)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestDisabledRuleAlwaysAllows(t *testing.T) {
	l := NewMemoryLimiter()
	for i := 0; i < 10; i++ {
		res, err := l.Allow(context.Background(), "k", Rule{})
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("IDGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IDGATE_TEST_REDIS_ADDR not set")
	}
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "rl-test:"+time.Now().Format("150405.000000")+":")
	rule := Rule{Limit: 2, Window: time.Minute}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "otp:u1", rule)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "otp:u1", rule)
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Greater(t, res.RetryAfter, time.Duration(0))
}
