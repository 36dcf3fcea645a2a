package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Requiere IDGATE_TEST_REDIS_ADDR=localhost:6379.
func TestRedis_ConsumeIsAtomic(t *testing.T) {
	addr := os.Getenv("IDGATE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IDGATE_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := DialRedis(ctx, Config{Addr: addr, Prefix: "idgate-test"})
	require.NoError(t, err)
	defer c.Close()

	key := uuid.NewString()
	require.NoError(t, c.Set(ctx, key, []byte("v"), time.Minute))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Consume(ctx, key); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, wins.Load())

	_, err = c.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)
}
