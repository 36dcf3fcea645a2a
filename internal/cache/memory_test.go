package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemory_SetGetConsume(t *testing.T) {
	c := NewMemory("t")
	ctx := context.Background()

	require.ErrorIs(t, c.Set(ctx, "k", []byte("v"), 0), ErrInvalidTTL)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	got, err = c.Consume(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", string(got))

	_, err = c.Consume(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)
	ok, _ := c.Exists(ctx, "k")
	require.False(t, ok)
}

func TestMemory_TTLExpiry(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	_, err := c.Consume(ctx, "k")
	require.True(t, IsNotFound(err))
}

func TestMemory_ConcurrentConsumeSingleWinner(t *testing.T) {
	c := NewMemory("")
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		require.NoError(t, c.Set(ctx, "code", []byte("payload"), time.Minute))

		var (
			wg       sync.WaitGroup
			wins     atomic.Int32
			notFound atomic.Int32
		)
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				v, err := c.Consume(ctx, "code")
				switch {
				case err == nil && string(v) == "payload":
					wins.Add(1)
				case IsNotFound(err):
					notFound.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()
		require.EqualValues(t, 1, wins.Load())
		require.EqualValues(t, 7, notFound.Load())
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{Driver: "memcached"})
	require.Error(t, err)
}
