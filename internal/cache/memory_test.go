package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKeyExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 10*time.Millisecond))
	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok, err = m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryHashExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.HSet(ctx, "pool", "a", "1"))
	require.NoError(t, m.Expire(ctx, "pool", 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	all, err := m.HGetAll(ctx, "pool")
	require.NoError(t, err)
	assert.Empty(t, all)
}

// TestMemoryHDelCount verifies the claim primitive: exactly one concurrent
// deleter of the same field sees a removal count of 1.
func TestMemoryHDelCount(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.HSet(ctx, "pool", "entry", "x"))

	const n = 16
	var wg sync.WaitGroup
	winners := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := m.HDel(ctx, "pool", "entry")
			if err == nil && count == 1 {
				winners <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(winners)

	total := 0
	for range winners {
		total++
	}
	assert.Equal(t, 1, total)
}
