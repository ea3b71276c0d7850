package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetNX(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	key := DedupKey("history", "evt-1")
	assert.Equal(t, "dedup:history:evt-1", key)

	ok, err := c.SetNX(ctx, key, []byte("1"), TTLDedup)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, key, []byte("1"), TTLDedup)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	clock := time.Now()
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	clock = clock.Add(2 * time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	ok, _ := c.SetNX(ctx, "k", []byte("again"), time.Minute)
	assert.True(t, ok, "expired keys can be claimed again")
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	type product struct {
		Name string `json:"name"`
	}

	var out []product
	assert.ErrorIs(t, GetJSON(ctx, c, KeyCatalog, &out), ErrMiss)

	require.NoError(t, SetJSON(ctx, c, KeyCatalog, []product{{Name: "Pan"}}, TTLCatalog))
	require.NoError(t, GetJSON(ctx, c, KeyCatalog, &out))
	assert.Equal(t, []product{{Name: "Pan"}}, out)

	require.NoError(t, c.Delete(ctx, KeyCatalog))
	assert.ErrorIs(t, GetJSON(ctx, c, KeyCatalog, &out), ErrMiss)
}
