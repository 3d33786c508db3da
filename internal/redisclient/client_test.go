package redisclient

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyPrefix(t *testing.T) {
	c := &Client{prefix: "storefront"}
	assert.Equal(t, "storefront:alice:ndi_cart", c.key("alice:ndi_cart"))

	bare := &Client{}
	assert.Equal(t, "ndi_cart", bare.key("ndi_cart"))
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires redis")
	}

	client, err := NewClient(addr, "", 0, "storefront-test")
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "ndi_session", []byte(`"u_1"`)))
	value, ok, err := client.Get(ctx, "ndi_session")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `"u_1"`, string(value))

	require.NoError(t, client.Delete(ctx, "ndi_session"))
	_, ok, err = client.Get(ctx, "ndi_session")
	require.NoError(t, err)
	assert.False(t, ok)
}
