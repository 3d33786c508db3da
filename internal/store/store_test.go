package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(NewMemory())

	require.NoError(t, repo.Save(ctx, KeyCart, []line{{ID: "p1", Qty: 2}}))

	cart, err := Load(ctx, repo, KeyCart, []line{})
	require.NoError(t, err)
	assert.Equal(t, []line{{ID: "p1", Qty: 2}}, cart)
}

func TestLoadMissingKeyReturnsDefault(t *testing.T) {
	repo := NewRepository(NewMemory())

	users, err := Load(context.Background(), repo, KeyUsers, []line{})
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestLoadUnparsableValueDegradesToDefault(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()
	require.NoError(t, kv.Set(ctx, KeyReviews, []byte("{not json")))

	reviews, err := Load(ctx, NewRepository(kv), KeyReviews, map[string][]line{})
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestScopeIsolatesNamespaces(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	alice := NewRepository(Scope(kv, "alice"))
	bob := NewRepository(Scope(kv, "bob"))

	require.NoError(t, alice.Save(ctx, KeySession, "u_alice"))

	session, err := Load(ctx, bob, KeySession, "")
	require.NoError(t, err)
	assert.Equal(t, "", session)

	raw, ok, err := kv.Get(ctx, "alice:"+KeySession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `"u_alice"`, string(raw))
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	value := []byte(`"a"`)
	require.NoError(t, kv.Set(ctx, "k", value))
	value[1] = 'b'

	got, _, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `"a"`, string(got))

	require.NoError(t, kv.Delete(ctx, "k"))
	_, ok, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgresRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database")
	}

	pg, err := NewPostgres(url)
	require.NoError(t, err)
	defer pg.Close()

	ctx := context.Background()
	repo := NewRepository(Scope(pg, "test"))

	require.NoError(t, repo.Save(ctx, KeyCoupon, "NDI10"))
	coupon, err := Load(ctx, repo, KeyCoupon, "")
	require.NoError(t, err)
	assert.Equal(t, "NDI10", coupon)

	require.NoError(t, repo.Delete(ctx, KeyCoupon))
	coupon, err = Load(ctx, repo, KeyCoupon, "")
	require.NoError(t, err)
	assert.Equal(t, "", coupon)
}
