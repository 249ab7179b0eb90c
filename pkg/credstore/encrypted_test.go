package credstore_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/fleetadmin/pkg/credstore"
	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func fullSession() credstore.Session {
	return credstore.Session{
		AccessToken:  "T1",
		RefreshToken: "R1",
		Role:         "admin",
		UserID:       "u-1",
		Username:     "dispatch",
		FCMToken:     "fcm-1",
	}
}

func newEncrypted(t *testing.T, backend credstore.Backend, namespace string) *credstore.EncryptedStore {
	t.Helper()
	c, err := cryptox.NewCipher([]byte("test-encryption-key"), namespace)
	require.NoError(t, err)
	return credstore.NewEncryptedStore(backend, c, namespace)
}

func TestEncryptedStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := credstore.NewMemoryBackend()
	store := newEncrypted(t, backend, "fleetadmin")

	empty, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, empty.IsZero())

	require.NoError(t, store.Set(ctx, fullSession()))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, fullSession(), got)

	// Values at rest are sealed, never plaintext
	raw, err := backend.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	require.Len(t, raw, len(credstore.Fields))
	require.NotEqual(t, []byte("T1"), raw[credstore.FieldToken])
	require.NotContains(t, string(raw[credstore.FieldRefreshToken]), "R1")
}

func TestEncryptedStoreSetDropsEmptyFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := credstore.NewMemoryBackend()
	store := newEncrypted(t, backend, "fleetadmin")

	require.NoError(t, store.Set(ctx, fullSession()))

	s := fullSession()
	s.FCMToken = ""
	require.NoError(t, store.Set(ctx, s))

	raw, err := backend.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	require.NotContains(t, raw, credstore.FieldFCMToken)

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestEncryptedStoreClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := credstore.NewMemoryBackend()
	store := newEncrypted(t, backend, "fleetadmin")
	other := newEncrypted(t, backend, "other")

	require.NoError(t, store.Set(ctx, fullSession()))
	require.NoError(t, other.Set(ctx, fullSession()))

	require.NoError(t, store.Clear(ctx))

	raw, err := backend.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	for _, field := range credstore.Fields {
		require.NotContains(t, raw, field)
	}

	// Clearing again is a no-op
	require.NoError(t, store.Clear(ctx))

	// Other namespaces are untouched
	got, err := other.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, fullSession(), got)
}

func TestEncryptedStoreRejectsForeignValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	backend := credstore.NewMemoryBackend()
	store := newEncrypted(t, backend, "fleetadmin")
	require.NoError(t, store.Set(ctx, fullSession()))

	raw, err := backend.Load(ctx, "fleetadmin")
	require.NoError(t, err)

	// Swap the sealed refresh token into the access token slot
	raw[credstore.FieldToken] = raw[credstore.FieldRefreshToken]
	require.NoError(t, backend.Replace(ctx, "fleetadmin", raw))

	_, err = store.Get(ctx)
	require.ErrorIs(t, err, cryptox.ErrDecrypt)
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := credstore.NewMemoryStore(fullSession())

	got, err := store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, fullSession(), got)

	updated := got
	updated.AccessToken = "T2"
	require.NoError(t, store.Set(ctx, updated))

	got, err = store.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "T2", got.AccessToken)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))

	got, err = store.Get(ctx)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}
