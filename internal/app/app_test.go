package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/fleetadmin/internal/fakeapi"
	"github.com/aussiebroadwan/fleetadmin/pkg/adminsdk"
	"github.com/aussiebroadwan/fleetadmin/pkg/credstore"
	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/aussiebroadwan/fleetadmin/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, baseURL string) Config {
	t.Helper()

	return Config{
		BaseURL:       baseURL,
		EncryptionKey: "test-key-material",
		Store:         StoreSQLite,
		DatabaseFile:  filepath.Join(t.TempDir(), "fleetadmin.db"),
		Namespace:     "fleetadmin",
		Timeout:       5 * time.Second,
		RateLimit:     100,
		RateBurst:     10,
		Env:           "test",
		LogLevel:      "error",
		LogFormat:     "text",
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "not a url")
	_, err := New(cfg)
	require.ErrorContains(t, err, "invalid configuration")
}

func TestNewMemoryStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://localhost:8080")
	cfg.Store = StoreMemory
	cfg.RateLimit = 0

	a, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })

	require.IsType(t, &credstore.MemoryStore{}, a.Store())
	require.Nil(t, a.Client().Limiter)
	require.Equal(t, 5*time.Second, a.Client().HTTPClient.Timeout)
	require.Equal(t, "http://localhost:8080", a.Client().BaseURL)
}

func TestKeyFile(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://localhost:8080")
	cfg.EncryptionKey = ""

	t.Run("missing file", func(t *testing.T) {
		c := cfg
		c.EncryptionKeyFile = filepath.Join(t.TempDir(), "absent")
		_, err := New(c)
		require.ErrorContains(t, err, "failed to load encryption key")
	})

	t.Run("present file", func(t *testing.T) {
		c := cfg
		c.EncryptionKeyFile = filepath.Join(t.TempDir(), "key")
		require.NoError(t, os.WriteFile(c.EncryptionKeyFile, []byte("file-key-material"), 0o600))

		a, err := New(c)
		require.NoError(t, err)
		require.NoError(t, a.Close())
	})
}

// A session signed in by one process is readable by the next one, and only
// with the same key.
func TestSessionSurvivesRestart(t *testing.T) {
	t.Parallel()

	api, err := fakeapi.New(slogx.Discard(), fakeapi.User{Username: "ops", Password: "pw", Role: "admin"})
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	first, err := New(cfg)
	require.NoError(t, err)
	signedIn, err := first.Client().SignIn(ctx, adminsdk.SignInRequest{Username: "ops", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, second.Close()) })

	info, err := second.Client().CurrentSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "ops", info.Username)

	stored, err := second.Store().Get(ctx)
	require.NoError(t, err)
	require.Equal(t, signedIn, stored)

	_, err = second.Client().Orders().List(ctx, adminsdk.ListOptions{})
	require.NoError(t, err)

	t.Run("wrong key cannot read it", func(t *testing.T) {
		other := cfg
		other.EncryptionKey = "different-key-material"

		a, err := New(other)
		require.NoError(t, err)
		defer a.Close()

		_, err = a.Store().Get(ctx)
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
	})
}
