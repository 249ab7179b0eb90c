package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/fleetadmin/internal/credstore/sqlite"
	"github.com/aussiebroadwan/fleetadmin/pkg/credstore"
	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "credentials.db")
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, path
}

func TestBackendReplaceLoadDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := openStore(t)

	got, err := s.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, s.Replace(ctx, "fleetadmin", map[string][]byte{
		"token":        []byte("a"),
		"refreshToken": []byte("b"),
	}))
	require.NoError(t, s.Replace(ctx, "other", map[string][]byte{"token": []byte("z")}))

	got, err = s.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	require.Equal(t, map[string][]byte{"token": []byte("a"), "refreshToken": []byte("b")}, got)

	// Replace drops keys that are not in the new set
	require.NoError(t, s.Replace(ctx, "fleetadmin", map[string][]byte{"token": []byte("c")}))
	got, err = s.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	require.Equal(t, map[string][]byte{"token": []byte("c")}, got)

	require.NoError(t, s.Delete(ctx, "fleetadmin", "token", "missing"))
	got, err = s.Load(ctx, "fleetadmin")
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = s.Load(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, []byte("z"), got["token"])
}

func TestSessionSurvivesReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, path := openStore(t)

	c, err := cryptox.NewCipher([]byte("test-encryption-key"), "fleetadmin")
	require.NoError(t, err)

	session := credstore.Session{
		AccessToken:  "T1",
		RefreshToken: "R1",
		Role:         "admin",
		UserID:       "u-1",
		Username:     "dispatch",
	}
	require.NoError(t, credstore.NewEncryptedStore(s, c, "fleetadmin").Set(ctx, session))
	require.NoError(t, s.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := credstore.NewEncryptedStore(reopened, c, "fleetadmin").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, session, got)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()
	s, _ := openStore(t)

	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}
