package cryptox_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	t.Parallel()

	c, err := cryptox.NewCipher([]byte("test-master-key-for-encryption-12345"), "sessions")
	require.NoError(t, err)

	plaintext := []byte("refresh-token-value")

	sealed, err := c.Seal(plaintext, []byte("refreshToken"))
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed, "sealed data should differ from plaintext")

	opened, err := c.Open(sealed, []byte("refreshToken"))
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestSealUsesFreshNonce(t *testing.T) {
	t.Parallel()

	c, err := cryptox.NewCipher([]byte("test-master-key-multiple-times-xyz"), "sessions")
	require.NoError(t, err)

	data := []byte("access-token")

	sealed1, err := c.Seal(data, nil)
	require.NoError(t, err)
	sealed2, err := c.Seal(data, nil)
	require.NoError(t, err)

	require.NotEqual(t, sealed1, sealed2, "multiple seals should produce different ciphertexts")
}

func TestOpenFailures(t *testing.T) {
	t.Parallel()

	c, err := cryptox.NewCipher([]byte("test-master-key"), "sessions")
	require.NoError(t, err)

	sealed, err := c.Seal([]byte("original-data"), []byte("token"))
	require.NoError(t, err)

	t.Run("too short", func(t *testing.T) {
		_, err := c.Open([]byte("short"), nil)
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
		require.Contains(t, err.Error(), "too short")
	})

	t.Run("tampered", func(t *testing.T) {
		tampered := make([]byte, len(sealed))
		copy(tampered, sealed)
		tampered[len(tampered)-1] ^= 0xFF

		_, err := c.Open(tampered, []byte("token"))
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
	})

	t.Run("wrong additional data", func(t *testing.T) {
		_, err := c.Open(sealed, []byte("refreshToken"))
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
	})

	t.Run("other label", func(t *testing.T) {
		other, err := cryptox.NewCipher([]byte("test-master-key"), "other")
		require.NoError(t, err)

		_, err = other.Open(sealed, []byte("token"))
		require.ErrorIs(t, err, cryptox.ErrDecrypt)
	})
}

func TestNewCipherEmptyKey(t *testing.T) {
	t.Parallel()

	_, err := cryptox.NewCipher(nil, "sessions")
	require.Error(t, err)
}

func TestNewCipherFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(path, []byte("file-based-master-key-content-xyz"), 0o600))

	fromFile, err := cryptox.NewCipherFromFile(path, "sessions")
	require.NoError(t, err)

	direct, err := cryptox.NewCipher([]byte("file-based-master-key-content-xyz"), "sessions")
	require.NoError(t, err)

	sealed, err := fromFile.Seal([]byte("test-data-with-file-key"), nil)
	require.NoError(t, err)

	opened, err := direct.Open(sealed, nil)
	require.NoError(t, err)
	require.Equal(t, []byte("test-data-with-file-key"), opened)

	_, err = cryptox.NewCipherFromFile(filepath.Join(t.TempDir(), "missing"), "sessions")
	require.Error(t, err)
}
