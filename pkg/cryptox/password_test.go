package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	t.Run("produces PHC-format hash", func(t *testing.T) {
		hash, err := HashPassword("CorrectHorseBatteryStaple")
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 6)
		require.Equal(t, "argon2id", parts[1])
		require.Equal(t, "v=19", parts[2])
		require.Contains(t, parts[3], "m=")
		require.Contains(t, parts[3], "t=")
		require.Contains(t, parts[3], "p=")
	})

	t.Run("salts are unique per hash", func(t *testing.T) {
		h1, err := HashPassword("same-password")
		require.NoError(t, err)
		h2, err := HashPassword("same-password")
		require.NoError(t, err)
		require.NotEqual(t, h1, h2)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("CorrectHorseBatteryStaple")
	require.NoError(t, err)

	t.Run("accepts matching password", func(t *testing.T) {
		require.NoError(t, VerifyPassword("CorrectHorseBatteryStaple", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		require.Error(t, VerifyPassword("not-the-password", hash))
	})

	t.Run("rejects malformed hash", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "$argon2id$garbage"))
		require.Error(t, VerifyPassword("anything", "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA"))
	})
}
