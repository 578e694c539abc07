package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArgon2RoundTrip(t *testing.T) {
	hash, err := HashArgon2("A12bcdef")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := VerifyArgon2("A12bcdef", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyArgon2("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = VerifyArgon2("x", "not-a-hash")
	require.ErrorIs(t, err, ErrInvalidHash)
}

func TestHashSHA256Hex(t *testing.T) {
	require.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HashSHA256Hex("hello"),
	)
}

func TestGenerateBase64Secret(t *testing.T) {
	a, err := GenerateBase64Secret(32)
	require.NoError(t, err)
	b, err := GenerateBase64Secret(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.Len(t, a, 43)
}
