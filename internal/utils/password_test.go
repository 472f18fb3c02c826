package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordFormat(t *testing.T) {
	hash, err := HashPassword("velours-secret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=32768,t=1,p=4$"))

	// sel aléatoire : deux hashs du même mot de passe diffèrent
	other, err := HashPassword("velours-secret")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("velours-secret")
	require.NoError(t, err)

	ok, err := VerifyPassword("velours-secret", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("mauvais", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("velours-secret", "$bcrypt$pas-un-argon2")
	assert.Error(t, err)
}
