package utils

import (
	"testing"

	"velours_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	user := models.User{ID: "u-1", Email: "client@velours.fr", Role: "customer"}

	token, err := GenerateJWT(user)
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims["user_id"])
	assert.Equal(t, "client@velours.fr", claims["email"])
	assert.Equal(t, "customer", claims["role"])
	_, isChallenge := claims["mfa_challenge"]
	assert.False(t, isChallenge)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("pas.un.token")
	assert.Error(t, err)
}

func TestMFAChallengeToken(t *testing.T) {
	token, err := GenerateMFAChallengeToken("u-42")
	require.NoError(t, err)

	userID, err := ParseMFAChallengeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-42", userID)

	// un token de session n'est pas un challenge
	session, err := GenerateJWT(models.User{ID: "u-42"})
	require.NoError(t, err)
	_, err = ParseMFAChallengeToken(session)
	assert.Error(t, err)
}
