package utils

import (
	"encoding/base32"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Secret de test de la RFC 6238 ("12345678901234567890" en base32)
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

// Vecteurs SHA-1 de la RFC 6238 annexe B, tronqués à six chiffres
func TestTOTPCodeRFCVectors(t *testing.T) {
	vectors := []struct {
		unix int64
		code string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}

	for _, v := range vectors {
		code, err := TOTPCode(rfcSecret, time.Unix(v.unix, 0))
		require.NoError(t, err)
		assert.Equal(t, v.code, code, "t=%d", v.unix)
	}
}

func TestValidateTOTPSkewWindow(t *testing.T) {
	now := time.Unix(1111111111, 0)

	current, err := TOTPCode(rfcSecret, now)
	require.NoError(t, err)
	previous, err := TOTPCode(rfcSecret, now.Add(-TOTPPeriod*time.Second))
	require.NoError(t, err)
	tooOld, err := TOTPCode(rfcSecret, now.Add(-2*TOTPPeriod*time.Second))
	require.NoError(t, err)

	assert.True(t, ValidateTOTP(rfcSecret, current, now))
	assert.True(t, ValidateTOTP(rfcSecret, previous, now), "une fenêtre de dérive est tolérée")
	assert.False(t, ValidateTOTP(rfcSecret, tooOld, now), "deux fenêtres c'est trop")
	assert.False(t, ValidateTOTP(rfcSecret, "000000", now))
	assert.False(t, ValidateTOTP(rfcSecret, "28708", now), "longueur incorrecte")
}

func TestGenerateTOTPSecret(t *testing.T) {
	secret, err := GenerateTOTPSecret()
	require.NoError(t, err)

	// 160 bits en base32 sans padding = 32 caractères
	assert.Len(t, secret, 32)
	assert.Equal(t, strings.ToUpper(secret), secret)

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, key, 20)

	other, err := GenerateTOTPSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestTOTPProvisioningURI(t *testing.T) {
	uri := TOTPProvisioningURI(rfcSecret, "client@velours.fr")

	assert.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	assert.Contains(t, uri, "secret="+rfcSecret)
	assert.Contains(t, uri, "issuer=Velours")
	assert.Contains(t, uri, "digits=6")
	assert.Contains(t, uri, "period=30")
}
