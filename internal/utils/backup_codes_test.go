package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBackupCodes(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)
	require.Len(t, codes, BackupCodeCount)

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.Len(t, code, 9)
		assert.Equal(t, byte('-'), code[4])
		for _, r := range strings.ReplaceAll(code, "-", "") {
			assert.Contains(t, backupCodeChars, string(r), "caractères ambigus exclus")
		}
		assert.False(t, seen[code], "codes tous distincts")
		seen[code] = true
	}
}

func TestNormalizeBackupCode(t *testing.T) {
	cases := map[string]string{
		"abcd-efgh":   "ABCD-EFGH",
		" ABCD-EFGH ": "ABCD-EFGH",
		"abcdefgh":    "ABCD-EFGH",
		"AB CD EF GH": "ABCD-EFGH",
		"ABCD-EFG":    "ABCD-EFG", // trop court, rendu tel quel
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeBackupCode(input), "entrée %q", input)
	}
}

func TestBackupCodeHashRoundTrip(t *testing.T) {
	codes, err := GenerateBackupCodes()
	require.NoError(t, err)

	hash, err := HashPassword(codes[0])
	require.NoError(t, err)

	ok, err := VerifyPassword(codes[0], hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword(codes[1], hash)
	require.NoError(t, err)
	assert.False(t, ok)
}
