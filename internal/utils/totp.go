package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	TOTPDigits = 6
	TOTPPeriod = 30 // secondes
	TOTPSkew   = 1  // fenêtres tolérées avant/après (dérive d'horloge)
)

// GenerateTOTPSecret génère un secret 160 bits encodé en base32 sans padding
func GenerateTOTPSecret() (string, error) {
	seed := make([]byte, 20)
	if _, err := rand.Read(seed); err != nil {
		return "", err
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToUpper(enc.EncodeToString(seed)), nil
}

// TOTPCode calcule le code à 6 chiffres pour un instant donné (RFC 6238, HMAC-SHA1)
func TOTPCode(secret string, t time.Time) (string, error) {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	key, err := enc.DecodeString(strings.ToUpper(strings.TrimSpace(secret)))
	if err != nil {
		return "", fmt.Errorf("secret TOTP invalide: %v", err)
	}

	counter := uint64(t.Unix()) / TOTPPeriod
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf[:])
	sum := mac.Sum(nil)

	// Troncature dynamique (RFC 4226 §5.3)
	offset := sum[len(sum)-1] & 0x0f
	code := (binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff) % 1000000

	return fmt.Sprintf("%06d", code), nil
}

// ValidateTOTP vérifie un code en tolérant TOTPSkew fenêtres de décalage
func ValidateTOTP(secret, code string, t time.Time) bool {
	if len(code) != TOTPDigits {
		return false
	}
	for skew := -TOTPSkew; skew <= TOTPSkew; skew++ {
		expected, err := TOTPCode(secret, t.Add(time.Duration(skew*TOTPPeriod)*time.Second))
		if err != nil {
			return false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return true
		}
	}
	return false
}

// TOTPProvisioningURI construit l'URI otpauth:// scannée par l'application
// d'authentification
func TOTPProvisioningURI(secret, email string) string {
	issuer := "Velours"
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")
	v.Set("period", "30")
	return "otpauth://totp/" + url.PathEscape(issuer+":"+email) + "?" + v.Encode()
}
