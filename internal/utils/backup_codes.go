package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	BackupCodeCount = 10
	backupCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // sans I/O/0/1 (ambigus)
)

// GenerateBackupCodes génère les codes de secours en clair (format XXXX-XXXX).
// L'appelant doit les hasher avant stockage, le clair n'est montré qu'une fois.
func GenerateBackupCodes() ([]string, error) {
	codes := make([]string, 0, BackupCodeCount)
	for i := 0; i < BackupCodeCount; i++ {
		code, err := randomBackupCode()
		if err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func randomBackupCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < 8; i++ {
		if i == 4 {
			sb.WriteByte('-')
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(backupCodeChars))))
		if err != nil {
			return "", err
		}
		sb.WriteByte(backupCodeChars[n.Int64()])
	}
	return sb.String(), nil
}

// NormalizeBackupCode met un code saisi au format canonique
func NormalizeBackupCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, " ", "")
	if len(code) == 8 && !strings.Contains(code, "-") {
		code = fmt.Sprintf("%s-%s", code[:4], code[4:])
	}
	return code
}
