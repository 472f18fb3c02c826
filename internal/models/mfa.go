package models

import "time"

// BackupCode est un code de secours à usage unique.
// Seul le hash est persisté, le code en clair n'est montré qu'une fois.
type BackupCode struct {
	CodeHash  string     `json:"-" db:"code_hash"`
	Used      bool       `json:"used" db:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// MFASetupResponse est la réponse à une demande d'activation MFA.
// Le secret et les codes en clair ne sortent d'ici qu'une seule fois.
type MFASetupResponse struct {
	Secret      string   `json:"secret"`
	QRCode      string   `json:"qr_code"` // data URI PNG
	BackupCodes []string `json:"backup_codes"`
}

type MFAStatus struct {
	MFAEnabled      bool       `json:"mfa_enabled"`
	EnrolledAt      *time.Time `json:"enrolled_at,omitempty"`
	BackupCodesLeft int        `json:"backup_codes_left"`
}
