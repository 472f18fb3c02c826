package cache

import (
	"context"
	"encoding/json"
	"time"

	"velours_back_end/internal/database"
)

// PendingMFATTL : délai pour scanner le QR et confirmer le premier code.
// Passé ce délai le secret non confirmé expire tout seul.
const PendingMFATTL = 10 * time.Minute

// PendingMFASetup est l'enrôlement en attente de confirmation TOTP
type PendingMFASetup struct {
	Secret           string   `json:"secret"`
	BackupCodeHashes []string `json:"backup_code_hashes"`
}

// StorePendingMFASetup parque un secret non confirmé dans Redis
func StorePendingMFASetup(userID string, setup PendingMFASetup) error {
	ctx := context.Background()
	data, err := json.Marshal(setup)
	if err != nil {
		return err
	}
	return database.Redis.Set(ctx, "mfa_pending:"+userID, data, PendingMFATTL).Err()
}

// GetPendingMFASetup récupère l'enrôlement en attente
func GetPendingMFASetup(userID string) (*PendingMFASetup, error) {
	ctx := context.Background()
	data, err := database.Redis.Get(ctx, "mfa_pending:"+userID).Result()
	if err != nil {
		return nil, err
	}

	var setup PendingMFASetup
	if err := json.Unmarshal([]byte(data), &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

// DeletePendingMFASetup abandonne l'enrôlement en attente
func DeletePendingMFASetup(userID string) error {
	ctx := context.Background()
	return database.Redis.Del(ctx, "mfa_pending:"+userID).Err()
}
