package cache

import (
	"context"
	"encoding/json"
	"time"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"
)

const (
	UserCacheTTL    = 5 * time.Minute
	ProductCacheTTL = 10 * time.Minute
)

// GetUserFromCache récupère un utilisateur depuis Redis ou ScyllaDB
func GetUserFromCache(userID string) (*models.User, error) {
	ctx := context.Background()
	key := "user:" + userID

	// 1. Essayer le cache Redis
	data, err := database.Redis.Get(ctx, key).Result()
	if err == nil {
		var user models.User
		if json.Unmarshal([]byte(data), &user) == nil {
			return &user, nil
		}
	}

	// 2. Récupérer de ScyllaDB
	session, err := database.GetUsersSession()
	if err != nil {
		return nil, err
	}

	var (
		email, name, role, provider string
		mfaEnabled                  bool
	)

	err = session.Query(`SELECT email, name, role, provider, mfa_enabled
		FROM users WHERE user_id = ?`, userID).Scan(
		&email, &name, &role, &provider, &mfaEnabled)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:         userID,
		Email:      email,
		Name:       name,
		Role:       role,
		Provider:   provider,
		MFAEnabled: mfaEnabled,
	}

	// 3. Mettre en cache
	jsonData, _ := json.Marshal(user)
	database.Redis.Set(ctx, key, jsonData, UserCacheTTL)

	return user, nil
}

// InvalidateUserCache invalide le cache d'un utilisateur
func InvalidateUserCache(userID string) {
	ctx := context.Background()
	database.Redis.Del(ctx, "user:"+userID)
}
