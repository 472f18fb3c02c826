package user

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"velours_back_end/internal/cache"
	"velours_back_end/internal/database"
	"velours_back_end/internal/models"
	"velours_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
)

// ================== AUTH LOCALE ==================

func Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// email déjà pris pour un compte local ?
	var existingID string
	if err := session.Query("SELECT user_id FROM users_by_email WHERE email = ?", input.Email).
		Scan(&existingID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Un compte avec cet email existe déjà"})
		return
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	user := models.User{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Email:    input.Email,
		Password: hashedPassword,
		Role:     "customer",
		Provider: "local",
	}

	now := time.Now()
	err = session.Query(`
		INSERT INTO users (user_id, name, email, password, role, provider, mfa_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, false, ?)
	`, user.ID, user.Name, user.Email, user.Password, user.Role, user.Provider, now).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création utilisateur"})
		return
	}

	// Table de lookup par email
	if err := session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?)`,
		user.Email, user.ID).Exec(); err != nil {
		log.Printf("❌ Erreur insertion users_by_email: %v", err)
	}

	token, refresh, err := issueSession(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	utils.LogAction(c, "auth.register", "user", user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"token":         token,
		"refresh_token": refresh,
		"userId":        user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

// issueSession émet le JWT de session et un refresh token opaque (30 jours),
// remplaçant l'éventuel refresh token précédent
func issueSession(user models.User) (string, string, error) {
	token, err := utils.GenerateJWT(user)
	if err != nil {
		return "", "", err
	}

	refresh := generateRandomState()
	if err := cache.StoreRefreshToken(user.ID, refresh, 30*24*time.Hour); err != nil {
		log.Printf("⚠️ Erreur stockage refresh token: %v", err)
	}
	return token, refresh, nil
}

func Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var userID string
	if err := session.Query("SELECT user_id FROM users_by_email WHERE email = ?", input.Email).
		Scan(&userID); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	var user models.User
	user.ID = userID
	err = session.Query(`SELECT name, email, password, role, provider, mfa_enabled FROM users WHERE user_id = ?`, userID).
		Scan(&user.Name, &user.Email, &user.Password, &user.Role, &user.Provider, &user.MFAEnabled)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	ok, err := utils.VerifyPassword(input.Password, user.Password)
	if err != nil || !ok {
		utils.LogFailedAction(c, "auth.login", "user", userID, "mot de passe incorrect")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email ou mot de passe incorrect"})
		return
	}

	// 🔐 MFA active : pas de session tout de suite, on renvoie un challenge
	if user.MFAEnabled {
		challenge, err := utils.GenerateMFAChallengeToken(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération challenge"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"mfa_required":    true,
			"challenge_token": challenge,
		})
		return
	}

	token, refresh, err := issueSession(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	utils.LogAction(c, "auth.login", "user", user.ID)

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refresh,
		"userId":        user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

// RefreshSession échange un refresh token valide contre une nouvelle session.
// Le refresh token est tourné à chaque échange.
func RefreshSession(c *gin.Context) {
	var input struct {
		UserID       string `json:"user_id" binding:"required"`
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	stored, err := cache.GetRefreshToken(input.UserID)
	if err != nil || stored == "" || stored != input.RefreshToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token invalide ou expiré"})
		return
	}

	user, err := cache.GetUserFromCache(input.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	token, refresh, err := issueSession(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refresh,
	})
}

func Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"userId":      user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"role":        user.Role,
		"provider":    user.Provider,
		"mfa_enabled": user.MFAEnabled,
	})
}

func Logout(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	if err := cache.DeleteRefreshToken(userID); err != nil {
		log.Printf("⚠️ Erreur suppression refresh token: %v", err)
	}

	// Révoque le token de session jusqu'à son expiration naturelle
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if claims, err := utils.ParseToken(token); err == nil {
			if exp, ok := claims["exp"].(float64); ok {
				if ttl := time.Until(time.Unix(int64(exp), 0)); ttl > 0 {
					cache.BlacklistToken(token, ttl)
				}
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Déconnexion réussie"})
}

// ================== AUTH SOCIALE ==================

func generateRandomState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// BeginAuth démarre le flow OAuth (goth)
func BeginAuth(c *gin.Context) {
	provider := c.Param("provider")
	if provider == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "aucun provider spécifié"})
		return
	}

	redirectURL := c.Query("redirect_url")

	ctx := context.Background()
	state := generateRandomState()
	if redirectURL != "" {
		_ = database.Redis.Set(ctx, "oauth_redirect:"+state, redirectURL, 10*time.Minute).Err()
	}

	q := c.Request.URL.Query()
	q.Set("provider", provider)
	q.Set("state", state)
	c.Request.URL.RawQuery = q.Encode()
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

// CallbackAuth termine le flow OAuth. Le JWT n'est jamais mis dans l'URL :
// on stocke un code à usage unique dans Redis et le front l'échange ensuite.
func CallbackAuth(c *gin.Context) {
	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		log.Printf("❌ Erreur callback OAuth: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentification OAuth échouée"})
		return
	}

	user := findOrCreateOAuthUser(gothUser.Provider, gothUser.UserID, gothUser.Email, gothUser.Name)

	token, err := utils.GenerateJWT(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	ctx := context.Background()
	code := generateRandomState()
	if err := database.Redis.Set(ctx, "oauth_code:"+code, token, 2*time.Minute).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur stockage code"})
		return
	}

	state := c.Query("state")
	redirectURI, _ := database.Redis.Get(ctx, "oauth_redirect:"+state).Result()
	database.Redis.Del(ctx, "oauth_redirect:"+state)

	if redirectURI == "" {
		redirectURI = os.Getenv("FRONTEND_URL")
		if redirectURI == "" {
			redirectURI = "http://localhost:5173"
		}
	}

	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	c.Redirect(http.StatusTemporaryRedirect, redirectURI+sep+"code="+url.QueryEscape(code))
}

// ExchangeOAuthCode échange le code à usage unique contre le JWT de session
func ExchangeOAuthCode(c *gin.Context) {
	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code requis"})
		return
	}

	ctx := context.Background()
	key := "oauth_code:" + input.Code

	token, err := database.Redis.Get(ctx, key).Result()
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code invalide ou expiré"})
		return
	}

	// Usage unique
	database.Redis.Del(ctx, key)

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func findOrCreateOAuthUser(provider, providerID, email, name string) models.User {
	session, err := database.GetUsersSession()
	if err != nil {
		return models.User{}
	}

	// 1️⃣ Recherche par email
	var userID string
	if err := session.Query("SELECT user_id FROM users_by_email WHERE email = ?", email).
		Scan(&userID); err == nil {
		var user models.User
		user.ID = userID
		if err := session.Query(`SELECT name, email, role, provider, mfa_enabled FROM users WHERE user_id = ?`, userID).
			Scan(&user.Name, &user.Email, &user.Role, &user.Provider, &user.MFAEnabled); err == nil {
			log.Printf("✅ Utilisateur OAuth existant trouvé : %s", email)
			return user
		}
	}

	// 2️⃣ Création d'un nouvel utilisateur OAuth
	user := models.User{
		ID:         uuid.NewString(),
		Email:      email,
		Name:       name,
		Provider:   provider,
		ProviderID: providerID,
		Role:       "customer",
	}

	now := time.Now()
	if err := session.Query(`
		INSERT INTO users (user_id, name, email, role, provider, provider_id, mfa_enabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, false, ?)
	`, user.ID, user.Name, user.Email, user.Role, user.Provider, user.ProviderID, now).Exec(); err != nil {
		log.Printf("❌ Erreur création utilisateur OAuth: %v", err)
		return user
	}
	if err := session.Query(`INSERT INTO users_by_email (email, user_id) VALUES (?, ?)`,
		user.Email, user.ID).Exec(); err != nil {
		log.Printf("❌ Erreur insertion users_by_email: %v", err)
	}

	log.Printf("🆕 Utilisateur OAuth créé (%s) : %s", provider, email)
	return user
}
