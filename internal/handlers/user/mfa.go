package user

import (
	"encoding/base64"
	"log"
	"net/http"
	"regexp"
	"time"

	"velours_back_end/internal/cache"
	"velours_back_end/internal/database"
	"velours_back_end/internal/models"
	"velours_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

var digitsOnly = regexp.MustCompile(`[^0-9]`)

// sanitizeTOTPCode ne garde que les chiffres, tronqué à 6
func sanitizeTOTPCode(code string) string {
	code = digitsOnly.ReplaceAllString(code, "")
	if len(code) > utils.TOTPDigits {
		code = code[:utils.TOTPDigits]
	}
	return code
}

// checkPassword revérifie le mot de passe courant (exigé pour les
// opérations MFA destructives)
func checkPassword(userID, password string) (string, bool) {
	session, err := database.GetUsersSession()
	if err != nil {
		return "", false
	}

	var email, hash string
	if err := session.Query("SELECT email, password FROM users WHERE user_id = ?", userID).
		Scan(&email, &hash); err != nil {
		return "", false
	}

	ok, err := utils.VerifyPassword(password, hash)
	if err != nil || !ok {
		return "", false
	}
	return email, true
}

//
// ℹ️ GET /api/mfa/status
//
func GetMFAStatus(c *gin.Context) {
	userID := c.GetString("user_id")

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var status models.MFAStatus
	if err := session.Query(`SELECT mfa_enabled, mfa_enrolled_at FROM users WHERE user_id = ?`, userID).
		Scan(&status.MFAEnabled, &status.EnrolledAt); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Utilisateur introuvable"})
		return
	}

	if status.MFAEnabled {
		iter := session.Query(`SELECT used FROM mfa_backup_codes WHERE user_id = ?`, userID).Iter()
		var used bool
		for iter.Scan(&used) {
			if !used {
				status.BackupCodesLeft++
			}
		}
		iter.Close()
	}

	c.JSON(http.StatusOK, status)
}

//
// 🔐 POST /api/mfa/enable
//
// Émet un secret TOTP, le QR à scanner et les codes de secours. Le tout
// reste en attente dans Redis jusqu'à confirmation du premier code.
func EnableMFA(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	user, err := cache.GetUserFromCache(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateur"})
		return
	}
	if user.MFAEnabled {
		c.JSON(http.StatusConflict, gin.H{"error": "La double authentification est déjà activée"})
		return
	}

	secret, err := utils.GenerateTOTPSecret()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération secret"})
		return
	}

	codes, err := utils.GenerateBackupCodes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération codes de secours"})
		return
	}

	hashes := make([]string, 0, len(codes))
	for _, code := range codes {
		h, err := utils.HashPassword(code)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération codes de secours"})
			return
		}
		hashes = append(hashes, h)
	}

	// 🖼️ QR du provisioning otpauth:// en data URI
	png, err := qrcode.Encode(utils.TOTPProvisioningURI(secret, email), qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération QR code"})
		return
	}
	qrDataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)

	err = cache.StorePendingMFASetup(userID, cache.PendingMFASetup{
		Secret:           secret,
		BackupCodeHashes: hashes,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur stockage enrôlement"})
		return
	}

	utils.LogAction(c, "mfa.setup_initiated", "user", userID)
	log.Printf("🔐 Enrôlement MFA initié pour %s", userID)

	c.JSON(http.StatusOK, models.MFASetupResponse{
		Secret:      secret,
		QRCode:      qrDataURI,
		BackupCodes: codes,
	})
}

//
// ✅ POST /api/mfa/verify
//
// Confirme l'enrôlement avec un premier code TOTP valide
func VerifyMFA(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	var input struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Code requis"})
		return
	}

	code := sanitizeTOTPCode(input.Code)
	if len(code) != utils.TOTPDigits {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le code doit comporter 6 chiffres"})
		return
	}

	pending, err := cache.GetPendingMFASetup(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Aucun enrôlement en attente (expiré ?)"})
		return
	}

	if !utils.ValidateTOTP(pending.Secret, code, time.Now()) {
		utils.LogFailedAction(c, "mfa.verify", "user", userID, "code TOTP invalide")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	now := time.Now()
	err = session.Query(`UPDATE users SET mfa_enabled = true, mfa_secret = ?, mfa_enrolled_at = ? WHERE user_id = ?`,
		pending.Secret, now, userID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur activation MFA"})
		return
	}

	for _, hash := range pending.BackupCodeHashes {
		if err := session.Query(`INSERT INTO mfa_backup_codes (user_id, code_hash, used, created_at) VALUES (?, ?, false, ?)`,
			userID, hash, now).Exec(); err != nil {
			log.Printf("❌ Erreur insertion code de secours: %v", err)
		}
	}

	cache.DeletePendingMFASetup(userID)
	cache.InvalidateUserCache(userID)

	utils.LogAction(c, "mfa.enabled", "user", userID)
	log.Printf("✅ MFA activée pour %s", userID)

	go func() {
		if err := utils.SendEmail(email, "Double authentification activée",
			utils.GenerateMFAAlertHTML("La double authentification vient d'être activée sur votre compte.")); err != nil {
			log.Printf("⚠️ Erreur envoi e-mail MFA: %v", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message":     "Double authentification activée",
		"mfa_enabled": true,
	})
}

//
// ↩️ POST /api/mfa/cancel
//
// Abandonne un enrôlement non confirmé (le secret en attente est jeté)
func CancelMFASetup(c *gin.Context) {
	userID := c.GetString("user_id")

	if err := cache.DeletePendingMFASetup(userID); err != nil {
		log.Printf("⚠️ Erreur annulation enrôlement MFA: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Enrôlement annulé"})
}

//
// 🚫 POST /api/mfa/disable
//
func DisableMFA(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mot de passe requis"})
		return
	}

	email, ok := checkPassword(userID, input.Password)
	if !ok {
		utils.LogFailedAction(c, "mfa.disable", "user", userID, "mot de passe incorrect")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query(`UPDATE users SET mfa_enabled = false, mfa_secret = null, mfa_enrolled_at = null WHERE user_id = ?`,
		userID).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur désactivation MFA"})
		return
	}

	if err := session.Query(`DELETE FROM mfa_backup_codes WHERE user_id = ?`, userID).Exec(); err != nil {
		log.Printf("❌ Erreur suppression codes de secours: %v", err)
	}

	cache.InvalidateUserCache(userID)

	utils.LogAction(c, "mfa.disabled", "user", userID)
	log.Printf("🚫 MFA désactivée pour %s", userID)

	go func() {
		if err := utils.SendEmail(email, "Double authentification désactivée",
			utils.GenerateMFAAlertHTML("La double authentification vient d'être désactivée sur votre compte.")); err != nil {
			log.Printf("⚠️ Erreur envoi e-mail MFA: %v", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message":     "Double authentification désactivée",
		"mfa_enabled": false,
	})
}

//
// 👁️ POST /api/mfa/backup-codes
//
// Liste l'état des codes de secours (jamais le clair : seul l'enrôlement
// et la régénération les montrent). Mot de passe exigé.
func GetBackupCodes(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mot de passe requis"})
		return
	}

	if _, ok := checkPassword(userID, input.Password); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT used, used_at, created_at FROM mfa_backup_codes WHERE user_id = ?`, userID).Iter()

	codes := []models.BackupCode{}
	remaining := 0
	var entry models.BackupCode
	for iter.Scan(&entry.Used, &entry.UsedAt, &entry.CreatedAt) {
		if !entry.Used {
			remaining++
		}
		codes = append(codes, entry)
		entry = models.BackupCode{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture codes de secours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"codes":     codes,
		"remaining": remaining,
	})
}

//
// ♻️ POST /api/mfa/backup-codes/regenerate
//
// Invalide tous les anciens codes et en émet dix nouveaux (montrés une fois)
func RegenerateBackupCodes(c *gin.Context) {
	userID := c.GetString("user_id")

	var input struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Mot de passe requis"})
		return
	}

	email, ok := checkPassword(userID, input.Password)
	if !ok {
		utils.LogFailedAction(c, "mfa.regenerate_backup_codes", "user", userID, "mot de passe incorrect")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Mot de passe incorrect"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil || !user.MFAEnabled {
		c.JSON(http.StatusConflict, gin.H{"error": "La double authentification n'est pas activée"})
		return
	}

	codes, err := utils.GenerateBackupCodes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération codes de secours"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	if err := session.Query(`DELETE FROM mfa_backup_codes WHERE user_id = ?`, userID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur invalidation anciens codes"})
		return
	}

	now := time.Now()
	for _, code := range codes {
		hash, err := utils.HashPassword(code)
		if err != nil {
			continue
		}
		if err := session.Query(`INSERT INTO mfa_backup_codes (user_id, code_hash, used, created_at) VALUES (?, ?, false, ?)`,
			userID, hash, now).Exec(); err != nil {
			log.Printf("❌ Erreur insertion code de secours: %v", err)
		}
	}

	utils.LogAction(c, "mfa.regenerate_backup_codes", "user", userID)
	log.Printf("♻️ Codes de secours régénérés pour %s", userID)

	go func() {
		if err := utils.SendEmail(email, "Codes de secours régénérés",
			utils.GenerateMFAAlertHTML("Vos codes de secours viennent d'être régénérés. Les anciens ne sont plus valables.")); err != nil {
			log.Printf("⚠️ Erreur envoi e-mail MFA: %v", err)
		}
	}()

	c.JSON(http.StatusOK, gin.H{
		"message":      "Nouveaux codes de secours générés",
		"backup_codes": codes,
	})
}

//
// 🎫 POST /api/auth/mfa/challenge
//
// Deuxième étape du login quand la MFA est active : échange le token de
// challenge + un code TOTP (ou un code de secours) contre le JWT de session
func MFAChallenge(c *gin.Context) {
	var input struct {
		ChallengeToken string `json:"challenge_token" binding:"required"`
		Code           string `json:"code"`
		BackupCode     string `json:"backup_code"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	userID, err := utils.ParseMFAChallengeToken(input.ChallengeToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Challenge invalide ou expiré"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var secret string
	if err := session.Query("SELECT mfa_secret FROM users WHERE user_id = ?", userID).Scan(&secret); err != nil || secret == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "MFA non activée"})
		return
	}

	verified := false
	switch {
	case input.Code != "":
		verified = utils.ValidateTOTP(secret, sanitizeTOTPCode(input.Code), time.Now())
	case input.BackupCode != "":
		verified = burnBackupCode(userID, utils.NormalizeBackupCode(input.BackupCode))
	}

	if !verified {
		utils.LogFailedAction(c, "mfa.challenge", "user", userID, "code invalide")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Code invalide"})
		return
	}

	user, err := cache.GetUserFromCache(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture utilisateur"})
		return
	}

	token, refresh, err := issueSession(*user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération token"})
		return
	}

	utils.LogAction(c, "mfa.challenge", "user", userID)

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refresh,
		"userId":        user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"role":          user.Role,
	})
}

// burnBackupCode consomme un code de secours (usage unique)
func burnBackupCode(userID, code string) bool {
	session, err := database.GetUsersSession()
	if err != nil {
		return false
	}

	iter := session.Query(`SELECT code_hash, used FROM mfa_backup_codes WHERE user_id = ?`, userID).Iter()

	var codeHash string
	var used bool
	matched := ""
	for iter.Scan(&codeHash, &used) {
		if used || matched != "" {
			continue
		}
		if ok, _ := utils.VerifyPassword(code, codeHash); ok {
			matched = codeHash
		}
	}
	if err := iter.Close(); err != nil || matched == "" {
		return false
	}

	err = session.Query(`UPDATE mfa_backup_codes SET used = true, used_at = ? WHERE user_id = ? AND code_hash = ?`,
		time.Now(), userID, matched).Exec()
	if err != nil {
		log.Printf("❌ Erreur consommation code de secours: %v", err)
		return false
	}

	log.Printf("🎟️ Code de secours consommé pour %s", userID)
	return true
}
