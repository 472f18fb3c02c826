package utils

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"
)

// LogAction enregistre une action réussie dans les logs d'audit
func LogAction(c *gin.Context, action, resource, resourceID string) {
	entry := buildAuditLog(c, action, resource, resourceID, true, "")
	go func() {
		if err := insertAuditLog(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// LogFailedAction enregistre une action échouée dans les logs d'audit
func LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	entry := buildAuditLog(c, action, resource, resourceID, false, errorMsg)
	go func() {
		if err := insertAuditLog(entry); err != nil {
			log.Printf("❌ Erreur enregistrement log audit: %v", err)
		}
	}()
}

// buildAuditLog lit le contexte Gin avant le goroutine (le contexte est
// recyclé dès la fin de la requête)
func buildAuditLog(c *gin.Context, action, resource, resourceID string, success bool, errorMsg string) models.AuditLog {
	userID, _ := c.Get("user_id")
	userEmail, _ := c.Get("email")

	return models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     getStringValue(userID),
		UserEmail:  getStringValue(userEmail),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now(),
	}
}

func insertAuditLog(entry models.AuditLog) error {
	session, err := database.GetUsersSession()
	if err != nil {
		return err
	}

	return session.Query(`
		INSERT INTO audit_logs (
			id, user_id, user_email, action, resource, resource_id,
			ip_address, user_agent, success, error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.UserID, entry.UserEmail, entry.Action, entry.Resource,
		entry.ResourceID, entry.IPAddress, entry.UserAgent, entry.Success,
		entry.ErrorMsg, entry.Timestamp).Exec()
}

func getStringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
