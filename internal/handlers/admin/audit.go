package admin

import (
	"net/http"
	"strconv"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"

	"github.com/gin-gonic/gin"
)

// GetAuditLogs liste les derniers logs d'audit (admin)
func GetAuditLogs(c *gin.Context) {
	limit := 100
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 1000 {
		limit = v
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT id, user_id, user_email, action, resource, resource_id, ip_address, user_agent, success, error_msg, timestamp FROM audit_logs LIMIT ?`,
		limit).Iter()

	logs := []models.AuditLog{}
	var entry models.AuditLog
	for iter.Scan(&entry.ID, &entry.UserID, &entry.UserEmail, &entry.Action, &entry.Resource,
		&entry.ResourceID, &entry.IPAddress, &entry.UserAgent, &entry.Success,
		&entry.ErrorMsg, &entry.Timestamp) {
		logs = append(logs, entry)
		entry = models.AuditLog{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}
