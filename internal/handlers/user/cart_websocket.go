package user

import (
	"context"
	"log"
	"net/http"

	"velours_back_end/internal/database"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Autoriser toutes les origines (à ajuster en production)
		return true
	},
}

// CartWebSocket gère la synchronisation temps réel du panier : chaque
// mutation publie sur le canal Redis du user, on pousse le panier à jour
func CartWebSocket(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Erreur upgrade WebSocket: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.Background()

	pubsub := database.Redis.Subscribe(ctx, "cart_events:"+userID)
	defer pubsub.Close()

	ch := pubsub.Channel()

	conn.WriteJSON(gin.H{
		"type":    "connected",
		"message": "Synchronisation panier activée",
	})

	for msg := range ch {
		if msg.Payload != "updated" && msg.Payload != "cleared" {
			continue
		}

		cart, err := loadCart(ctx, userID)
		if err != nil {
			continue
		}
		cart.Recompute()

		if err := conn.WriteJSON(gin.H{"type": "cart_updated", "cart": cart}); err != nil {
			log.Printf("🔌 Client WebSocket déconnecté (%s): %v", userID, err)
			return
		}
	}
}
