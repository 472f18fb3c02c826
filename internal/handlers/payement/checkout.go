package pa

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"
	"velours_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"
)

// Checkout crée une commande depuis le panier Redis avec validation de stock
// et un PaymentIntent Stripe
func Checkout(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	if userID == "" || email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Utilisateur non authentifié"})
		return
	}

	// ✅ 1. Récupérer le panier depuis Redis
	ctx := context.Background()
	cartKey := "cart:" + userID

	cartData, err := database.Redis.Get(ctx, cartKey).Result()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide ou introuvable"})
		return
	}

	var cart models.Cart
	if err := json.Unmarshal([]byte(cartData), &cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture panier"})
		return
	}
	if len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Panier vide"})
		return
	}

	cart.Recompute()

	// ✅ 2. Vérifier le stock de chaque ligne
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	for _, line := range cart.Items {
		pid, err := uuid.Parse(line.Product.ProductID)
		if err != nil {
			continue
		}
		var stock int
		if err := session.Query("SELECT stock FROM products WHERE product_id = ?", gocql.UUID(pid)).Scan(&stock); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Produit indisponible: " + line.Product.Name})
			return
		}
		if stock < line.Quantity {
			c.JSON(http.StatusConflict, gin.H{"error": "Stock insuffisant pour " + line.Product.Name})
			return
		}
	}

	// ✅ 3. Créer le PaymentIntent Stripe (montant en centimes)
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(int64(cart.Subtotal * 100)),
		Currency:     stripe.String(string(stripe.CurrencyEUR)),
		ReceiptEmail: stripe.String(email),
	}
	params.AddMetadata("user_id", userID)

	pi, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création paiement"})
		return
	}

	// ✅ 4. Persister la commande
	order := models.Order{
		ID:          gocql.TimeUUID(),
		UserID:      userID,
		StripeID:    pi.ID,
		Items:       cart.Items,
		AmountTotal: cart.Subtotal,
		Status:      "pending",
		CreatedAt:   time.Now(),
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	itemsJSON, _ := json.Marshal(order.Items)
	err = ordersSession.Query(`INSERT INTO orders (order_id, user_id, stripe_id, items, amount_total, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.UserID, order.StripeID, string(itemsJSON), order.AmountTotal, order.Status, order.CreatedAt).Exec()
	if err != nil {
		log.Printf("❌ Erreur enregistrement commande: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement commande"})
		return
	}

	utils.LogAction(c, "order.checkout", "order", order.ID.String())
	log.Printf("💳 Commande %s créée pour %s (%.2f€)", order.ID.String(), userID, order.AmountTotal)

	c.JSON(http.StatusOK, gin.H{
		"order_id":      order.ID.String(),
		"client_secret": pi.ClientSecret,
		"amount_total":  order.AmountTotal,
	})
}

// ConfirmOrder marque une commande payée, envoie la confirmation et vide le panier
func ConfirmOrder(c *gin.Context) {
	userID := c.GetString("user_id")
	email := c.GetString("email")

	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID commande invalide"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var order models.Order
	var itemsJSON string
	err = ordersSession.Query(`SELECT order_id, user_id, stripe_id, items, amount_total, status, created_at FROM orders WHERE order_id = ?`,
		gocql.UUID(orderID)).Scan(&order.ID, &order.UserID, &order.StripeID, &itemsJSON,
		&order.AmountTotal, &order.Status, &order.CreatedAt)
	if err != nil || order.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Commande introuvable"})
		return
	}
	json.Unmarshal([]byte(itemsJSON), &order.Items)

	// Vérifier le statut du paiement auprès de Stripe
	pi, err := paymentintent.Get(order.StripeID, nil)
	if err != nil || pi.Status != stripe.PaymentIntentStatusSucceeded {
		c.JSON(http.StatusConflict, gin.H{"error": "Paiement non confirmé"})
		return
	}

	if err := ordersSession.Query(`UPDATE orders SET status = 'paid' WHERE order_id = ?`, order.ID).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour commande"})
		return
	}
	order.Status = "paid"

	// Décrémenter le stock
	if session, err := database.GetProductsSession(); err == nil {
		for _, line := range order.Items {
			pid, err := uuid.Parse(line.Product.ProductID)
			if err != nil {
				continue
			}
			var stock int
			if session.Query("SELECT stock FROM products WHERE product_id = ?", gocql.UUID(pid)).Scan(&stock) == nil {
				session.Query("UPDATE products SET stock = ? WHERE product_id = ?",
					stock-line.Quantity, gocql.UUID(pid)).Exec()
			}
		}
	}

	// 🧹 Vider le panier et notifier
	ctx := context.Background()
	database.Redis.Del(ctx, "cart:"+userID)
	database.Redis.Publish(ctx, "cart_events:"+userID, "cleared")

	go func() {
		if err := utils.SendEmail(email, "Confirmation de votre commande Velours",
			utils.GenerateOrderConfirmationHTML(order)); err != nil {
			log.Printf("⚠️ Erreur envoi e-mail confirmation: %v", err)
		}
	}()

	utils.LogAction(c, "order.paid", "order", order.ID.String())

	c.JSON(http.StatusOK, gin.H{
		"message": "Commande confirmée",
		"order":   order,
	})
}

// ListOrders liste les commandes de l'utilisateur
func ListOrders(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	ordersSession, err := database.GetOrdersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := ordersSession.Query(`SELECT order_id, stripe_id, items, amount_total, status, created_at FROM orders WHERE user_id = ?`,
		userID).Iter()

	orders := []models.Order{}
	var order models.Order
	var itemsJSON string
	for iter.Scan(&order.ID, &order.StripeID, &itemsJSON, &order.AmountTotal, &order.Status, &order.CreatedAt) {
		order.UserID = userID
		json.Unmarshal([]byte(itemsJSON), &order.Items)
		orders = append(orders, order)
		order = models.Order{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture commandes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}
