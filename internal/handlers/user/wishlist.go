package user

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const wishlistCacheTTL = 10 * time.Minute

// fetchWishlist lit la wishlist depuis ScyllaDB et résout les snapshots produit
func fetchWishlist(userID string) (models.Wishlist, error) {
	wishlist := models.Wishlist{UserID: userID, Items: []models.ProductSnapshot{}}

	session, err := database.GetUsersSession()
	if err != nil {
		return wishlist, err
	}

	iter := session.Query("SELECT product_id, added_at FROM wishlist WHERE user_id = ?", userID).Iter()

	var rows []models.WishlistItem
	var row models.WishlistItem
	for iter.Scan(&row.ProductID, &row.AddedAt) {
		row.UserID = userID
		rows = append(rows, row)
	}
	if err := iter.Close(); err != nil {
		return wishlist, err
	}

	productsSession, err := database.GetProductsSession()
	if err != nil {
		return wishlist, err
	}

	for _, item := range rows {
		var (
			name      string
			price     float64
			imageURLs []string
		)
		err := productsSession.Query(`SELECT name, price, image_urls FROM products WHERE product_id = ?`, item.ProductID).
			Scan(&name, &price, &imageURLs)
		if err != nil {
			// Produit retiré du catalogue : on l'ignore
			continue
		}
		wishlist.Items = append(wishlist.Items, models.Product{
			ID:        item.ProductID,
			Name:      name,
			Price:     price,
			ImageURLs: imageURLs,
		}.Snapshot())
	}

	return wishlist, nil
}

// GetWishlist récupère la wishlist de l'utilisateur (cache Redis d'abord)
func GetWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	ctx := context.Background()
	cacheKey := "wishlist:" + userID

	cached, err := database.Redis.Get(ctx, cacheKey).Result()
	if err == nil {
		var wishlist models.Wishlist
		if json.Unmarshal([]byte(cached), &wishlist) == nil {
			c.JSON(http.StatusOK, wishlist)
			return
		}
	}

	wishlist, err := fetchWishlist(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture wishlist"})
		return
	}

	if data, err := json.Marshal(wishlist); err == nil {
		database.Redis.Set(ctx, cacheKey, data, wishlistCacheTTL)
	}

	c.JSON(http.StatusOK, wishlist)
}

// ToggleWishlist ajoute ou retire un produit et renvoie la liste à jour
func ToggleWishlist(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productUUID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetUsersSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Membre déjà présent ?
	var existing gocql.UUID
	err = session.Query("SELECT product_id FROM wishlist WHERE user_id = ? AND product_id = ?",
		userID, gocql.UUID(productUUID)).Scan(&existing)

	if err == nil {
		err = session.Query("DELETE FROM wishlist WHERE user_id = ? AND product_id = ?",
			userID, gocql.UUID(productUUID)).Exec()
		if err != nil {
			log.Printf("❌ Erreur suppression wishlist: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression de la wishlist"})
			return
		}
		log.Printf("🗑️ Produit %s retiré de la wishlist de %s", req.ProductID, userID)
	} else {
		// Vérifier que le produit existe au catalogue
		productsSession, err := database.GetProductsSession()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
			return
		}
		var pid gocql.UUID
		if err := productsSession.Query("SELECT product_id FROM products WHERE product_id = ?",
			gocql.UUID(productUUID)).Scan(&pid); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
			return
		}

		err = session.Query(`INSERT INTO wishlist (user_id, product_id, added_at) VALUES (?, ?, ?)`,
			userID, gocql.UUID(productUUID), time.Now()).Exec()
		if err != nil {
			log.Printf("❌ Erreur ajout wishlist: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur ajout à la wishlist"})
			return
		}
		log.Printf("⭐ Produit %s ajouté à la wishlist de %s", req.ProductID, userID)
	}

	// Invalider le cache et renvoyer la liste complète à jour
	ctx := context.Background()
	database.Redis.Del(ctx, "wishlist:"+userID)

	wishlist, err := fetchWishlist(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture wishlist"})
		return
	}

	if data, err := json.Marshal(wishlist); err == nil {
		database.Redis.Set(ctx, "wishlist:"+userID, data, wishlistCacheTTL)
	}

	c.JSON(http.StatusOK, wishlist)
}
