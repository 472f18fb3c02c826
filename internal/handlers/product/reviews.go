package product

import (
	"log"
	"net/http"
	"time"

	"velours_back_end/internal/cache"
	"velours_back_end/internal/database"
	"velours_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// CreateReview dépose un avis sur un produit (un seul avis par user/produit)
func CreateReview(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Rating    int    `json:"rating" binding:"required,min=1,max=5"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productUUID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	// Le produit existe ?
	var pid gocql.UUID
	if err := session.Query("SELECT product_id FROM products WHERE product_id = ?",
		gocql.UUID(productUUID)).Scan(&pid); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	// Déjà un avis de ce user ?
	iter := session.Query(`SELECT user_id FROM reviews WHERE product_id = ?`, gocql.UUID(productUUID)).Iter()
	var existingUser string
	for iter.Scan(&existingUser) {
		if existingUser == userID {
			iter.Close()
			c.JSON(http.StatusConflict, gin.H{"error": "Vous avez déjà laissé un avis sur ce produit"})
			return
		}
	}
	iter.Close()

	userName := "Client Velours"
	if user, err := cache.GetUserFromCache(userID); err == nil && user.Name != "" {
		userName = user.Name
	}

	review := models.Review{
		ID:        gocql.TimeUUID(),
		ProductID: gocql.UUID(productUUID),
		UserID:    userID,
		UserName:  userName,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}

	err = session.Query(`INSERT INTO reviews (review_id, product_id, user_id, user_name, rating, comment, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		review.ID, review.ProductID, review.UserID, review.UserName, review.Rating, review.Comment, review.CreatedAt).Exec()
	if err != nil {
		log.Printf("❌ Erreur création avis: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement avis"})
		return
	}

	c.JSON(http.StatusCreated, review)
}

// GetProductReviews liste les avis d'un produit avec la note moyenne
func GetProductReviews(c *gin.Context) {
	productUUID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT review_id, user_id, user_name, rating, comment, created_at FROM reviews WHERE product_id = ?`,
		gocql.UUID(productUUID)).Iter()

	reviews := []models.Review{}
	var r models.Review
	total := 0
	for iter.Scan(&r.ID, &r.UserID, &r.UserName, &r.Rating, &r.Comment, &r.CreatedAt) {
		r.ProductID = gocql.UUID(productUUID)
		total += r.Rating
		reviews = append(reviews, r)
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture avis"})
		return
	}

	average := 0.0
	if len(reviews) > 0 {
		average = float64(total) / float64(len(reviews))
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews":        reviews,
		"average_rating": average,
		"total_reviews":  len(reviews),
	})
}
