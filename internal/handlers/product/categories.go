package product

import (
	"net/http"
	"strings"
	"time"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"
	"velours_back_end/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

// ListCategories liste les catégories du catalogue
func ListCategories(c *gin.Context) {
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	iter := session.Query(`SELECT category_id, name, slug, created_at FROM categories`).Iter()

	categories := []models.Category{}
	var cat models.Category
	for iter.Scan(&cat.ID, &cat.Name, &cat.Slug, &cat.CreatedAt) {
		categories = append(categories, cat)
		cat = models.Category{}
	}
	if err := iter.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lecture catégories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories, "count": len(categories)})
}

// CreateCategory crée une catégorie (admin)
func CreateCategory(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nom requis"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	cat := models.Category{
		ID:        gocql.TimeUUID(),
		Name:      input.Name,
		Slug:      slugify(input.Name),
		CreatedAt: time.Now(),
	}

	if err := session.Query(`INSERT INTO categories (category_id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
		cat.ID, cat.Name, cat.Slug, cat.CreatedAt).Exec(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création catégorie"})
		return
	}

	utils.LogAction(c, "category.create", "category", cat.ID.String())

	c.JSON(http.StatusCreated, cat)
}

// slugify transforme "Montres Automatiques" en "montres-automatiques"
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug
}
