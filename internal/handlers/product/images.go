package product

import (
	"fmt"
	"net/http"
	"time"

	"velours_back_end/internal/database"
	"velours_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// UploadProductImage envoie une image produit dans MinIO (admin)
func UploadProductImage(c *gin.Context) {
	productUUID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier 'image' requis"})
		return
	}

	objectName := fmt.Sprintf("products/%s/%d-%s", productUUID.String(), time.Now().Unix(), file.Filename)

	url, err := services.UploadFile(objectName, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur upload image"})
		return
	}

	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	err = session.Query(`UPDATE products SET image_urls = image_urls + ? WHERE product_id = ?`,
		[]string{url}, gocql.UUID(productUUID)).Exec()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur enregistrement image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Image envoyée",
		"image_url": url,
	})
}

// GetPresignedImage renvoie une URL signée temporaire pour un objet image
func GetPresignedImage(c *gin.Context) {
	objectName := c.Query("object")
	if objectName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'object' requis"})
		return
	}

	url, err := services.PresignedImageURL(objectName, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur génération URL signée"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
