package user

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"velours_back_end/internal/database"
	"velours_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

const CartTTL = 30 * 24 * time.Hour // 30 jours

// resolveVariants remplace les sélecteurs de la requête par leur version
// catalogue. Le modificateur de prix d'un bracelet vient toujours de la fiche
// produit, jamais du corps de la requête. Sélecteur inconnu = refus.
func resolveVariants(p models.Product, color *models.VariantColor, strap *models.VariantStrap) (*models.VariantColor, *models.VariantStrap, bool) {
	if color != nil {
		resolved := false
		for _, c := range p.Colors {
			if c.Name == color.Name {
				cc := c
				color = &cc
				resolved = true
				break
			}
		}
		if !resolved {
			return nil, nil, false
		}
	}
	if strap != nil {
		resolved := false
		for _, s := range p.Straps {
			if s.Material == strap.Material {
				ss := s
				strap = &ss
				resolved = true
				break
			}
		}
		if !resolved {
			return nil, nil, false
		}
	}
	return color, strap, true
}

// loadCart lit le panier depuis Redis (panier vide si la clé n'existe pas)
func loadCart(ctx context.Context, userID string) (models.Cart, error) {
	cart := models.Cart{Items: []models.CartLine{}}

	data, err := database.Redis.Get(ctx, "cart:"+userID).Result()
	if err != nil || data == "" {
		return cart, nil
	}

	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return cart, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}
	return cart, nil
}

// saveCart recalcule les totaux, persiste dans Redis et notifie le canal
// pub/sub du user (synchro WebSocket)
func saveCart(ctx context.Context, userID string, cart *models.Cart) error {
	cart.Recompute()

	jsonData, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	if err := database.Redis.Set(ctx, "cart:"+userID, jsonData, CartTTL).Err(); err != nil {
		return err
	}

	database.Redis.Publish(ctx, "cart_events:"+userID, "updated")
	return nil
}

//
// 🛒 GET /api/cart
//
func GetCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	cart, err := loadCart(context.Background(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage panier"})
		return
	}

	cart.Recompute()
	c.JSON(http.StatusOK, cart)
}

//
// 🟢 POST /api/cart/add
//
func AddToCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	var input struct {
		ProductID string               `json:"product_id" binding:"required"`
		Quantity  int                  `json:"quantity" binding:"required,min=1"`
		Color     *models.VariantColor `json:"color"`
		Strap     *models.VariantStrap `json:"strap"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	// 🧩 Récupération du produit depuis ScyllaDB
	session, err := database.GetProductsSession()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur connexion base de données"})
		return
	}

	var (
		name       string
		price      float64
		stock      int
		imageURLs  []string
		colorsJSON string
		strapsJSON string
	)

	err = session.Query(`SELECT name, price, stock, image_urls, colors, straps FROM products WHERE product_id = ?`,
		gocql.UUID(productID)).Scan(&name, &price, &stock, &imageURLs, &colorsJSON, &strapsJSON)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Produit introuvable"})
		return
	}

	if stock < input.Quantity {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Stock insuffisant"})
		return
	}

	product := models.Product{
		ID:        gocql.UUID(productID),
		Name:      name,
		Price:     price,
		ImageURLs: imageURLs,
	}
	if colorsJSON != "" {
		json.Unmarshal([]byte(colorsJSON), &product.Colors)
	}
	if strapsJSON != "" {
		json.Unmarshal([]byte(strapsJSON), &product.Straps)
	}

	color, strap, ok := resolveVariants(product, input.Color, input.Strap)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Variante inconnue pour ce produit"})
		return
	}

	snapshot := product.Snapshot()
	canonicalID := productID.String()

	ctx := context.Background()
	cart, err := loadCart(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage panier"})
		return
	}

	// 🔁 Fusionne sur (produit, coloris, bracelet) sinon nouvelle ligne
	found := false
	for i := range cart.Items {
		if cart.Items[i].SameVariant(canonicalID, color, strap) {
			cart.Items[i].Quantity += input.Quantity
			// prix et modificateur catalogue rafraîchis sur la ligne existante
			cart.Items[i].Product.Price = price
			cart.Items[i].Color = color
			cart.Items[i].Strap = strap
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, models.CartLine{
			LineID:   uuid.NewString(),
			Product:  snapshot,
			Quantity: input.Quantity,
			Color:    color,
			Strap:    strap,
		})
	}

	if err := saveCart(ctx, userID, &cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

//
// 🔁 PUT /api/cart/:lineId
//
func UpdateCartQuantity(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	lineID := c.Param("lineId")

	var input struct {
		Quantity int `json:"quantity" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quantité invalide"})
		return
	}

	ctx := context.Background()
	cart, err := loadCart(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage panier"})
		return
	}

	found := false
	for i := range cart.Items {
		if cart.Items[i].LineID == lineID {
			cart.Items[i].Quantity = input.Quantity
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ligne introuvable"})
		return
	}

	if err := saveCart(ctx, userID, &cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

//
// ❌ DELETE /api/cart/:lineId
//
func RemoveFromCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	lineID := c.Param("lineId")

	ctx := context.Background()
	cart, err := loadCart(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur décodage panier"})
		return
	}

	newItems := []models.CartLine{}
	for _, line := range cart.Items {
		if line.LineID != lineID {
			newItems = append(newItems, line)
		}
	}
	cart.Items = newItems

	if err := saveCart(ctx, userID, &cart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur sauvegarde panier"})
		return
	}

	c.JSON(http.StatusOK, cart)
}

//
// 🧹 DELETE /api/cart/clear
//
func ClearCart(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return
	}

	ctx := context.Background()
	if err := database.Redis.Del(ctx, "cart:"+userID).Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur lors du vidage du panier"})
		return
	}

	database.Redis.Publish(ctx, "cart_events:"+userID, "cleared")

	c.JSON(http.StatusOK, models.Cart{Items: []models.CartLine{}})
}
