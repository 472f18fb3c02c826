package product

import (
	"encoding/json"

	"velours_back_end/internal/models"

	"github.com/gocql/gocql"
)

// Les variantes (coloris, bracelets) sont stockées en JSON dans deux
// colonnes text, pas de type UDT

func marshalVariants(colors []models.VariantColor, straps []models.VariantStrap) (string, string) {
	colorsJSON, _ := json.Marshal(colors)
	strapsJSON, _ := json.Marshal(straps)
	return string(colorsJSON), string(strapsJSON)
}

func unmarshalVariants(colorsJSON, strapsJSON string) ([]models.VariantColor, []models.VariantStrap) {
	var colors []models.VariantColor
	var straps []models.VariantStrap
	if colorsJSON != "" {
		json.Unmarshal([]byte(colorsJSON), &colors)
	}
	if strapsJSON != "" {
		json.Unmarshal([]byte(strapsJSON), &straps)
	}
	return colors, straps
}

// scanProduct lit un produit complet depuis ScyllaDB
func scanProduct(session *gocql.Session, productID gocql.UUID) (models.Product, error) {
	var p models.Product
	var colorsJSON, strapsJSON string

	err := session.Query(`SELECT product_id, name, description, price, stock, low_stock_threshold, sku, category_id, image_urls, tags, colors, straps, is_active, created_at, updated_at
	                      FROM products WHERE product_id = ?`, productID).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.LowStockThreshold,
		&p.SKU, &p.CategoryID, &p.ImageURLs, &p.Tags, &colorsJSON, &strapsJSON,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}

	p.Colors, p.Straps = unmarshalVariants(colorsJSON, strapsJSON)
	return p, nil
}
