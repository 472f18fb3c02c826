package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Product struct {
	ID                gocql.UUID     `json:"id" db:"product_id"`
	Name              string         `json:"name" db:"name"`
	Description       string         `json:"description" db:"description"`
	Price             float64        `json:"price" db:"price"`
	Stock             int            `json:"stock" db:"stock"`
	LowStockThreshold int            `json:"low_stock_threshold" db:"low_stock_threshold"`
	SKU               string         `json:"sku" db:"sku"`
	CategoryID        gocql.UUID     `json:"category_id" db:"category_id"`
	ImageURLs         []string       `json:"image_urls" db:"image_urls"`
	Tags              []string       `json:"tags" db:"tags"`
	Colors            []VariantColor `json:"colors,omitempty"`
	Straps            []VariantStrap `json:"straps,omitempty"`
	IsActive          bool           `json:"is_active" db:"is_active"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// Snapshot construit la copie dénormalisée embarquée panier/wishlist
func (p Product) Snapshot() ProductSnapshot {
	imageURL := ""
	if len(p.ImageURLs) > 0 {
		imageURL = p.ImageURLs[0]
	}
	return ProductSnapshot{
		ProductID: p.ID.String(),
		Name:      p.Name,
		Price:     p.Price,
		ImageURL:  imageURL,
	}
}

type Category struct {
	ID        gocql.UUID `json:"id" db:"category_id"`
	Name      string     `json:"name" db:"name"`
	Slug      string     `json:"slug" db:"slug"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
