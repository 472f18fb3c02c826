package models

import (
	"time"

	"github.com/gocql/gocql"
)

type WishlistItem struct {
	UserID    string     `json:"user_id" db:"user_id"`
	ProductID gocql.UUID `json:"product_id" db:"product_id"`
	AddedAt   time.Time  `json:"added_at" db:"added_at"`
}

type Wishlist struct {
	UserID string            `json:"user_id,omitempty"`
	Items  []ProductSnapshot `json:"items"`
}

// Contains vérifie l'appartenance d'un produit (scan linéaire, les wishlists
// restent petites)
func (w Wishlist) Contains(productID string) bool {
	for _, item := range w.Items {
		if item.ProductID == productID {
			return true
		}
	}
	return false
}
