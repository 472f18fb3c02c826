package models

import (
	"time"

	"github.com/gocql/gocql"
)

type Order struct {
	ID          gocql.UUID `json:"id" db:"order_id"`
	UserID      string     `json:"user_id" db:"user_id"`
	StripeID    string     `json:"stripe_id" db:"stripe_id"`
	Items       []CartLine `json:"items"`
	AmountTotal float64    `json:"amount_total" db:"amount_total"`
	Status      string     `json:"status" db:"status"` // pending, paid, shipped, cancelled
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}
