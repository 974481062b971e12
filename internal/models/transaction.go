package models

import "time"

// Transaction represents a single committed gold purchase.
// Rows are append-only; the bookid and user name are snapshots
// taken at purchase time and survive account deletion.
type Transaction struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"userId"`
	BookID          string    `db:"bookid" json:"bookid"`
	UserName        string    `db:"user_name" json:"userName"`
	GramsPurchased  float64   `db:"grams_purchased" json:"gramsPurchased"`
	PricePerGram    float64   `db:"price_per_gram" json:"pricePerGram"`
	TotalAmount     float64   `db:"total_amount" json:"totalAmount"`
	TransactionDate time.Time `db:"transaction_date" json:"transactionDate"`
}
