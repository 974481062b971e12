package models

import "time"

// Account represents a savings scheme member.
type Account struct {
	ID               string    `db:"id" json:"id"`
	BookID           string    `db:"bookid" json:"bookid"`
	Name             string    `db:"name" json:"name"`
	Phone            string    `db:"phone" json:"phone"`
	Email            string    `db:"email" json:"email,omitempty"`
	IsAdmin          bool      `db:"is_admin" json:"isAdmin"`
	TotalGrams       float64   `db:"total_grams" json:"totalGrams"`
	TotalAmountSpent float64   `db:"total_amount_spent" json:"totalAmountSpent"`
	MonthsPaid       int       `db:"months_paid" json:"monthsPaid"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
