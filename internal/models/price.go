package models

import "time"

// PriceSnapshot is a short-lived read of the live market prices.
// It is never persisted by this service.
type PriceSnapshot struct {
	GoldPricePerGram   float64   `json:"goldPricePerGram"`
	SilverPricePerGram float64   `json:"silverPricePerGram"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
