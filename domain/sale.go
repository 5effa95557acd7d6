package domain

import "time"

// SaleItem records a quantity sold out of a single batch.
type SaleItem struct {
	ID       string    `json:"id"`
	BatchID  string    `json:"batch_id"`
	Quantity int64     `json:"quantity"`
	SoldAt   time.Time `json:"sold_at"`
}
