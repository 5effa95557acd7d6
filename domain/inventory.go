package domain

import "time"

// InventoryBatch is one received lot of a product.
type InventoryBatch struct {
	ID           string     `json:"id"`
	ProductID    string     `json:"product_id"`
	BatchNumber  string     `json:"batch_number"`
	Quantity     int64      `json:"quantity"`
	CostPrice    float64    `json:"cost_price"`
	SellingPrice float64    `json:"selling_price"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	Location     string     `json:"location,omitempty"`
	ReceivedAt   time.Time  `json:"received_at"`
	Sales        []SaleItem `json:"-"`
}
