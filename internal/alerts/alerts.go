// Package alerts rolls batch quantities up into per-product stock signals.
package alerts

import (
	"sort"
	"time"

	"pharmsight/m/domain"
)

// DefaultLowStockThreshold applies when a caller passes a non-positive threshold.
const DefaultLowStockThreshold = 50

// TotalStock sums the quantity of every batch.
func TotalStock(batches []domain.InventoryBatch) int64 {
	var total int64
	for _, b := range batches {
		total += b.Quantity
	}
	return total
}

// IsLowStock reports whether the aggregate quantity is below threshold.
func IsLowStock(batches []domain.InventoryBatch, threshold int64) bool {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return TotalStock(batches) < threshold
}

// LowStock keeps the products whose total stock is below threshold.
func LowStock(products []domain.ProductStock, threshold int64) []domain.ProductStock {
	low := make([]domain.ProductStock, 0)
	for _, p := range products {
		if IsLowStock(p.Inventories, threshold) {
			low = append(low, p)
		}
	}
	return low
}

// ExpiringWithin returns the batches whose expiry date falls on or before
// now+days, earliest first. Batches without an expiry date never qualify.
func ExpiringWithin(batches []domain.InventoryBatch, now time.Time, days int) []domain.InventoryBatch {
	cutoff := now.Add(time.Duration(days) * 24 * time.Hour)
	out := make([]domain.InventoryBatch, 0)
	for _, b := range batches {
		if b.ExpiryDate != nil && !b.ExpiryDate.After(cutoff) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ExpiryDate.Before(*out[j].ExpiryDate)
	})
	return out
}
