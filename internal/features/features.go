// Package features derives the numeric signals sent to the prediction
// service from a product's batch and sales history.
package features

import (
	"math"
	"sort"
	"time"

	"pharmsight/m/domain"
	"pharmsight/m/internal/alerts"
)

const (
	// DefaultWindowDays is the trailing sales window and the divisor of AvgDailySales.
	DefaultWindowDays = 30
	// DefaultDaysSinceReceipt is reported when a product has no batches.
	DefaultDaysSinceReceipt = 30
	// HistoryLen is the fixed length of Vector.HistoricalQuantities.
	HistoryLen = 5
)

// Horizon is the number of days assumed until expiry when no batch carries
// an expiry date. Each consumer is calibrated against its own value.
type Horizon int

const (
	HorizonReorder    Horizon = 180
	HorizonExpiryRisk Horizon = 365
)

const day = 24 * time.Hour

// Vector is the per-request feature set of one product.
type Vector struct {
	CurrentStock         int64
	DaysUntilExpiry      int64
	AvgDailySales        float64
	DaysSinceLastReceipt int64
	HistoricalQuantities [HistoryLen]int64
	Price                float64

	// BatchCount stands in for the purchase-order count.
	BatchCount int
}

// Options tune a derivation.
type Options struct {
	Horizon    Horizon
	WindowDays int
}

func (o Options) withDefaults() Options {
	if o.Horizon <= 0 {
		o.Horizon = HorizonReorder
	}
	if o.WindowDays <= 0 {
		o.WindowDays = DefaultWindowDays
	}
	return o
}

// Derive computes the feature vector for batches as seen at now. The sales
// attached to each batch are expected to be limited to the trailing window
// already; batches may arrive in any order.
func Derive(batches []domain.InventoryBatch, now time.Time, opts Options) Vector {
	opts = opts.withDefaults()

	sorted := make([]domain.InventoryBatch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ReceivedAt.After(sorted[j].ReceivedAt)
	})

	v := Vector{
		CurrentStock:         alerts.TotalStock(sorted),
		DaysSinceLastReceipt: DefaultDaysSinceReceipt,
		BatchCount:           len(sorted),
	}

	expiry := now.Add(time.Duration(opts.Horizon) * day)
	found := false
	var sold int64
	for _, b := range sorted {
		if b.ExpiryDate != nil && (!found || b.ExpiryDate.Before(expiry)) {
			expiry = *b.ExpiryDate
			found = true
		}
		for _, s := range b.Sales {
			sold += s.Quantity
		}
	}
	v.DaysUntilExpiry = max(0, ceilDays(expiry.Sub(now)))
	v.AvgDailySales = float64(sold) / float64(opts.WindowDays)

	if len(sorted) > 0 {
		latest := sorted[0]
		v.DaysSinceLastReceipt = ceilDays(now.Sub(latest.ReceivedAt))
		v.Price = latest.CostPrice
	}

	for i := range v.HistoricalQuantities {
		if i < len(sorted) {
			v.HistoricalQuantities[i] = sorted[i].Quantity
		} else {
			v.HistoricalQuantities[i] = v.CurrentStock
		}
	}
	return v
}

func ceilDays(d time.Duration) int64 {
	return int64(math.Ceil(float64(d) / float64(day)))
}
