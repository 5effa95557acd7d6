package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pharmsight/m/domain"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return now.Add(-time.Duration(n) * day) }

func dateOf(t time.Time) *time.Time { return &t }

func batch(qty int64, received time.Time) domain.InventoryBatch {
	return domain.InventoryBatch{Quantity: qty, ReceivedAt: received}
}

func TestDerive_NoBatches(t *testing.T) {
	v := Derive(nil, now, Options{})

	assert.Equal(t, int64(0), v.CurrentStock)
	assert.Equal(t, int64(DefaultDaysSinceReceipt), v.DaysSinceLastReceipt)
	assert.Equal(t, [HistoryLen]int64{0, 0, 0, 0, 0}, v.HistoricalQuantities)
	assert.Equal(t, 0.0, v.Price)
	assert.Equal(t, 0.0, v.AvgDailySales)
	assert.Equal(t, 0, v.BatchCount)
}

func TestDerive_ExpiryHorizonDefaults(t *testing.T) {
	batches := []domain.InventoryBatch{batch(10, daysAgo(3))}

	reorder := Derive(batches, now, Options{Horizon: HorizonReorder})
	risk := Derive(batches, now, Options{Horizon: HorizonExpiryRisk})

	assert.Equal(t, int64(180), reorder.DaysUntilExpiry)
	assert.Equal(t, int64(365), risk.DaysUntilExpiry)
	assert.Equal(t, int64(180), Derive(batches, now, Options{}).DaysUntilExpiry)
}

func TestDerive_EarliestExpiryWins(t *testing.T) {
	batches := []domain.InventoryBatch{
		{Quantity: 100, ReceivedAt: daysAgo(1)},
		{Quantity: 50, ReceivedAt: daysAgo(2), ExpiryDate: dateOf(now.Add(400 * day))},
		{Quantity: 5, ReceivedAt: daysAgo(3), ExpiryDate: dateOf(now.Add(20*day + time.Hour))},
	}
	v := Derive(batches, now, Options{Horizon: HorizonReorder})

	// partial days round up
	assert.Equal(t, int64(21), v.DaysUntilExpiry)
}

func TestDerive_ExpiryBeyondDefaultIsUsed(t *testing.T) {
	farOff := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	batches := []domain.InventoryBatch{
		{Quantity: 100, ReceivedAt: daysAgo(1)},
		{Quantity: 50, ReceivedAt: daysAgo(2), ExpiryDate: &farOff},
	}
	v := Derive(batches, now, Options{Horizon: HorizonReorder})

	assert.Equal(t, int64(150), v.CurrentStock)
	assert.Equal(t, 0.0, v.AvgDailySales)
	assert.Equal(t, ceilDays(farOff.Sub(now)), v.DaysUntilExpiry)
	assert.Greater(t, v.DaysUntilExpiry, int64(HorizonExpiryRisk))
}

func TestDerive_ExpiredClampsToZero(t *testing.T) {
	batches := []domain.InventoryBatch{
		{Quantity: 10, ReceivedAt: daysAgo(100), ExpiryDate: dateOf(daysAgo(7))},
	}
	assert.Equal(t, int64(0), Derive(batches, now, Options{}).DaysUntilExpiry)
}

func TestDerive_AvgDailySalesUsesFixedWindow(t *testing.T) {
	batches := []domain.InventoryBatch{
		{Quantity: 40, ReceivedAt: daysAgo(2), Sales: []domain.SaleItem{{Quantity: 100}, {Quantity: 50}}},
		{Quantity: 60, ReceivedAt: daysAgo(9), Sales: []domain.SaleItem{{Quantity: 150}}},
	}
	v := Derive(batches, now, Options{})

	assert.InDelta(t, 10.0, v.AvgDailySales, 1e-9)
}

func TestDerive_HistoryPaddedWithCurrentStock(t *testing.T) {
	batches := []domain.InventoryBatch{
		batch(30, daysAgo(10)),
		batch(20, daysAgo(1)),
		batch(10, daysAgo(5)),
	}
	v := Derive(batches, now, Options{})

	assert.Equal(t, int64(60), v.CurrentStock)
	assert.Equal(t, [HistoryLen]int64{20, 10, 30, 60, 60}, v.HistoricalQuantities)
	assert.Equal(t, 3, v.BatchCount)
}

func TestDerive_HistoryKeepsFiveNewest(t *testing.T) {
	var batches []domain.InventoryBatch
	for i := 1; i <= 10; i++ {
		batches = append(batches, batch(int64(i), daysAgo(i)))
	}
	v := Derive(batches, now, Options{})

	assert.Equal(t, int64(55), v.CurrentStock)
	assert.Equal(t, [HistoryLen]int64{1, 2, 3, 4, 5}, v.HistoricalQuantities)
	assert.Equal(t, 10, v.BatchCount)
}

func TestDerive_LatestBatchDrivesPriceAndReceipt(t *testing.T) {
	batches := []domain.InventoryBatch{
		{Quantity: 5, CostPrice: 2.5, ReceivedAt: daysAgo(12)},
		{Quantity: 5, CostPrice: 3.75, ReceivedAt: now.Add(-4*day - time.Hour)},
	}
	v := Derive(batches, now, Options{})

	assert.Equal(t, 3.75, v.Price)
	assert.Equal(t, int64(5), v.DaysSinceLastReceipt)
}

func TestDerive_StockIsExactSum(t *testing.T) {
	for n := 0; n <= 12; n++ {
		var batches []domain.InventoryBatch
		var want int64
		for i := 0; i < n; i++ {
			q := int64(i*7 + 3)
			want += q
			batches = append(batches, batch(q, daysAgo(i)))
		}
		v := Derive(batches, now, Options{})
		assert.Equal(t, want, v.CurrentStock, "batches=%d", n)
		assert.Len(t, v.HistoricalQuantities, HistoryLen)
	}
}
