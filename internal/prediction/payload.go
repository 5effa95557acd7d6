package prediction

import (
	"pharmsight/m/internal/features"
	"pharmsight/m/internal/surrogate"
)

// forecastRequest is sent to POST /forecast/demand.
type forecastRequest struct {
	Periods int `json:"periods"`
}

// optimizeRequest is sent to POST /inventory/optimize.
type optimizeRequest struct {
	MedicineID         int                        `json:"medicine_id"`
	CurrentStock       int64                      `json:"current_stock"`
	AvgDailySales      float64                    `json:"avg_daily_sales"`
	Price              float64                    `json:"price"`
	DaysUntilExpiry    int64                      `json:"days_until_expiry"`
	DaysSinceLastOrder int64                      `json:"days_since_last_order"`
	OrderCount         int                        `json:"order_count"`
	HistoricalQtyData  [features.HistoryLen]int64 `json:"historical_qty_data"`
}

// expiryRequest is sent to POST /expiry/predict.
type expiryRequest struct {
	MedicineID      int     `json:"medicine_id"`
	MedicineName    string  `json:"medicine_name"`
	DaysUntilExpiry int64   `json:"days_until_expiry"`
	StockQuantity   int64   `json:"stock_quantity"`
	AvgDailySales   float64 `json:"avg_daily_sales"`
	UnitPrice       float64 `json:"unit_price"`
	SupplierID      int     `json:"supplier_id"`
}

// placeholderSupplierID is sent until batches carry a supplier.
const placeholderSupplierID = 0

func newOptimizeRequest(productID string, v features.Vector) optimizeRequest {
	return optimizeRequest{
		MedicineID:         surrogate.ID(productID),
		CurrentStock:       v.CurrentStock,
		AvgDailySales:      v.AvgDailySales,
		Price:              v.Price,
		DaysUntilExpiry:    v.DaysUntilExpiry,
		DaysSinceLastOrder: v.DaysSinceLastReceipt,
		OrderCount:         v.BatchCount,
		HistoricalQtyData:  v.HistoricalQuantities,
	}
}

func newExpiryRequest(productID, name string, v features.Vector) expiryRequest {
	return expiryRequest{
		MedicineID:      surrogate.ID(productID),
		MedicineName:    name,
		DaysUntilExpiry: v.DaysUntilExpiry,
		StockQuantity:   v.CurrentStock,
		AvgDailySales:   v.AvgDailySales,
		UnitPrice:       v.Price,
		SupplierID:      placeholderSupplierID,
	}
}
