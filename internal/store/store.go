package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"pharmsight/m/domain"
)

// SQLStore reads products, batches and sale items through sqlx. It never writes.
type SQLStore struct {
	db *sqlx.DB
}

// New constructs a SQLStore.
func New(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

const productColumns = `p.id, p.organization_id, p.name, COALESCE(p.generic_name, '') AS generic_name,
        p.unit, COALESCE(p.category, '') AS category, COALESCE(p.manufacturer, '') AS manufacturer`

const batchColumns = `i.id, i.product_id, i.batch_number, i.quantity, i.cost_price, i.selling_price,
        i.expiry_date, COALESCE(i.location, '') AS location, i.created_at`

type batchRow struct {
	ID           string         `db:"id"`
	ProductID    string         `db:"product_id"`
	BatchNumber  string         `db:"batch_number"`
	Quantity     int64          `db:"quantity"`
	CostPrice    float64        `db:"cost_price"`
	SellingPrice float64        `db:"selling_price"`
	ExpiryDate   sql.NullString `db:"expiry_date"`
	Location     string         `db:"location"`
	CreatedAt    string         `db:"created_at"`
}

func (r batchRow) toDomain() (domain.InventoryBatch, error) {
	received, err := ParseTime(r.CreatedAt)
	if err != nil {
		return domain.InventoryBatch{}, fmt.Errorf("batch %s created_at: %w", r.ID, err)
	}
	b := domain.InventoryBatch{
		ID:           r.ID,
		ProductID:    r.ProductID,
		BatchNumber:  r.BatchNumber,
		Quantity:     r.Quantity,
		CostPrice:    r.CostPrice,
		SellingPrice: r.SellingPrice,
		Location:     r.Location,
		ReceivedAt:   received,
	}
	if r.ExpiryDate.Valid && r.ExpiryDate.String != "" {
		expiry, err := ParseTime(r.ExpiryDate.String)
		if err != nil {
			return domain.InventoryBatch{}, fmt.Errorf("batch %s expiry_date: %w", r.ID, err)
		}
		b.ExpiryDate = &expiry
	}
	return b, nil
}

type saleRow struct {
	ID          string `db:"id"`
	InventoryID string `db:"inventory_id"`
	Quantity    int64  `db:"quantity"`
	CreatedAt   string `db:"created_at"`
}

// GetProduct returns domain.ErrNotFound when no product has the id.
func (s *SQLStore) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	query := s.db.Rebind(`SELECT ` + productColumns + ` FROM products p WHERE p.id = ?`)
	err := s.db.GetContext(ctx, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

// ListBatches returns the product's batches newest first, each carrying the
// sale items recorded at or after salesSince.
func (s *SQLStore) ListBatches(ctx context.Context, productID string, salesSince time.Time) ([]domain.InventoryBatch, error) {
	var rows []batchRow
	query := s.db.Rebind(`SELECT ` + batchColumns + ` FROM inventory i WHERE i.product_id = ? ORDER BY i.created_at DESC, i.id`)
	if err := s.db.SelectContext(ctx, &rows, query, productID); err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}

	batches := make([]domain.InventoryBatch, 0, len(rows))
	index := make(map[string]int, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		index[b.ID] = len(batches)
		batches = append(batches, b)
	}
	if len(batches) == 0 {
		return batches, nil
	}

	var sales []saleRow
	salesQuery := s.db.Rebind(`SELECT si.id, si.inventory_id, si.quantity, si.created_at
                FROM sale_items si
                JOIN inventory i ON i.id = si.inventory_id
                WHERE i.product_id = ?`)
	if err := s.db.SelectContext(ctx, &sales, salesQuery, productID); err != nil {
		return nil, fmt.Errorf("query sale items: %w", err)
	}
	for _, row := range sales {
		soldAt, err := ParseTime(row.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("sale item %s created_at: %w", row.ID, err)
		}
		// created_at may use any layout ParseTime accepts.
		if soldAt.Before(salesSince) {
			continue
		}
		i, ok := index[row.InventoryID]
		if !ok {
			continue
		}
		batches[i].Sales = append(batches[i].Sales, domain.SaleItem{
			ID:       row.ID,
			BatchID:  row.InventoryID,
			Quantity: row.Quantity,
			SoldAt:   soldAt,
		})
	}
	return batches, nil
}

// ListProducts returns an organization's products by name, each with all of
// its batches newest first. Sale items are not loaded.
func (s *SQLStore) ListProducts(ctx context.Context, organizationID string) ([]domain.ProductStock, error) {
	var products []domain.Product
	query := s.db.Rebind(`SELECT ` + productColumns + ` FROM products p WHERE p.organization_id = ? ORDER BY p.name`)
	if err := s.db.SelectContext(ctx, &products, query, organizationID); err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	result := make([]domain.ProductStock, len(products))
	if len(products) == 0 {
		return result, nil
	}

	ids := make([]string, len(products))
	byID := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		byID[p.ID] = i
		result[i] = domain.ProductStock{Product: p, Inventories: []domain.InventoryBatch{}}
	}

	batchQuery, args, err := sqlx.In(`SELECT `+batchColumns+` FROM inventory i WHERE i.product_id IN (?) ORDER BY i.created_at DESC, i.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare batches query: %w", err)
	}
	var rows []batchRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(batchQuery), args...); err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		i := byID[b.ProductID]
		result[i].Inventories = append(result[i].Inventories, b)
	}
	return result, nil
}
