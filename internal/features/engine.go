package features

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pharmsight/m/domain"
)

// Source is the read side of the inventory store needed for derivation.
type Source interface {
	// GetProduct returns domain.ErrNotFound when no product has the id.
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	// ListBatches returns the product's batches, newest receipt first, with
	// each batch's sales limited to those at or after salesSince.
	ListBatches(ctx context.Context, productID string, salesSince time.Time) ([]domain.InventoryBatch, error)
}

// Engine loads product history from a Source and derives feature vectors.
type Engine struct {
	source     Source
	clock      Clock
	windowDays int
}

// NewEngine constructs an Engine. A nil clock uses the wall clock and a
// non-positive window falls back to DefaultWindowDays.
func NewEngine(source Source, clock Clock, windowDays int) *Engine {
	if clock == nil {
		clock = SystemClock
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Engine{source: source, clock: clock, windowDays: windowDays}
}

// Derive loads the product and its recent history and computes its vector
// using horizon for batches without an expiry date.
func (e *Engine) Derive(ctx context.Context, productID string, horizon Horizon) (domain.Product, Vector, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return domain.Product{}, Vector{}, fmt.Errorf("product id is required: %w", domain.ErrValidation)
	}

	product, err := e.source.GetProduct(ctx, productID)
	if err != nil {
		return domain.Product{}, Vector{}, fmt.Errorf("load product %s: %w", productID, err)
	}

	now := e.clock.Now()
	since := now.Add(-time.Duration(e.windowDays) * day)
	batches, err := e.source.ListBatches(ctx, productID, since)
	if err != nil {
		return domain.Product{}, Vector{}, fmt.Errorf("load batches for %s: %w", productID, err)
	}

	return product, Derive(batches, now, Options{Horizon: horizon, WindowDays: e.windowDays}), nil
}
