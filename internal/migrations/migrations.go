package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Run creates the product, inventory and sale item tables read by the
// insight layer. Timestamps are stored as UTC RFC 3339 text so they compare
// lexically under every driver.
func Run(db *sqlx.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS products (
            id VARCHAR(64) PRIMARY KEY,
            organization_id VARCHAR(64) NOT NULL,
            name TEXT NOT NULL,
            generic_name TEXT,
            unit VARCHAR(32) NOT NULL DEFAULT 'unit',
            category TEXT,
            manufacturer TEXT
        );`,
		`CREATE TABLE IF NOT EXISTS inventory (
            id VARCHAR(64) PRIMARY KEY,
            product_id VARCHAR(64) NOT NULL REFERENCES products(id),
            batch_number VARCHAR(64) NOT NULL,
            quantity INTEGER NOT NULL CHECK (quantity >= 0),
            cost_price DOUBLE PRECISION NOT NULL,
            selling_price DOUBLE PRECISION NOT NULL,
            expiry_date VARCHAR(40),
            location TEXT,
            created_at VARCHAR(40) NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS sale_items (
            id VARCHAR(64) PRIMARY KEY,
            inventory_id VARCHAR(64) NOT NULL REFERENCES inventory(id),
            quantity INTEGER NOT NULL,
            created_at VARCHAR(40) NOT NULL
        );`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
