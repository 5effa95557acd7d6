package seed

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"pharmsight/m/internal/store"
)

// catalog columns: name, generic_name, category, unit, manufacturer,
// cost_price, selling_price, quantity, expiry_days, location
const catalogColumns = 10

// LoadCatalog ingests a demo catalog CSV for organizationID, creating one
// product and one opening batch per row. Rows naming a product the
// organization already has are skipped. An empty expiry_days leaves the
// batch without an expiry date. It returns the number of products created.
func LoadCatalog(db *sqlx.DB, csvPath, organizationID string, now time.Time) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("unable to open catalog %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("unable to read catalog header: %w", err)
	}

	tx, err := db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("unable to start catalog transaction: %w", err)
	}
	defer tx.Rollback()

	existsQuery := tx.Rebind(`SELECT COUNT(*) FROM products WHERE organization_id = ? AND name = ?`)
	productInsert := tx.Rebind(`INSERT INTO products (id, organization_id, name, generic_name, unit, category, manufacturer) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	batchInsert := tx.Rebind(`INSERT INTO inventory (id, product_id, batch_number, quantity, cost_price, selling_price, expiry_date, location, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	rows := 0
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return 0, fmt.Errorf("catalog line %d: %w", line, err)
		}
		if len(record) < catalogColumns {
			continue
		}
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		name := record[0]
		if name == "" {
			continue
		}

		cost, err := strconv.ParseFloat(record[5], 64)
		if err != nil {
			return 0, fmt.Errorf("catalog line %d cost_price: %w", line, err)
		}
		selling, err := strconv.ParseFloat(record[6], 64)
		if err != nil {
			return 0, fmt.Errorf("catalog line %d selling_price: %w", line, err)
		}
		qty, err := strconv.ParseInt(record[7], 10, 64)
		if err != nil || qty < 0 {
			return 0, fmt.Errorf("catalog line %d quantity must be a non-negative integer", line)
		}
		var expiry *string
		if record[8] != "" {
			days, err := strconv.Atoi(record[8])
			if err != nil {
				return 0, fmt.Errorf("catalog line %d expiry_days: %w", line, err)
			}
			formatted := store.FormatTime(now.AddDate(0, 0, days))
			expiry = &formatted
		}

		var count int
		if err := tx.Get(&count, existsQuery, organizationID, name); err != nil {
			return 0, fmt.Errorf("unable to check product %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		unit := record[3]
		if unit == "" {
			unit = "unit"
		}
		productID := uuid.NewString()
		if _, err := tx.Exec(productInsert, productID, organizationID, name, record[1], unit, record[2], record[4]); err != nil {
			return 0, fmt.Errorf("unable to insert product %s: %w", name, err)
		}
		batchID := uuid.New()
		batchNumber := "DEMO-" + strings.ToUpper(batchID.String()[:8])
		if _, err := tx.Exec(batchInsert, batchID.String(), productID, batchNumber, qty, cost, selling, expiry, record[9], store.FormatTime(now)); err != nil {
			return 0, fmt.Errorf("unable to insert batch for %s: %w", name, err)
		}
		rows++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("unable to commit catalog seed: %w", err)
	}
	return rows, nil
}
