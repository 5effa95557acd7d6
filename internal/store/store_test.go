package store

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmsight/m/domain"
	"pharmsight/m/internal/database"
	"pharmsight/m/internal/migrations"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

func seedFixtures(t *testing.T, db *sqlx.DB) {
	t.Helper()
	stmts := []struct {
		query string
		args  []any
	}{
		{`INSERT INTO products (id, organization_id, name, generic_name, unit, category) VALUES (?, ?, ?, ?, ?, ?)`,
			[]any{"p-1", "org-1", "Paracetamol 500mg", "Paracetamol", "tablet", "Pain Relief"}},
		{`INSERT INTO products (id, organization_id, name, unit) VALUES (?, ?, ?, ?)`,
			[]any{"p-2", "org-1", "Amoxicillin 250mg", "capsule"}},
		{`INSERT INTO products (id, organization_id, name, unit) VALUES (?, ?, ?, ?)`,
			[]any{"p-3", "org-2", "Cetirizine 10mg", "tablet"}},
		{`INSERT INTO inventory (id, product_id, batch_number, quantity, cost_price, selling_price, expiry_date, location, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{"b-old", "p-1", "B-001", 100, 3.0, 5.0, nil, "Shelf A1", FormatTime(now.AddDate(0, 0, -60))}},
		{`INSERT INTO inventory (id, product_id, batch_number, quantity, cost_price, selling_price, expiry_date, location, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			[]any{"b-new", "p-1", "B-002", 50, 3.2, 5.0, "2099-01-01", nil, FormatTime(now.AddDate(0, 0, -2))}},
		{`INSERT INTO sale_items (id, inventory_id, quantity, created_at) VALUES (?, ?, ?, ?)`,
			[]any{"s-recent", "b-old", 12, FormatTime(now.AddDate(0, 0, -3))}},
		{`INSERT INTO sale_items (id, inventory_id, quantity, created_at) VALUES (?, ?, ?, ?)`,
			[]any{"s-stale", "b-old", 40, FormatTime(now.AddDate(0, 0, -45))}},
		{`INSERT INTO sale_items (id, inventory_id, quantity, created_at) VALUES (?, ?, ?, ?)`,
			[]any{"s-new", "b-new", 8, FormatTime(now.AddDate(0, 0, -1))}},
	}
	for _, s := range stmts {
		_, err := db.Exec(db.Rebind(s.query), s.args...)
		require.NoError(t, err)
	}
}

func TestGetProduct(t *testing.T) {
	db := openDB(t)
	seedFixtures(t, db)
	s := New(db)

	p, err := s.GetProduct(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Product{
		ID:             "p-1",
		OrganizationID: "org-1",
		Name:           "Paracetamol 500mg",
		GenericName:    "Paracetamol",
		Unit:           "tablet",
		Category:       "Pain Relief",
	}, p)
}

func TestGetProduct_NotFound(t *testing.T) {
	s := New(openDB(t))

	_, err := s.GetProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBatches(t *testing.T) {
	db := openDB(t)
	seedFixtures(t, db)
	s := New(db)

	batches, err := s.ListBatches(context.Background(), "p-1", now.AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.Equal(t, "b-new", batches[0].ID)
	require.NotNil(t, batches[0].ExpiryDate)
	assert.Equal(t, 2099, batches[0].ExpiryDate.Year())
	assert.Equal(t, now.AddDate(0, 0, -2), batches[0].ReceivedAt)
	require.Len(t, batches[0].Sales, 1)
	assert.Equal(t, int64(8), batches[0].Sales[0].Quantity)

	assert.Equal(t, "b-old", batches[1].ID)
	assert.Nil(t, batches[1].ExpiryDate)
	assert.Equal(t, "Shelf A1", batches[1].Location)
	require.Len(t, batches[1].Sales, 1, "sales older than the window are excluded")
	assert.Equal(t, "s-recent", batches[1].Sales[0].ID)
}

func TestListBatches_Empty(t *testing.T) {
	db := openDB(t)
	seedFixtures(t, db)

	batches, err := New(db).ListBatches(context.Background(), "p-2", now)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestListProducts(t *testing.T) {
	db := openDB(t)
	seedFixtures(t, db)

	products, err := New(db).ListProducts(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, products, 2)

	assert.Equal(t, "Amoxicillin 250mg", products[0].Name)
	assert.Empty(t, products[0].Inventories)
	assert.Equal(t, "Paracetamol 500mg", products[1].Name)
	require.Len(t, products[1].Inventories, 2)
	assert.Equal(t, "b-new", products[1].Inventories[0].ID)
}

func TestListProducts_UnknownOrganization(t *testing.T) {
	db := openDB(t)
	seedFixtures(t, db)

	products, err := New(db).ListProducts(context.Background(), "org-x")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2026-03-15T12:00:00Z", "2026-03-15 12:00:00", "2026-03-15T14:00:00+02:00"} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, now, got, in)
	}
	_, err := ParseTime("15/03/2026")
	assert.Error(t, err)
}

func TestListBatches_WindowOnMixedTimestampLayouts(t *testing.T) {
	db := openDB(t)
	seedFixtures(t, db)
	since := time.Date(2026, 2, 13, 12, 0, 0, 0, time.UTC)

	sales := []struct {
		id, createdAt string
	}{
		{"s-sql-inside", "2026-02-13 18:00:00"},
		{"s-frac-inside", "2026-02-13T12:00:00.5Z"},
		{"s-date-outside", "2026-02-13"},
		{"s-offset-outside", "2026-02-13T13:00:00+02:00"},
		{"s-offset-inside", "2026-02-13T10:30:00-02:00"},
	}
	for _, s := range sales {
		_, err := db.Exec(db.Rebind(`INSERT INTO sale_items (id, inventory_id, quantity, created_at) VALUES (?, ?, ?, ?)`),
			s.id, "b-old", 1, s.createdAt)
		require.NoError(t, err)
	}

	batches, err := New(db).ListBatches(context.Background(), "p-1", since)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	var ids []string
	for _, b := range batches {
		for _, sale := range b.Sales {
			ids = append(ids, sale.ID)
			assert.False(t, sale.SoldAt.Before(since), sale.ID)
		}
	}
	assert.ElementsMatch(t, []string{"s-new", "s-recent", "s-sql-inside", "s-frac-inside", "s-offset-inside"}, ids)
}
