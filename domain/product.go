package domain

type Product struct {
	ID             string `db:"id" json:"id"`
	OrganizationID string `db:"organization_id" json:"organization_id"`
	Name           string `db:"name" json:"name"`
	GenericName    string `db:"generic_name" json:"generic_name,omitempty"`
	Unit           string `db:"unit" json:"unit"`
	Category       string `db:"category" json:"category,omitempty"`
	Manufacturer   string `db:"manufacturer" json:"manufacturer,omitempty"`
}

// ProductStock is a product together with every batch received for it.
type ProductStock struct {
	Product
	Inventories []InventoryBatch `json:"inventories"`
}
