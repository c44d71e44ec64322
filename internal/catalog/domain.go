// Package catalog reads the product and business records owned by the
// inventory module. The engine only ever writes the narrow field set it is
// allowed to touch (sell price, variant price, template link fields);
// everything else belongs to the external back-office CRUD.
package catalog

import "time"

// Product is the engine's view of an inventory product. Lookup results
// embed it; the row itself is loaded by the barcode repository's joins.
type Product struct {
	ID                    int64
	BusinessID            int64
	SKU                   string
	Name                  string
	SellPrice             float64
	CategoryID            int64
	CreatedFromTemplateID int64
	TemplateLinkedAt      *time.Time
}

// BusinessConfig carries the SKU generation settings of a business.
type BusinessConfig struct {
	BusinessID int64
	SKUFormat  string
	SKUPrefix  string
	SKUDigits  int
}
