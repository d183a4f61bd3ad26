package models

import (
	"time"
)

// Sex is the audience inferred for a cached product
type Sex string

const (
	SexMujer  Sex = "Mujer"
	SexHombre Sex = "Hombre"
	SexNinos  Sex = "Niños"
	SexUnisex Sex = "Unisex"
)

const (
	// NoCategory is stored when a product has no resolvable category path.
	NoCategory = "Sin categoría"
	// NoBrand is stored when the remote product carries no brand.
	NoBrand = "Sin marca"
	// PlaceholderImage is used when the remote product has no images.
	PlaceholderImage = "/placeholder.svg"
	// CategorySeparator joins category names root-most first.
	CategorySeparator = " > "
)

// CachedProduct is one row of the local catalog snapshot.
// The whole table is replaced on every sync; nothing else writes to it.
type CachedProduct struct {
	ProductID  string    `gorm:"primaryKey;type:varchar(64)" json:"product_id"`
	Data       string    `gorm:"type:text;not null" json:"data"` // JSON-encoded NormalizedProduct
	Brand      string    `gorm:"type:varchar(128);index" json:"brand"`
	Category   string    `gorm:"type:text;index" json:"category"`
	Sex        Sex       `gorm:"type:varchar(16);index" json:"sex"`
	SalesCount int64     `gorm:"default:0;index" json:"sales_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NormalizedProduct is the catalog shape served to the storefront.
type NormalizedProduct struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Brand    string    `json:"brand"`
	Category string    `json:"category"`
	Image    string    `json:"image"`
	Variants []Variant `json:"variants"`
}

// Variant is a flattened remote variant (talle × color).
type Variant struct {
	ID    string  `json:"id"`
	SKU   string  `json:"sku"`
	Price float64 `json:"price"` // wholesale ("mayorista") price
	Stock int64   `json:"stock"`
	Talle string  `json:"talle"`
	Color string  `json:"color"`
}

// FindVariant returns the variant with the given id.
func (p *NormalizedProduct) FindVariant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}
