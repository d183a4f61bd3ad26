package catalog

import (
	"strings"

	"nadin-revendedoras/models"
)

// Filters narrows a catalog query. Brand, Category and Sex are applied in the database;
// Search, Talle and Color are applied in memory on the decoded products.
type Filters struct {
	Brand    string
	Category string
	Sex      string
	Search   string
	Talle    string
	Color    string
}

// CategoryFilter joins the non-empty navigation levels into one path prefix.
func CategoryFilter(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, models.CategorySeparator)
}

// ApplyInMemory keeps the products matching the search term and variant filters.
func ApplyInMemory(products []models.NormalizedProduct, f Filters) []models.NormalizedProduct {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" && f.Talle == "" && f.Color == "" {
		return products
	}
	out := products[:0:0]
	for _, p := range products {
		if term != "" && !MatchesSearch(p, term) {
			continue
		}
		if (f.Talle != "" || f.Color != "") && !HasVariant(p, f.Talle, f.Color) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// MatchesSearch does a case-insensitive substring match on name, brand and variant SKUs.
// term must already be lower-cased.
func MatchesSearch(p models.NormalizedProduct, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Brand), term) {
		return true
	}
	for _, v := range p.Variants {
		if v.SKU != "" && strings.Contains(strings.ToLower(v.SKU), term) {
			return true
		}
	}
	return false
}

// HasVariant reports whether one in-stock variant matches both talle and color (empty = any).
func HasVariant(p models.NormalizedProduct, talle, color string) bool {
	for _, v := range p.Variants {
		if v.Stock <= 0 {
			continue
		}
		if talle != "" && !strings.EqualFold(v.Talle, talle) {
			continue
		}
		if color != "" && !strings.EqualFold(v.Color, color) {
			continue
		}
		return true
	}
	return false
}
