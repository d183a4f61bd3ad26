package catalog

import (
	"nadin-revendedoras/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// FilterOptions lists the talles and colores available in stock for a product set.
type FilterOptions struct {
	Talles  []string `json:"talles"`
	Colores []string `json:"colores"`
}

// BuildFilterOptions collects distinct talle/color values from in-stock variants.
func BuildFilterOptions(products []models.NormalizedProduct) FilterOptions {
	talles := make(map[string]struct{})
	colores := make(map[string]struct{})
	for _, p := range products {
		for _, v := range p.Variants {
			if v.Stock <= 0 {
				continue
			}
			if v.Talle != "" {
				talles[v.Talle] = struct{}{}
			}
			if v.Color != "" {
				colores[v.Color] = struct{}{}
			}
		}
	}
	return FilterOptions{
		Talles:  sortedKeys(talles),
		Colores: sortedKeys(colores),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	SortOptions(out)
	return out
}

// SortOptions orders values numerically where they are numbers ("2" < "10") and
// alphabetically (Spanish collation) otherwise; numbers come first.
func SortOptions(values []string) {
	// collators are not safe for concurrent use
	c := collate.New(language.Spanish, collate.Numeric, collate.IgnoreCase)
	c.SortStrings(values)
}
