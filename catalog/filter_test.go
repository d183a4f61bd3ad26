package catalog

import (
	"testing"

	"nadin-revendedoras/models"

	"github.com/stretchr/testify/assert"
)

func sampleProducts() []models.NormalizedProduct {
	return []models.NormalizedProduct{
		{ID: "1", Name: "Bombacha Less", Brand: "Nadin", Variants: []models.Variant{
			{ID: "1a", SKU: "NAD-BL-M", Talle: "M", Color: "Negro", Stock: 3},
			{ID: "1b", SKU: "NAD-BL-L", Talle: "L", Color: "Rojo", Stock: 0},
		}},
		{ID: "2", Name: "Corpiño Soft", Brand: "Lody", Variants: []models.Variant{
			{ID: "2a", SKU: "LD-CS-90", Talle: "90", Color: "Rojo", Stock: 2},
		}},
		{ID: "3", Name: "Boxer", Brand: "Sin marca", Variants: []models.Variant{
			{ID: "3a", SKU: "BX-XL", Talle: "XL", Color: "Gris", Stock: 5},
		}},
	}
}

func ids(products []models.NormalizedProduct) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestCategoryFilter(t *testing.T) {
	assert.Equal(t, "MUJER > ROPA INTERIOR > BOMBACHAS", CategoryFilter("MUJER", "ROPA INTERIOR", "BOMBACHAS"))
	assert.Equal(t, "MUJER", CategoryFilter("MUJER", "", " "))
	assert.Equal(t, "ROPA INTERIOR", CategoryFilter("", "ROPA INTERIOR", ""))
	assert.Equal(t, "", CategoryFilter())
}

func TestApplyInMemory_Search(t *testing.T) {
	products := sampleProducts()

	assert.Equal(t, []string{"1"}, ids(ApplyInMemory(products, Filters{Search: "LESS"})), "name")
	assert.Equal(t, []string{"2"}, ids(ApplyInMemory(products, Filters{Search: "lody"})), "brand")
	assert.Equal(t, []string{"3"}, ids(ApplyInMemory(products, Filters{Search: "bx-xl"})), "sku")
	assert.Empty(t, ApplyInMemory(products, Filters{Search: "pijama"}))
}

func TestApplyInMemory_TalleColorNeedSameInStockVariant(t *testing.T) {
	products := sampleProducts()

	assert.Equal(t, []string{"1"}, ids(ApplyInMemory(products, Filters{Talle: "m"})))
	assert.Equal(t, []string{"2"}, ids(ApplyInMemory(products, Filters{Color: "Rojo"})), "product 1's red variant is out of stock")
	assert.Empty(t, ApplyInMemory(products, Filters{Talle: "M", Color: "Rojo"}))
	assert.Equal(t, []string{"2"}, ids(ApplyInMemory(products, Filters{Talle: "90", Color: "rojo"})))
}

func TestApplyInMemory_NoFiltersReturnsInput(t *testing.T) {
	products := sampleProducts()
	assert.Len(t, ApplyInMemory(products, Filters{}), 3)
}
