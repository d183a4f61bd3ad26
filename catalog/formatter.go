package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nadin-revendedoras/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidProductID = errors.New("product has no valid id")
	ErrMissingName      = errors.New("product has no name")
)

// FormatStats reports data-quality counters for one formatting pass.
// Levels is keyed "0", "1", "2", "3" and "4+".
type FormatStats struct {
	Levels      map[string]int `json:"levels"`
	Dropped     int            `json:"dropped"`
	Unpublished int            `json:"unpublished"`
}

func newFormatStats() FormatStats {
	return FormatStats{Levels: map[string]int{"0": 0, "1": 0, "2": 0, "3": 0, "4+": 0}}
}

func (s *FormatStats) addLevel(path string) {
	n := CategoryLevels(path)
	if n >= 4 {
		s.Levels["4+"]++
		return
	}
	s.Levels[strconv.Itoa(n)]++
}

// FormatProducts normalizes every published remote product.
// A product that fails to format is logged and left out; it never aborts the batch.
func FormatProducts(rawProducts []models.RemoteProduct, categoriesByID CategoryIndex) ([]models.NormalizedProduct, FormatStats) {
	out := make([]models.NormalizedProduct, 0, len(rawProducts))
	stats := newFormatStats()

	for i := range rawProducts {
		rp := &rawProducts[i]
		if !rp.Published {
			stats.Unpublished++
			continue
		}
		p, err := FormatProduct(rp, categoriesByID)
		if err != nil {
			stats.Dropped++
			log.Warn().Err(err).Int64("product_id", rp.ID).Msg("[CATALOG] dropping product that failed to format")
			continue
		}
		stats.addLevel(p.Category)
		out = append(out, p)
	}

	log.Info().
		Int("formatted", len(out)).
		Int("dropped", stats.Dropped).
		Int("unpublished", stats.Unpublished).
		Interface("category_levels", stats.Levels).
		Msg("[CATALOG] formatting finished")

	return out, stats
}

// FormatProduct maps one remote product. Panics from malformed payloads are returned as errors.
func FormatProduct(rp *models.RemoteProduct, categoriesByID CategoryIndex) (p models.NormalizedProduct, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("formatting product %d: %v", rp.ID, r)
		}
	}()

	if rp.ID <= 0 {
		return p, ErrInvalidProductID
	}
	name := strings.TrimSpace(rp.Name.String())
	if name == "" {
		return p, fmt.Errorf("product %d: %w", rp.ID, ErrMissingName)
	}

	p = models.NormalizedProduct{
		ID:       strconv.FormatInt(rp.ID, 10),
		Name:     name,
		Brand:    resolveBrand(rp.Brand),
		Category: resolveCategory(rp, categoriesByID),
		Image:    resolveImage(rp.Images),
		Variants: make([]models.Variant, 0, len(rp.Variants)),
	}
	for _, v := range rp.Variants {
		p.Variants = append(p.Variants, formatVariant(v))
	}
	return p, nil
}

func resolveBrand(brand *string) string {
	if brand == nil || strings.TrimSpace(*brand) == "" {
		return models.NoBrand
	}
	return strings.TrimSpace(*brand)
}

// only the first listed category is used for the display path
func resolveCategory(rp *models.RemoteProduct, categoriesByID CategoryIndex) string {
	if len(rp.Categories) == 0 {
		return models.NoCategory
	}
	path := BuildCategoryPath(rp.Categories[0].ID, categoriesByID)
	if path == "" {
		return models.NoCategory
	}
	return path
}

func resolveImage(images []models.RemoteImage) string {
	if len(images) == 0 || images[0].Src == "" {
		return models.PlaceholderImage
	}
	return images[0].Src
}

func formatVariant(v models.RemoteVariant) models.Variant {
	out := models.Variant{ID: strconv.FormatInt(v.ID, 10)}
	if v.SKU != nil {
		out.SKU = *v.SKU
	}
	out.Price = parsePrice(v.Price)
	if v.Stock != nil && *v.Stock > 0 {
		out.Stock = *v.Stock
	}
	if len(v.Values) > 0 {
		out.Talle = strings.TrimSpace(v.Values[0].String())
	}
	if len(v.Values) > 1 {
		out.Color = strings.TrimSpace(v.Values[1].String())
	}
	return out
}

func parsePrice(raw *string) float64 {
	if raw == nil {
		return 0
	}
	d, err := decimal.NewFromString(strings.TrimSpace(*raw))
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}
