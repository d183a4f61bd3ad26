package catalog

import (
	"slices"
	"strings"

	"nadin-revendedoras/models"

	"github.com/rs/zerolog/log"
)

// MaxCategoryDepth bounds the ancestor walk. Real trees are 3-4 levels deep.
const MaxCategoryDepth = 10

// CategoryIndex is the id → category lookup built once per sync.
type CategoryIndex map[int64]models.RemoteCategory

func NewCategoryIndex(categories []models.RemoteCategory) CategoryIndex {
	idx := make(CategoryIndex, len(categories))
	for _, c := range categories {
		idx[c.ID] = c
	}
	return idx
}

// BuildCategoryPath resolves the ancestor chain of categoryID into "ROOT > ... > LEAF".
// Missing ids, cycles and over-deep chains end the walk early; the names gathered so far are returned.
func BuildCategoryPath(categoryID int64, categoriesByID CategoryIndex) string {
	names := make([]string, 0, 4)
	visited := make(map[int64]struct{}, 4)

	current := categoryID
	for hops := 0; hops < MaxCategoryDepth; hops++ {
		if _, seen := visited[current]; seen {
			log.Warn().Int64("category_id", categoryID).Int64("repeated_id", current).
				Msg("[CATALOG] category cycle detected, truncating path")
			break
		}
		visited[current] = struct{}{}

		cat, ok := categoriesByID[current]
		if !ok {
			log.Warn().Int64("category_id", categoryID).Int64("missing_id", current).
				Msg("[CATALOG] category not found in remote category list")
			break
		}
		if name := strings.TrimSpace(cat.Name.String()); name != "" {
			names = append(names, name)
		}

		if cat.Parent == nil || *cat.Parent <= 0 {
			break
		}
		current = *cat.Parent
	}

	slices.Reverse(names)
	return strings.Join(names, models.CategorySeparator)
}

// CategoryLevels counts the segments of a stored category path. "Sin categoría" has none.
func CategoryLevels(path string) int {
	if path == "" || path == models.NoCategory {
		return 0
	}
	return strings.Count(path, models.CategorySeparator) + 1
}
