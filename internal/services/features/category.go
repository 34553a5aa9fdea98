package features

import (
	"PriceCast/internal/domain/models"
)

// BuildCategoryIndex maps sku to its structure_level_2 category. When a sku
// appears under several categories the first occurrence wins.
func BuildCategoryIndex(structures []models.ProductStructure) map[string]string {
	idx := make(map[string]string, len(structures))
	for _, s := range structures {
		if _, ok := idx[s.SKU]; !ok {
			idx[s.SKU] = s.StructureLevel2
		}
	}
	return idx
}

// AddCategory left-joins the category onto each row. Rows with no match keep
// an empty category; they are never dropped.
func AddCategory(rows []*Row, idx map[string]string) {
	for _, r := range rows {
		r.Category = idx[r.SKU]
	}
}
