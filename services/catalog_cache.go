package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"nadin-revendedoras/catalog"
	"nadin-revendedoras/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var ErrProductNotFound = errors.New("product not found in catalog")

const insertBatchSize = 500

// CatalogCache is the cached_products table: written only by the sync, read by everything else.
type CatalogCache struct {
	DB *gorm.DB
}

func NewCatalogCache(db *gorm.DB) *CatalogCache {
	return &CatalogCache{DB: db}
}

// ReplaceAll swaps the whole snapshot in one transaction.
// Readers see either the previous snapshot or the new one, never an empty table.
func (c *CatalogCache) ReplaceAll(ctx context.Context, rows []models.CachedProduct) error {
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CachedProduct{}).Error; err != nil {
			return fmt.Errorf("clearing cached products: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
			return fmt.Errorf("inserting %d cached products: %w", len(rows), err)
		}
		return nil
	})
}

func (c *CatalogCache) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.DB.WithContext(ctx).Model(&models.CachedProduct{}).Count(&n).Error
	return n, err
}

// SalesCounts sums sold quantities per product over completed orders.
func (c *CatalogCache) SalesCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ProductID string
		Total     int64
	}
	err := c.DB.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.product_id AS product_id, SUM(order_items.quantity) AS total").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Scopes(models.CompletedOrders).
		Group("order_items.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting sales per product: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ProductID] = r.Total
	}
	return out, nil
}

// GetCachedProducts reads the snapshot with optional filters, most-sold and most-recent first.
func (c *CatalogCache) GetCachedProducts(ctx context.Context, f catalog.Filters) ([]models.NormalizedProduct, error) {
	q := c.DB.WithContext(ctx).Model(&models.CachedProduct{})
	if f.Brand != "" {
		q = q.Where("brand = ?", f.Brand)
	}
	if f.Category != "" {
		q = q.Where(c.categoryCondition(f.Category))
	}
	if f.Sex != "" {
		q = q.Where("sex = ?", f.Sex)
	}

	var rows []models.CachedProduct
	if err := q.Order("sales_count DESC").Order("updated_at DESC").Order("product_id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying cached products: %w", err)
	}

	products := make([]models.NormalizedProduct, 0, len(rows))
	for _, row := range rows {
		p, err := decodeCachedProduct(row)
		if err != nil {
			log.Warn().Err(err).Str("product_id", row.ProductID).Msg("[CATALOG] skipping undecodable cache row")
			continue
		}
		products = append(products, p)
	}
	return catalog.ApplyInMemory(products, f), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// categoryCondition matches the category path as a literal, case-insensitive substring.
func (c *CatalogCache) categoryCondition(category string) (string, string) {
	pattern := "%" + likeEscaper.Replace(category) + "%"
	if c.DB.Dialector.Name() == "postgres" {
		return `category ILIKE ? ESCAPE '\'`, pattern
	}
	return `LOWER(category) LIKE ? ESCAPE '\'`, strings.ToLower(pattern)
}

// GetProduct returns one cached product by its remote id.
func (c *CatalogCache) GetProduct(ctx context.Context, productID string) (*models.NormalizedProduct, error) {
	var row models.CachedProduct
	if err := c.DB.WithContext(ctx).Where("product_id = ?", productID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, err
	}
	p, err := decodeCachedProduct(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FilterOptions lists talles and colores in stock for the narrowed product set.
func (c *CatalogCache) FilterOptions(ctx context.Context, f catalog.Filters) (catalog.FilterOptions, error) {
	f.Talle, f.Color = "", ""
	products, err := c.GetCachedProducts(ctx, f)
	if err != nil {
		return catalog.FilterOptions{}, err
	}
	return catalog.BuildFilterOptions(products), nil
}

// CategoryTree groups cached products by category path into a navigation tree.
func (c *CatalogCache) CategoryTree(ctx context.Context) ([]*catalog.CategoryNode, error) {
	var rows []struct {
		Category string
		Total    int64
	}
	if err := c.DB.WithContext(ctx).Model(&models.CachedProduct{}).
		Select("category, COUNT(*) AS total").
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("grouping categories: %w", err)
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Total
	}
	return catalog.BuildCategoryTree(counts), nil
}

type BrandCount struct {
	Brand string `json:"brand"`
	Count int64  `json:"count"`
}

func (c *CatalogCache) Brands(ctx context.Context) ([]BrandCount, error) {
	var out []BrandCount
	err := c.DB.WithContext(ctx).Model(&models.CachedProduct{}).
		Select("brand, COUNT(*) AS count").
		Group("brand").
		Order("brand ASC").
		Scan(&out).Error
	return out, err
}

func decodeCachedProduct(row models.CachedProduct) (models.NormalizedProduct, error) {
	var p models.NormalizedProduct
	if err := json.Unmarshal([]byte(row.Data), &p); err != nil {
		return p, fmt.Errorf("decoding cached product %s: %w", row.ProductID, err)
	}
	return p, nil
}
