package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nadin-revendedoras/catalog"
	"nadin-revendedoras/models"

	"github.com/rs/zerolog/log"
)

var ErrEmptySnapshot = errors.New("catalog sync produced no products, keeping the current cache")

// CatalogSource is the remote paginated catalog (Tiendanube).
type CatalogSource interface {
	FetchProducts(ctx context.Context) ([]models.RemoteProduct, error)
	FetchCategories(ctx context.Context) ([]models.RemoteCategory, error)
}

// SnapshotArchiver stores a copy of each successful snapshot (R2/S3).
type SnapshotArchiver interface {
	Archive(ctx context.Context, key string, body []byte) error
}

// SyncResult summarizes one successful sync run.
type SyncResult struct {
	Count     int            `json:"count"`
	Dropped   int            `json:"dropped"`
	Levels    map[string]int `json:"levels"`
	Duration  time.Duration  `json:"-"`
	Timestamp time.Time      `json:"timestamp"`
}

type CatalogSyncService struct {
	Cache      *CatalogCache
	Source     CatalogSource
	Lock       SyncLocker
	Archiver   SnapshotArchiver
	Classifier *catalog.SexClassifier

	now func() time.Time
}

func NewCatalogSyncService(cache *CatalogCache, source CatalogSource, lock SyncLocker) *CatalogSyncService {
	if lock == nil {
		lock = NewLocalSyncLock()
	}
	return &CatalogSyncService{
		Cache:      cache,
		Source:     source,
		Lock:       lock,
		Classifier: catalog.NewSexClassifier(catalog.DefaultSexRules),
		now:        time.Now,
	}
}

// SyncCatalog fetches, formats and replaces the cached catalog.
// Nothing is deleted unless the complete new snapshot is ready in memory.
func (s *CatalogSyncService) SyncCatalog(ctx context.Context) (*SyncResult, error) {
	unlock, err := s.Lock.TryLock(ctx)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			syncRunsCounter.WithLabelValues("skipped").Inc()
			log.Warn().Msg("[SYNC] ⏭️ catalog sync already running, skipping")
		}
		return nil, err
	}
	defer unlock()

	start := s.now()
	result, err := s.run(ctx, start)
	if err != nil {
		syncRunsCounter.WithLabelValues("failed").Inc()
		log.Error().Err(err).Msg("[SYNC] ❌ catalog sync failed, cache left untouched")
		return nil, err
	}

	syncRunsCounter.WithLabelValues("success").Inc()
	syncDurationHistogram.Observe(result.Duration.Seconds())
	cachedProductsGauge.Set(float64(result.Count))
	droppedProductsCounter.Add(float64(result.Dropped))

	log.Info().
		Int("count", result.Count).
		Int("dropped", result.Dropped).
		Dur("duration", result.Duration).
		Msg("[SYNC] ✅ catalog sync finished")
	return result, nil
}

func (s *CatalogSyncService) run(ctx context.Context, start time.Time) (*SyncResult, error) {
	log.Info().Msg("[SYNC] 🔁 starting catalog sync")

	rawProducts, err := s.Source.FetchProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching remote products: %w", err)
	}
	rawCategories, err := s.Source.FetchCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching remote categories: %w", err)
	}

	products, stats := catalog.FormatProducts(rawProducts, catalog.NewCategoryIndex(rawCategories))
	if len(products) == 0 {
		return nil, ErrEmptySnapshot
	}

	sales, err := s.Cache.SalesCounts(ctx)
	if err != nil {
		return nil, err
	}

	syncedAt := s.now().UTC()
	rows, err := s.buildRows(products, sales, syncedAt)
	if err != nil {
		return nil, err
	}

	if err := s.Cache.ReplaceAll(ctx, rows); err != nil {
		return nil, fmt.Errorf("replacing cached catalog: %w", err)
	}

	s.archive(ctx, products, syncedAt)

	return &SyncResult{
		Count:     len(rows),
		Dropped:   stats.Dropped,
		Levels:    stats.Levels,
		Duration:  s.now().Sub(start),
		Timestamp: syncedAt,
	}, nil
}

// buildRows keeps the first occurrence of each product id; pages can overlap when the
// remote catalog changes mid-sync.
func (s *CatalogSyncService) buildRows(products []models.NormalizedProduct, sales map[string]int64, syncedAt time.Time) ([]models.CachedProduct, error) {
	rows := make([]models.CachedProduct, 0, len(products))
	seen := make(map[string]struct{}, len(products))

	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			log.Warn().Str("product_id", p.ID).Msg("[SYNC] duplicate product in remote listing, keeping first")
			continue
		}
		seen[p.ID] = struct{}{}

		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encoding product %s: %w", p.ID, err)
		}
		rows = append(rows, models.CachedProduct{
			ProductID:  p.ID,
			Data:       string(data),
			Brand:      p.Brand,
			Category:   p.Category,
			Sex:        s.Classifier.Infer(p.Category, p.Name),
			SalesCount: sales[p.ID],
			UpdatedAt:  syncedAt,
		})
	}
	return rows, nil
}

// archive failures are logged only; the cache is already replaced
func (s *CatalogSyncService) archive(ctx context.Context, products []models.NormalizedProduct, syncedAt time.Time) {
	if s.Archiver == nil {
		return
	}
	body, err := json.Marshal(products)
	if err != nil {
		log.Warn().Err(err).Msg("[SYNC] could not encode snapshot for archive")
		return
	}
	key := fmt.Sprintf("catalog/snapshots/%s.json", syncedAt.Format("20060102T150405Z"))
	if err := s.Archiver.Archive(ctx, key, body); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("[SYNC] ⚠️ snapshot archive failed")
		return
	}
	log.Info().Str("key", key).Int("bytes", len(body)).Msg("[SYNC] 🗄️ snapshot archived")
}
