package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"nadin-revendedoras/catalog"
	"nadin-revendedoras/models"
	"nadin-revendedoras/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSyncService(t *testing.T, source CatalogSource) (*CatalogSyncService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewCatalogSyncService(NewCatalogCache(db), source, nil)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, db
}

func happySource() *MockCatalogSource {
	source := new(MockCatalogSource)
	source.On("FetchProducts", mock.Anything).Return(remoteProducts(), nil)
	source.On("FetchCategories", mock.Anything).Return(remoteCategories(), nil)
	return source
}

func TestSyncCatalog_EndToEnd(t *testing.T) {
	source := happySource()
	svc, _ := newTestSyncService(t, source)
	ctx := context.Background()

	result, err := svc.SyncCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Zero(t, result.Dropped)
	assert.Equal(t, 1, result.Levels["3"])
	assert.Equal(t, 1, result.Levels["1"])
	assert.Equal(t, 1, result.Levels["0"])
	assert.Positive(t, result.Duration)

	p, err := svc.Cache.GetProduct(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, "MUJER > ROPA INTERIOR > BOMBACHAS", p.Category)
	assert.Equal(t, "Nadin", p.Brand)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, 4500.0, p.Variants[0].Price)

	mujer, err := svc.Cache.GetCachedProducts(ctx, catalog.Filters{Category: "MUJER"})
	require.NoError(t, err)
	require.Len(t, mujer, 1)
	assert.Equal(t, "101", mujer[0].ID)

	bySex, err := svc.Cache.GetCachedProducts(ctx, catalog.Filters{Sex: string(models.SexHombre)})
	require.NoError(t, err)
	require.Len(t, bySex, 1)
	assert.Equal(t, "102", bySex[0].ID)

	noBrand, err := svc.Cache.GetCachedProducts(ctx, catalog.Filters{Brand: models.NoBrand})
	require.NoError(t, err)
	require.Len(t, noBrand, 1)
	assert.Equal(t, models.NoCategory, noBrand[0].Category)

	source.AssertExpectations(t)
}

func TestSyncCatalog_Idempotent(t *testing.T) {
	svc, db := newTestSyncService(t, happySource())
	ctx := context.Background()

	load := func() []models.CachedProduct {
		var rows []models.CachedProduct
		require.NoError(t, db.Order("product_id").Find(&rows).Error)
		for i := range rows {
			rows[i].UpdatedAt = time.Time{}
		}
		return rows
	}

	_, err := svc.SyncCatalog(ctx)
	require.NoError(t, err)
	first := load()

	_, err = svc.SyncCatalog(ctx)
	require.NoError(t, err)
	second := load()

	assert.Len(t, second, 3)
	assert.Equal(t, first, second)
}

func TestSyncCatalog_FetchFailureKeepsCache(t *testing.T) {
	svc, _ := newTestSyncService(t, happySource())
	ctx := context.Background()
	_, err := svc.SyncCatalog(ctx)
	require.NoError(t, err)

	failing := new(MockCatalogSource)
	failing.On("FetchProducts", mock.Anything).Return(remoteProducts()[:1], nil)
	failing.On("FetchCategories", mock.Anything).Return(nil, errors.New("tiendanube down"))
	svc.Source = failing

	_, err = svc.SyncCatalog(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tiendanube down")

	count, err := svc.Cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "previous snapshot must survive")
}

func TestSyncCatalog_EmptySnapshotKeepsCache(t *testing.T) {
	svc, _ := newTestSyncService(t, happySource())
	ctx := context.Background()
	_, err := svc.SyncCatalog(ctx)
	require.NoError(t, err)

	empty := new(MockCatalogSource)
	empty.On("FetchProducts", mock.Anything).Return([]models.RemoteProduct{
		{ID: 0, Name: models.NewLocalizedText("broken"), Published: true},
	}, nil)
	empty.On("FetchCategories", mock.Anything).Return(remoteCategories(), nil)
	svc.Source = empty

	_, err = svc.SyncCatalog(ctx)
	assert.ErrorIs(t, err, ErrEmptySnapshot)

	count, err := svc.Cache.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestSyncCatalog_SecondRunWhileLockedIsRejected(t *testing.T) {
	source := new(MockCatalogSource)
	svc, _ := newTestSyncService(t, source)

	unlock, err := svc.Lock.TryLock(context.Background())
	require.NoError(t, err)

	_, err = svc.SyncCatalog(context.Background())
	assert.ErrorIs(t, err, ErrSyncInProgress)
	source.AssertNotCalled(t, "FetchProducts", mock.Anything)

	unlock()
	source.On("FetchProducts", mock.Anything).Return(remoteProducts(), nil)
	source.On("FetchCategories", mock.Anything).Return(remoteCategories(), nil)
	_, err = svc.SyncCatalog(context.Background())
	assert.NoError(t, err)
}

func TestSyncCatalog_ArchivesSnapshot(t *testing.T) {
	svc, _ := newTestSyncService(t, happySource())
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "catalog/snapshots/") && strings.HasSuffix(key, ".json")
	}), mock.Anything).Return(nil).Once()
	svc.Archiver = archiver

	_, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	archiver.AssertExpectations(t)
}

func TestSyncCatalog_ArchiveFailureIsNotFatal(t *testing.T) {
	svc, _ := newTestSyncService(t, happySource())
	archiver := new(MockArchiver)
	archiver.On("Archive", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("r2 unavailable"))
	svc.Archiver = archiver

	result, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
}

func TestSyncCatalog_DuplicateProductsKeepFirst(t *testing.T) {
	products := remoteProducts()
	dup := products[0]
	dup.Name = models.NewLocalizedText("Otra bombacha")
	products = append(products, dup)

	source := new(MockCatalogSource)
	source.On("FetchProducts", mock.Anything).Return(products, nil)
	source.On("FetchCategories", mock.Anything).Return(remoteCategories(), nil)
	svc, _ := newTestSyncService(t, source)

	result, err := svc.SyncCatalog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)

	p, err := svc.Cache.GetProduct(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, "Bombacha Less Encaje", p.Name)
}

func TestSyncCatalog_SalesCountOrdersProducts(t *testing.T) {
	svc, db := newTestSyncService(t, happySource())
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Order{
		UserID: "u1", ClientName: "Ana", State: models.OrderStateDelivered, PaidByClient: true,
		Items: []models.OrderItem{{ProductID: "103", VariantID: "4", Quantity: 4}},
	}).Error)
	require.NoError(t, db.Create(&models.Order{
		UserID: "u1", ClientName: "Bea", State: models.OrderStatePendiente,
		Items: []models.OrderItem{{ProductID: "102", VariantID: "3", Quantity: 9}},
	}).Error)

	_, err := svc.SyncCatalog(ctx)
	require.NoError(t, err)

	products, err := svc.Cache.GetCachedProducts(ctx, catalog.Filters{})
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "103", products[0].ID, "only completed orders count as sales")

	var row models.CachedProduct
	require.NoError(t, db.First(&row, "product_id = ?", "103").Error)
	assert.Equal(t, int64(4), row.SalesCount)
}
