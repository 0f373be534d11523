package inventory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/servline/servline-backend/pkg/config"
	"github.com/servline/servline-backend/pkg/db/models"
)

type fakeCache struct {
	entries map[string]string
	sets    int
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.gets++
	if value, ok := f.entries[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.sets++
	f.entries[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeCache) SnapshotKey(branchID, productID string) string {
	return "sv:stock_snapshot:" + branchID + ":" + productID
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.InventoryItem{}))
	return conn
}

func seedStock(t *testing.T, conn *gorm.DB, branchID, productID uuid.UUID, qty *int) {
	t.Helper()
	require.NoError(t, conn.Create(&models.InventoryItem{
		BranchID:     branchID,
		ProductID:    productID,
		AvailableQty: qty,
	}).Error)
}

func TestAvailableReadsTrackedStock(t *testing.T) {
	conn := openTestDB(t)
	branchID, productID := uuid.New(), uuid.New()
	qty := 7
	seedStock(t, conn, branchID, productID, &qty)

	provider := NewProvider(conn, nil, config.InventoryConfig{}, nil)

	got, err := provider.Available(context.Background(), branchID, productID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)
}

func TestAvailableMissingRowMeansUnlimited(t *testing.T) {
	conn := openTestDB(t)
	provider := NewProvider(conn, nil, config.InventoryConfig{}, nil)

	got, err := provider.Available(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAvailableNullQtyMeansUnlimited(t *testing.T) {
	conn := openTestDB(t)
	branchID, productID := uuid.New(), uuid.New()
	seedStock(t, conn, branchID, productID, nil)

	provider := NewProvider(conn, nil, config.InventoryConfig{}, nil)

	got, err := provider.Available(context.Background(), branchID, productID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAvailablePopulatesAndUsesCache(t *testing.T) {
	conn := openTestDB(t)
	branchID, productID := uuid.New(), uuid.New()
	qty := 4
	seedStock(t, conn, branchID, productID, &qty)

	cache := newFakeCache()
	provider := NewProvider(conn, cache, config.InventoryConfig{SnapshotCacheTTL: time.Second}, nil)

	got, err := provider.Available(context.Background(), branchID, productID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, *got)
	assert.Equal(t, 1, cache.sets)

	// change the row under the cache: the cached value must win until expiry
	require.NoError(t, conn.Model(&models.InventoryItem{}).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		Update("available_qty", 99).Error)

	got, err = provider.Available(context.Background(), branchID, productID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, *got)
	assert.Equal(t, 1, cache.sets)
}

func TestAvailableCachesUnlimitedMarker(t *testing.T) {
	conn := openTestDB(t)
	branchID, productID := uuid.New(), uuid.New()

	cache := newFakeCache()
	provider := NewProvider(conn, cache, config.InventoryConfig{SnapshotCacheTTL: time.Second}, nil)

	got, err := provider.Available(context.Background(), branchID, productID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = provider.Available(context.Background(), branchID, productID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, cache.sets)
}
