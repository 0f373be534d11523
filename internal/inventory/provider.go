package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servline/servline-backend/pkg/config"
	"github.com/servline/servline-backend/pkg/db/models"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
	"github.com/servline/servline-backend/pkg/logger"
	pkgredis "github.com/servline/servline-backend/pkg/redis"
)

// unlimitedMarker is the cache sentinel for products with no stock tracking.
const unlimitedMarker = "inf"

// SnapshotProvider returns the stock available for a product at a branch at
// read time. A nil quantity means unlimited. It never mutates stock.
type SnapshotProvider interface {
	Available(ctx context.Context, branchID, productID uuid.UUID) (*int, error)
}

type snapshotCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SnapshotKey(branchID, productID string) string
}

// Provider reads per-branch stock rows, fronted by a short-TTL cache so the
// polling views do not hammer the inventory table.
type Provider struct {
	db    *gorm.DB
	cache snapshotCache
	cfg   config.InventoryConfig
	logg  *logger.Logger
}

// NewProvider builds a snapshot provider. The cache is optional; pass nil to
// read straight from the database.
func NewProvider(db *gorm.DB, cache snapshotCache, cfg config.InventoryConfig, logg *logger.Logger) *Provider {
	return &Provider{
		db:    db,
		cache: cache,
		cfg:   cfg,
		logg:  logg,
	}
}

// Available implements SnapshotProvider.
func (p *Provider) Available(ctx context.Context, branchID, productID uuid.UUID) (*int, error) {
	if p.cache != nil {
		key := p.cache.SnapshotKey(branchID.String(), productID.String())
		cached, err := p.cache.Get(ctx, key)
		if err == nil {
			return decodeSnapshot(cached)
		}
		if !pkgredis.IsNil(err) && p.logg != nil {
			p.logg.Warn(ctx, "stock snapshot cache read failed")
		}
	}

	qty, err := p.readRow(ctx, branchID, productID)
	if err != nil {
		return nil, err
	}

	if p.cache != nil && p.cfg.SnapshotCacheTTL > 0 {
		key := p.cache.SnapshotKey(branchID.String(), productID.String())
		if err := p.cache.Set(ctx, key, encodeSnapshot(qty), p.cfg.SnapshotCacheTTL); err != nil && p.logg != nil {
			p.logg.Warn(ctx, "stock snapshot cache write failed")
		}
	}

	return qty, nil
}

func (p *Provider) readRow(ctx context.Context, branchID, productID uuid.UUID) (*int, error) {
	if p.cfg.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.LookupTimeout)
		defer cancel()
	}

	var item models.InventoryItem
	err := p.db.WithContext(ctx).
		Where("branch_id = ? AND product_id = ?", branchID, productID).
		First(&item).Error
	switch {
	case err == nil:
		return item.AvailableQty, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no inventory row = the branch does not stock-track this product
		return nil, nil
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock lookup timed out")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stock lookup failed")
	}
}

func encodeSnapshot(qty *int) string {
	if qty == nil {
		return unlimitedMarker
	}
	return strconv.Itoa(*qty)
}

func decodeSnapshot(raw string) (*int, error) {
	if raw == unlimitedMarker {
		return nil, nil
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "corrupt stock snapshot cache entry")
	}
	return &qty, nil
}
