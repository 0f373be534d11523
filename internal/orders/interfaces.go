package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/servline/servline-backend/pkg/db/models"
	"github.com/servline/servline-backend/pkg/enums"
	"github.com/servline/servline-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, branchID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	// UpdateStatusGuarded performs a compare-and-swap on the order status and
	// reports whether the row was actually moved. A false return means another
	// writer got there first.
	UpdateStatusGuarded(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	UpdateItemFulfilledQty(ctx context.Context, itemID uuid.UUID, fulfilledQty int) error
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
}
