package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem captures the snapshot of each line within an order.
// RequestedQty and UnitPrice are immutable once the order is placed;
// FulfilledQty is only rewritten by reconciliation and stays within
// [0, RequestedQty].
type OrderItem struct {
	ID                  uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID             uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID           uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	RequestedQty        int             `gorm:"column:requested_qty;not null"`
	FulfilledQty        int             `gorm:"column:fulfilled_qty;not null"`
	SpecialInstructions *string         `gorm:"column:special_instructions"`
	UnitPrice           decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	CreatedAt           time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
