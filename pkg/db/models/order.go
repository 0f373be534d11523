package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servline/servline-backend/pkg/enums"
)

// Order is a single customer purchase scoped to one branch. Status is only
// ever written through the lifecycle engine's guarded update.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	BranchID    uuid.UUID         `gorm:"column:branch_id;type:uuid;not null;index:idx_orders_branch_status"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending';index:idx_orders_branch_status"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes       *string           `gorm:"column:notes"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
