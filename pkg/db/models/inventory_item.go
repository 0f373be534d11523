package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks per-branch stock for a product. A NULL AvailableQty
// means the product is not stock-tracked at that branch (unlimited).
type InventoryItem struct {
	BranchID     uuid.UUID `gorm:"column:branch_id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty *int      `gorm:"column:available_qty"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
