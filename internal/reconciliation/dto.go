package reconciliation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servline/servline-backend/pkg/enums"
)

// LineResult is the computed stock check for one order line. AvailableQty is
// nil when the branch does not stock-track the product (unlimited).
type LineResult struct {
	OrderItemID  uuid.UUID       `json:"order_item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	RequestedQty int             `json:"requested_qty"`
	AvailableQty *int            `json:"available_qty"`
	Shortage     int             `json:"shortage"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// Result is the full reconciliation preview for an order, including the
// zero-shortage lines so callers can render every item.
type Result struct {
	OrderID       uuid.UUID    `json:"order_id"`
	BranchID      uuid.UUID    `json:"branch_id"`
	Lines         []LineResult `json:"lines"`
	ShortageLines int          `json:"shortage_lines"`
}

// LineResolution is the operator's chosen remedy for one shortfall line.
// FulfilledQty optionally overrides the computed fulfilled quantity and must
// stay within [0, requested].
type LineResolution struct {
	OrderItemID  uuid.UUID                `json:"order_item_id"`
	Resolution   enums.ShortageResolution `json:"resolution"`
	FulfilledQty *int                     `json:"fulfilled_qty,omitempty"`
}
