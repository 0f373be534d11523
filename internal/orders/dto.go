package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servline/servline-backend/pkg/enums"
)

// Filters describe the inputs supported by the branch order list.
type Filters struct {
	Status *enums.OrderStatus
}

// ItemSummary exposes a line item in list/detail payloads.
type ItemSummary struct {
	ID                  uuid.UUID       `json:"id"`
	ProductID           uuid.UUID       `json:"product_id"`
	RequestedQty        int             `json:"requested_qty"`
	FulfilledQty        int             `json:"fulfilled_qty"`
	SpecialInstructions *string         `json:"special_instructions,omitempty"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
}

// OrderSummary exposes the aggregated fields returned in the branch list.
type OrderSummary struct {
	ID          uuid.UUID         `json:"id"`
	BranchID    uuid.UUID         `json:"branch_id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	TotalItems  int               `json:"total_items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Items       []ItemSummary     `json:"items"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
