package reconciliation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/servline/servline-backend/pkg/enums"
	"github.com/servline/servline-backend/pkg/logger"
)

// CreditRequest carries the monetary shortfall for a refund or wallet-credit
// line to the payments collaborator.
type CreditRequest struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	BranchID    uuid.UUID
	Resolution  enums.ShortageResolution
	ShortageQty int
	Amount      decimal.Decimal
}

// WalletGateway hands shortfall credits/refunds to the payments service.
type WalletGateway interface {
	CreditShortfall(ctx context.Context, req CreditRequest) error
}

// TransferRequest asks another branch to cover a shortfall.
type TransferRequest struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	BranchID    uuid.UUID
	ProductID   uuid.UUID
	ShortageQty int
}

// TransferGateway emits cross-branch transfer requests to the fulfillment
// service. Inter-branch routing itself lives there, not here.
type TransferGateway interface {
	RequestTransfer(ctx context.Context, req TransferRequest) error
}

// LoggingWalletGateway is the default wiring until the payments service is
// connected: it records the emission and succeeds.
type LoggingWalletGateway struct {
	Logg *logger.Logger
}

func (g *LoggingWalletGateway) CreditShortfall(ctx context.Context, req CreditRequest) error {
	if g.Logg != nil {
		ctx = g.Logg.WithFields(ctx, map[string]any{
			"order_id":      req.OrderID,
			"order_item_id": req.OrderItemID,
			"resolution":    req.Resolution,
			"shortage_qty":  req.ShortageQty,
			"amount":        req.Amount,
		})
		g.Logg.Info(ctx, "shortfall credit emitted")
	}
	return nil
}

// LoggingTransferGateway is the default wiring until the fulfillment service
// is connected: it records the emission and succeeds.
type LoggingTransferGateway struct {
	Logg *logger.Logger
}

func (g *LoggingTransferGateway) RequestTransfer(ctx context.Context, req TransferRequest) error {
	if g.Logg != nil {
		ctx = g.Logg.WithFields(ctx, map[string]any{
			"order_id":      req.OrderID,
			"order_item_id": req.OrderItemID,
			"product_id":    req.ProductID,
			"shortage_qty":  req.ShortageQty,
		})
		g.Logg.Info(ctx, "cross-branch transfer requested")
	}
	return nil
}
