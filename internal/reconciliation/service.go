package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/servline/servline-backend/internal/inventory"
	"github.com/servline/servline-backend/internal/orders"
	"github.com/servline/servline-backend/pkg/db/models"
	"github.com/servline/servline-backend/pkg/enums"
	pkgerrors "github.com/servline/servline-backend/pkg/errors"
	"github.com/servline/servline-backend/pkg/logger"
	"github.com/servline/servline-backend/pkg/metrics"
)

// Transactor runs fn inside a single database transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service computes stock shortages for confirmed orders and commits the
// chosen resolutions. Reconcile is a pure read; Apply is the one-shot commit
// that also moves the order into preparing.
type Service struct {
	repo     orders.Repository
	stock    inventory.SnapshotProvider
	wallet   WalletGateway
	transfer TransferGateway
	tx       Transactor
	metrics  *metrics.FulfillmentMetrics
	logg     *logger.Logger
}

func NewService(
	repo orders.Repository,
	stock inventory.SnapshotProvider,
	wallet WalletGateway,
	transfer TransferGateway,
	tx Transactor,
	fm *metrics.FulfillmentMetrics,
	logg *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		stock:    stock,
		wallet:   wallet,
		transfer: transfer,
		tx:       tx,
		metrics:  fm,
		logg:     logg,
	}
}

// Reconcile cross-checks every line of a confirmed order against live branch
// stock and returns the computed shortages. It mutates nothing; a failed
// stock lookup fails the whole run rather than returning a partial list.
func (s *Service) Reconcile(ctx context.Context, orderID uuid.UUID) (*Result, error) {
	started := time.Now()

	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition,
			fmt.Sprintf("reconciliation requires a confirmed order, status is %s", order.Status))
	}

	result := &Result{
		OrderID:  order.ID,
		BranchID: order.BranchID,
		Lines:    make([]LineResult, 0, len(order.Items)),
	}

	for _, item := range order.Items {
		if _, err := s.repo.FindProduct(ctx, item.ProductID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "order item references an unknown product").
					WithDetails(map[string]any{"order_item_id": item.ID, "product_id": item.ProductID})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "product lookup failed")
		}

		available, err := s.stock.Available(ctx, order.BranchID, item.ProductID)
		if err != nil {
			return nil, err
		}

		shortage := 0
		if available != nil && *available < item.RequestedQty {
			shortage = item.RequestedQty - max(*available, 0)
		}
		if shortage > 0 {
			result.ShortageLines++
		}

		result.Lines = append(result.Lines, LineResult{
			OrderItemID:  item.ID,
			ProductID:    item.ProductID,
			RequestedQty: item.RequestedQty,
			AvailableQty: available,
			Shortage:     shortage,
			UnitPrice:    item.UnitPrice,
		})
	}

	s.metrics.ObserveShortages(order.BranchID.String(), result.ShortageLines)
	s.metrics.ObserveReconcileDuration(order.BranchID.String(), time.Since(started))

	return result, nil
}

// Apply commits a reconciliation: it writes fulfilled quantities, emits the
// shortfall remedies, and moves the order from confirmed to preparing in one
// transaction. The guarded status write makes it one-shot per order; a second
// call loses the compare-and-swap and fails.
func (s *Service) Apply(ctx context.Context, orderID uuid.UUID, resolutions []LineResolution) (*models.Order, error) {
	result, err := s.Reconcile(ctx, orderID)
	if err != nil {
		return nil, err
	}

	plan, err := buildPlan(result, resolutions)
	if err != nil {
		s.metrics.IncTransition(
			enums.OrderStatusConfirmed.String(), enums.OrderStatusPreparing.String(), "rejected")
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		for _, line := range plan {
			if err := txRepo.UpdateItemFulfilledQty(ctx, line.itemID, line.fulfilledQty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "writing fulfilled quantity")
			}
		}

		moved, err := txRepo.UpdateStatusGuarded(ctx, orderID,
			enums.OrderStatusConfirmed, enums.OrderStatusPreparing)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "moving order to preparing")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				"order already left confirmed, reconciliation was applied elsewhere")
		}

		// remedies roll back with the transaction if the collaborator rejects
		return s.emitRemedies(ctx, result, plan)
	})
	if err != nil {
		outcome := "conflict"
		if !pkgerrors.IsCode(err, pkgerrors.CodeInvalidTransition) {
			outcome = "error"
		}
		s.metrics.IncTransition(
			enums.OrderStatusConfirmed.String(), enums.OrderStatusPreparing.String(), outcome)
		return nil, err
	}

	s.metrics.IncTransition(
		enums.OrderStatusConfirmed.String(), enums.OrderStatusPreparing.String(), "success")
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Info(ctx, "reconciliation applied")
	}

	return s.findOrder(ctx, orderID)
}

type plannedLine struct {
	itemID       uuid.UUID
	fulfilledQty int
	resolution   *LineResolution
}

// buildPlan validates the supplied resolutions against the computed shortages
// and decides the fulfilled quantity per line.
func buildPlan(result *Result, resolutions []LineResolution) ([]plannedLine, error) {
	byItem := make(map[uuid.UUID]LineResult, len(result.Lines))
	for _, line := range result.Lines {
		byItem[line.OrderItemID] = line
	}

	resByItem := make(map[uuid.UUID]LineResolution, len(resolutions))
	for _, res := range resolutions {
		line, ok := byItem[res.OrderItemID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution references an unknown order item").
				WithDetails(map[string]any{"order_item_id": res.OrderItemID})
		}
		if line.Shortage == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "resolution supplied for a line without shortage").
				WithDetails(map[string]any{"order_item_id": res.OrderItemID})
		}
		if !res.Resolution.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown shortage resolution").
				WithDetails(map[string]any{"order_item_id": res.OrderItemID, "resolution": res.Resolution})
		}
		resByItem[res.OrderItemID] = res
	}

	var unresolved []uuid.UUID
	var boundsErr error
	plan := make([]plannedLine, 0, len(result.Lines))

	for _, line := range result.Lines {
		res, hasRes := resByItem[line.OrderItemID]
		if line.Shortage > 0 && !hasRes {
			unresolved = append(unresolved, line.OrderItemID)
			continue
		}

		fulfilled := line.RequestedQty
		if line.Shortage > 0 {
			switch res.Resolution {
			case enums.ShortageResolutionRefund, enums.ShortageResolutionWalletCredit:
				fulfilled = max(*line.AvailableQty, 0)
			case enums.ShortageResolutionTransfer:
				// the other branch covers the gap, keep the requested quantity
				fulfilled = line.RequestedQty
			}
			if res.FulfilledQty != nil {
				fulfilled = *res.FulfilledQty
			}
		}

		if fulfilled < 0 || fulfilled > line.RequestedQty {
			boundsErr = multierr.Append(boundsErr,
				fmt.Errorf("order item %s: fulfilled %d outside [0, %d]",
					line.OrderItemID, fulfilled, line.RequestedQty))
			continue
		}

		planned := plannedLine{itemID: line.OrderItemID, fulfilledQty: fulfilled}
		if hasRes {
			resolution := res
			planned.resolution = &resolution
		}
		plan = append(plan, planned)
	}

	if len(unresolved) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnresolvedShortage, "shortfall lines are missing a resolution").
			WithDetails(map[string]any{"order_item_ids": unresolved})
	}
	if boundsErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidQuantity, boundsErr, "fulfilled quantity out of bounds")
	}

	return plan, nil
}

func (s *Service) emitRemedies(ctx context.Context, result *Result, plan []plannedLine) error {
	byItem := make(map[uuid.UUID]LineResult, len(result.Lines))
	for _, line := range result.Lines {
		byItem[line.OrderItemID] = line
	}

	for _, planned := range plan {
		if planned.resolution == nil {
			continue
		}
		line := byItem[planned.itemID]

		switch planned.resolution.Resolution {
		case enums.ShortageResolutionRefund, enums.ShortageResolutionWalletCredit:
			req := CreditRequest{
				OrderID:     result.OrderID,
				OrderItemID: line.OrderItemID,
				BranchID:    result.BranchID,
				Resolution:  planned.resolution.Resolution,
				ShortageQty: line.Shortage,
				Amount:      line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Shortage))),
			}
			if err := s.wallet.CreditShortfall(ctx, req); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emitting shortfall credit")
			}
		case enums.ShortageResolutionTransfer:
			req := TransferRequest{
				OrderID:     result.OrderID,
				OrderItemID: line.OrderItemID,
				BranchID:    result.BranchID,
				ProductID:   line.ProductID,
				ShortageQty: line.Shortage,
			}
			if err := s.transfer.RequestTransfer(ctx, req); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emitting transfer request")
			}
		}
	}

	return nil
}

func (s *Service) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}
